package ports

import "github.com/deshima-dev/desim/internal/domain"

// ConditionsLoader loads observing conditions by name or path.
type ConditionsLoader interface {
	LoadConditions(nameOrPath string) (domain.Conditions, error)
}

type ConditionsCatalog interface {
	ListConditions(root string) ([]domain.ConditionsRef, error)
}
