package usecase

import (
	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
	"github.com/deshima-dev/desim/internal/usecase/paramset"
)

// ResolveParams layers an instrument, its conditions and overrides into
// validated parameters without evaluating them.
func ResolveParams(il ports.InstrumentLoader, cl ports.ConditionsLoader, instrumentPath, conditions string, set []string) (domain.Params, error) {
	inst, cond, err := loadPair(il, cl, instrumentPath, conditions)
	if err != nil {
		return domain.Params{}, err
	}
	p, err := layer(inst, cond, set)
	if err != nil {
		return domain.Params{}, err
	}
	if err := paramset.Validate(p); err != nil {
		return domain.Params{}, err
	}
	return p, nil
}
