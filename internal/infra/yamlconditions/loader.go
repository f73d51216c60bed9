package yamlconditions

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/deshima-dev/desim/internal/domain"
	"github.com/deshima-dev/desim/internal/ports"
	"github.com/deshima-dev/desim/internal/usecase/paramset"
)

type Loader struct {
	rootDir       string
	conditionsDir string
}

type Option func(*Loader)

func WithConditionsDir(dir string) Option {
	return func(l *Loader) { l.conditionsDir = dir }
}

func NewLoader(root string, opts ...Option) *Loader {
	l := &Loader{
		rootDir:       root,
		conditionsDir: "conditions",
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

var (
	_ ports.ConditionsLoader  = (*Loader)(nil)
	_ ports.ConditionsCatalog = (*Loader)(nil)
)

// LoadConditions accepts either a conditions name (e.g., "aste") or a full path to a YAML file.
// Fields left out of the file stay nil.
func (l *Loader) LoadConditions(nameOrPath string) (domain.Conditions, error) {
	var path, name string

	if strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") || strings.ContainsRune(nameOrPath, filepath.Separator) {
		path = filepath.Clean(nameOrPath)
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	} else {
		name = nameOrPath
		path = filepath.Join(l.rootDir, l.conditionsDir, name+".yaml")
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Conditions{}, &domain.OpError{
			Op:   "yamlconditions.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var yc yamlConditions
	if err := yaml.Unmarshal(b, &yc); err != nil {
		return domain.Conditions{}, &domain.OpError{
			Op:   "yamlconditions.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	if err := paramset.Struct(yc); err != nil {
		return domain.Conditions{}, invalid(path, err)
	}

	c := yc.toDomain()
	if strings.TrimSpace(c.Name) == "" {
		c.Name = name
	}
	return c, nil
}

func (l *Loader) ListConditions(root string) ([]domain.ConditionsRef, error) {
	dir := filepath.Join(root, l.conditionsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlconditions.list",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  err,
		}
	}

	var refs []domain.ConditionsRef
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || (!strings.HasSuffix(n, ".yaml") && !strings.HasSuffix(n, ".yml")) {
			continue
		}
		refs = append(refs, domain.ConditionsRef{
			Name: strings.TrimSuffix(n, filepath.Ext(n)),
			Path: filepath.Join(dir, n),
		})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

type yamlConditions struct {
	Name string `yaml:"name" json:"name"`
	Site string `yaml:"site" json:"site"`

	PWV   *float64 `yaml:"pwv" json:"pwv" validate:"omitempty,gte=0"`
	EL    *float64 `yaml:"el" json:"el" validate:"omitempty,gt=0,lte=90"`
	TpAmb *float64 `yaml:"tp_amb" json:"tp_amb" validate:"omitempty,gt=0"`
	TbCMB *float64 `yaml:"tb_cmb" json:"tb_cmb" validate:"omitempty,gte=0"`

	SNR              *float64 `yaml:"snr" json:"snr" validate:"omitempty,gt=0"`
	ObsHours         *float64 `yaml:"obs_hours" json:"obs_hours" validate:"omitempty,gt=0"`
	OnSourceFraction *float64 `yaml:"on_source_fraction" json:"on_source_fraction" validate:"omitempty,gt=0,lte=1"`
	OnOff            *bool    `yaml:"on_off" json:"on_off"`

	EtaAtm *float64 `yaml:"eta_atm" json:"eta_atm" validate:"omitempty,gt=0,lte=1"`
}

func (yc yamlConditions) toDomain() domain.Conditions {
	return domain.Conditions{
		Name:             strings.TrimSpace(yc.Name),
		Site:             strings.TrimSpace(yc.Site),
		PWV:              yc.PWV,
		EL:               yc.EL,
		TpAmb:            yc.TpAmb,
		TbCMB:            yc.TbCMB,
		SNR:              yc.SNR,
		ObsHours:         yc.ObsHours,
		OnSourceFraction: yc.OnSourceFraction,
		OnOff:            yc.OnOff,
		EtaAtm:           yc.EtaAtm,
	}
}

func invalid(path string, err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		err = fmt.Errorf("field %s: must satisfy %s=%s, got %v: %w", fe.Field(), fe.Tag(), fe.Param(), fe.Value(), domain.ErrInvalidConfig)
	}
	return &domain.OpError{
		Op:   "yamlconditions.validate",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  err,
	}
}
