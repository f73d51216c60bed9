package yamlinstrument

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
	instrumentsDir string
}

func NewLoader(opts ...Option) *Loader {
	l := &Loader{instrumentsDir: "instruments"}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

type Option func(*Loader)

func WithInstrumentsDir(dir string) Option {
	return func(l *Loader) { l.instrumentsDir = dir }
}

var _ ports.InstrumentLoader = (*Loader)(nil)

func (l *Loader) LoadInstrument(path string) (domain.Instrument, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return domain.Instrument{}, &domain.OpError{
			Op:   "yamlinstrument.load",
			Kind: domain.KindNotFound,
			Path: path,
			Err:  err,
		}
	}

	var yi yamlInstrument
	if err := yaml.Unmarshal(b, &yi); err != nil {
		return domain.Instrument{}, &domain.OpError{
			Op:   "yamlinstrument.load",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	return mapAndValidate(path, yi)
}

func (l *Loader) ListInstruments(root string) ([]domain.InstrumentRef, error) {
	dir := filepath.Join(root, l.instrumentsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &domain.OpError{
			Op:   "yamlinstrument.list",
			Kind: domain.KindNotFound,
			Path: dir,
			Err:  err,
		}
	}

	var refs []domain.InstrumentRef
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}

		p := filepath.Join(dir, name)
		n, _ := readName(p)
		if strings.TrimSpace(n) == "" {
			n = strings.TrimSuffix(name, filepath.Ext(name))
		}

		refs = append(refs, domain.InstrumentRef{Name: n, Path: p})
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
	return refs, nil
}

// Resolve turns an instrument name into its file path under root. Paths
// and names ending in .yaml/.yml are returned unchanged.
func (l *Loader) Resolve(root, nameOrPath string) string {
	if strings.HasSuffix(nameOrPath, ".yaml") || strings.HasSuffix(nameOrPath, ".yml") || strings.ContainsRune(nameOrPath, filepath.Separator) {
		return filepath.Clean(nameOrPath)
	}
	return filepath.Join(root, l.instrumentsDir, nameOrPath+".yaml")
}

func readName(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	var v struct {
		Name string `yaml:"name"`
	}
	if err := yaml.Unmarshal(b, &v); err != nil {
		return "", err
	}
	return v.Name, nil
}

type yamlInstrument struct {
	Name        string      `yaml:"name" json:"name" validate:"required"`
	Description string      `yaml:"description" json:"description"`
	Band        *yamlBand   `yaml:"band" json:"band"`
	Params      yaml.Node   `yaml:"params" json:"-" validate:"-"`
	Checks      []yamlCheck `yaml:"checks" json:"checks" validate:"dive"`
}

type yamlBand struct {
	FMinGHz float64 `yaml:"f_min_ghz" json:"f_min_ghz" validate:"gt=0"`
	FMaxGHz float64 `yaml:"f_max_ghz" json:"f_max_ghz" validate:"gtfield=FMinGHz"`
}

type yamlCheck struct {
	Column string   `yaml:"column" json:"column" validate:"required"`
	Min    *float64 `yaml:"min" json:"min" validate:"required_without=Max"`
	Max    *float64 `yaml:"max" json:"max" validate:"required_without=Min"`
}

func mapAndValidate(path string, yi yamlInstrument) (domain.Instrument, error) {
	if err := paramset.Struct(yi); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return domain.Instrument{}, invalidField(path, fieldPath(fe), fmt.Sprintf("failed %s", fe.Tag()))
		}
		return domain.Instrument{}, invalidField(path, "instrument", err.Error())
	}

	inst := domain.Instrument{
		Name:        yi.Name,
		Description: strings.TrimSpace(yi.Description),
		Params:      domain.DefaultParams(),
	}
	if yi.Band != nil {
		inst.Band = domain.Band{FMinHz: yi.Band.FMinGHz * 1e9, FMaxHz: yi.Band.FMaxGHz * 1e9}
	}

	if err := applyParams(&inst.Params, &yi.Params); err != nil {
		return domain.Instrument{}, &domain.OpError{
			Op:   "yamlinstrument.validate",
			Kind: domain.KindInvalidConfig,
			Path: path,
			Err:  err,
		}
	}

	for _, c := range yi.Checks {
		inst.Checks = append(inst.Checks, domain.CheckSpec{Column: c.Column, Min: c.Min, Max: c.Max})
	}
	return inst, nil
}

// applyParams sets every "name: value" pair of the params mapping, in
// document order, so aliases such as F_GHz behave like --set.
func applyParams(p *domain.Params, node *yaml.Node) error {
	if node.Kind == 0 {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("params: expected a mapping (line %d)", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Kind != yaml.ScalarNode {
			return fmt.Errorf("params.%s: expected a scalar (line %d)", k.Value, v.Line)
		}
		name, val, err := paramset.ParseAssignment(k.Value + "=" + v.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", k.Line, err)
		}
		if err := paramset.Set(p, name, val); err != nil {
			return err
		}
	}
	return nil
}

func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func invalidField(path, field, msg string) error {
	return &domain.OpError{
		Op:   "yamlinstrument.validate",
		Kind: domain.KindInvalidConfig,
		Path: path,
		Err:  fmt.Errorf("field %s: %s: %w", field, msg, domain.ErrInvalidConfig),
	}
}
