package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/deshima-dev/desim/internal/domain"
)

func TestValidateInstrument_OK(t *testing.T) {
	inst := testInstrument()
	inst.Band = domain.Band{FMinHz: 220e9, FMaxHz: 440e9}
	inst.Checks = []domain.CheckSpec{{Column: "MDLF", Max: ptr(1e-18)}}

	uc := NewValidateInstrument(fakeInstrumentLoader{inst: inst}, &fakeConditionsLoader{cond: domain.DefaultConditions()},
		WithAtmosphereProbe(rangeAtm{lo: 100e9, hi: 500e9, eta: 0.9}),
	)
	if err := uc.Execute(context.Background(), "x.yaml", "aste", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInstrument_ReportsEveryProblem(t *testing.T) {
	inst := testInstrument()
	inst.Params.EtaMB = 1.5
	inst.Checks = []domain.CheckSpec{
		{Column: "NOPE", Max: ptr(1)},
		{Column: "MDLF"},
		{Column: "eta_inst", Min: ptr(0.5), Max: ptr(0.1)},
	}

	uc := NewValidateInstrument(fakeInstrumentLoader{inst: inst}, &fakeConditionsLoader{cond: domain.DefaultConditions()})
	err := uc.Execute(context.Background(), "x.yaml", "aste", nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid_config, got %v", err)
	}
	msg := err.Error()
	for _, want := range []string{"eta_mb", `"NOPE"`, "needs min or max", "min is above max"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected %q in %q", want, msg)
		}
	}
}

func TestValidateInstrument_BandOutsideAtmosphere(t *testing.T) {
	inst := testInstrument()
	inst.Band = domain.Band{FMinHz: 220e9, FMaxHz: 440e9}

	uc := NewValidateInstrument(fakeInstrumentLoader{inst: inst}, &fakeConditionsLoader{cond: domain.DefaultConditions()},
		WithAtmosphereProbe(rangeAtm{lo: 300e9, hi: 500e9, eta: 0.9}),
	)
	err := uc.Execute(context.Background(), "x.yaml", "aste", nil)
	if err == nil || !strings.Contains(err.Error(), "220 GHz") {
		t.Fatalf("expected atmosphere coverage error, got %v", err)
	}
}

func TestValidateInstrument_PinnedSkipsAtmosphere(t *testing.T) {
	inst := testInstrument()
	inst.Band = domain.Band{FMinHz: 220e9, FMaxHz: 440e9}

	uc := NewValidateInstrument(fakeInstrumentLoader{inst: inst}, &fakeConditionsLoader{cond: pinnedConditions(0.9)},
		WithAtmosphereProbe(rangeAtm{lo: 300e9, hi: 500e9, eta: 0.9}),
	)
	if err := uc.Execute(context.Background(), "x.yaml", "aste", nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateInstrument_OverrideApplied(t *testing.T) {
	uc := NewValidateInstrument(fakeInstrumentLoader{inst: testInstrument()}, &fakeConditionsLoader{cond: pinnedConditions(0.9)})
	err := uc.Execute(context.Background(), "x.yaml", "aste", []string{"R=-1"})
	if err == nil || !strings.Contains(err.Error(), "R") {
		t.Fatalf("expected R error, got %v", err)
	}
}
