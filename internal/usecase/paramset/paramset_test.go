package paramset

import (
	"math"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/deshima-dev/desim/internal/domain"
)

func TestSetGet(t *testing.T) {
	p := domain.DefaultParams()

	if err := Set(&p, "pwv", 1.5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.PWV != 1.5 {
		t.Fatalf("expected pwv=1.5, got %v", p.PWV)
	}

	if err := Set(&p, "F_GHz", 220); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.F != 220e9 {
		t.Fatalf("expected F=220e9, got %v", p.F)
	}
	got, err := Get(p, "F_GHz")
	if err != nil || math.Abs(got-220) > 1e-9 {
		t.Fatalf("Get F_GHz = %v (%v)", got, err)
	}

	if err := Set(&p, "theta_maj_arcsec", 30); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if math.Abs(domain.RadToArcsec(p.ThetaMaj)-30) > 1e-9 {
		t.Fatalf("expected 30 arcsec, got %v rad", p.ThetaMaj)
	}
}

func TestSetFlagsAndEtaAtm(t *testing.T) {
	p := domain.DefaultParams()

	if err := Set(&p, "window_AR", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.WindowAR {
		t.Fatalf("expected window_AR=false")
	}

	if err := Set(&p, "eta_atm", 0.7); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.EtaAtm == nil || *p.EtaAtm != 0.7 {
		t.Fatalf("expected eta_atm=0.7")
	}
	if err := Set(&p, "eta_atm", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if p.EtaAtm != nil {
		t.Fatalf("expected eta_atm cleared")
	}
}

func TestSetUnknownSuggests(t *testing.T) {
	p := domain.DefaultParams()
	err := Set(&p, "PWV", 1)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config, got %v", err)
	}
	if !strings.Contains(err.Error(), "did you mean pwv") {
		t.Fatalf("expected suggestion, got %v", err)
	}
}

func TestParseAssignment(t *testing.T) {
	cases := []struct {
		in      string
		name    string
		value   float64
		wantErr bool
	}{
		{"pwv=0.8", "pwv", 0.8, false},
		{" F = 3.5e11 ", "F", 3.5e11, false},
		{"on_off=false", "on_off", 0, false},
		{"window_AR=true", "window_AR", 1, false},
		{"on_off=maybe", "", 0, true},
		{"pwv=", "", 0, true},
		{"pwv", "", 0, true},
		{"nope=1", "", 0, true},
		{"pwv=NaN", "", 0, true},
	}
	for _, c := range cases {
		name, v, err := ParseAssignment(c.in)
		if c.wantErr {
			if err == nil {
				t.Errorf("ParseAssignment(%q): expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseAssignment(%q): %v", c.in, err)
			continue
		}
		if name != c.name || v != c.value {
			t.Errorf("ParseAssignment(%q) = %s=%v, want %s=%v", c.in, name, v, c.name, c.value)
		}
	}
}

func TestParseSweep(t *testing.T) {
	approx := cmpopts.EquateApprox(0, 1e-9)

	cases := []struct {
		in   string
		want domain.Sweep
	}{
		{"pwv=0.5,1,2", domain.Sweep{Param: "pwv", Values: []float64{0.5, 1, 2}}},
		{"EL=30:90:4", domain.Sweep{Param: "EL", Values: []float64{30, 50, 70, 90}}},
		{"F_GHz=100:1000:3:log", domain.Sweep{Param: "F_GHz", Values: []float64{100, math.Sqrt(100 * 1000), 1000}}},
		{"R=500", domain.Sweep{Param: "R", Values: []float64{500}}},
		{"R=300:600:1", domain.Sweep{Param: "R", Values: []float64{300}}},
	}
	for _, c := range cases {
		got, err := ParseSweep(c.in)
		if err != nil {
			t.Errorf("ParseSweep(%q): %v", c.in, err)
			continue
		}
		if diff := cmp.Diff(c.want, got, approx); diff != "" {
			t.Errorf("ParseSweep(%q) mismatch (-want +got):\n%s", c.in, diff)
		}
	}
}

func TestParseSweepErrors(t *testing.T) {
	for _, in := range []string{
		"pwv",
		"nope=1,2",
		"pwv=1:2",
		"pwv=1:2:0",
		"pwv=1:2:x",
		"pwv=0:2:3:log",
		"pwv=1:2:3:cubic",
		"pwv=1,b",
	} {
		if _, err := ParseSweep(in); err == nil {
			t.Errorf("ParseSweep(%q): expected error", in)
		}
	}
}

func TestChannels(t *testing.T) {
	got, err := Channels(220e9, 440e9, 500)
	if err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if len(got) != 347 {
		t.Fatalf("expected 347 channels, got %d", len(got))
	}
	if got[0] != 220e9 {
		t.Fatalf("expected first channel at f_min, got %v", got[0])
	}
	if got[len(got)-1] > 440e9 {
		t.Fatalf("last channel above f_max: %v", got[len(got)-1])
	}
	ratio := got[1] / got[0]
	if math.Abs(ratio-1.002) > 1e-12 {
		t.Fatalf("expected spacing 1+1/R, got %v", ratio)
	}
}

func TestChannelsErrors(t *testing.T) {
	for _, c := range []struct{ fmin, fmax, r float64 }{
		{0, 440e9, 500},
		{440e9, 220e9, 500},
		{220e9, 440e9, 0},
		{1, 1e12, 1e6},
	} {
		if _, err := Channels(c.fmin, c.fmax, c.r); err == nil {
			t.Errorf("Channels(%v, %v, %v): expected error", c.fmin, c.fmax, c.r)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate(domain.DefaultParams()); err != nil {
		t.Fatalf("default params should be valid: %v", err)
	}

	p := domain.DefaultParams()
	p.EtaCO = 1.3
	err := Validate(p)
	if err == nil {
		t.Fatalf("expected error for eta_co > 1")
	}
	if !domain.IsKind(err, domain.KindInvalidConfig) {
		t.Fatalf("expected invalid config kind, got %v", err)
	}
	if !strings.Contains(err.Error(), "eta_co") {
		t.Fatalf("expected parameter name in error, got %v", err)
	}

	p = domain.DefaultParams()
	bad := 1.5
	p.EtaAtm = &bad
	if err := Validate(p); err == nil || !strings.Contains(err.Error(), "eta_atm") {
		t.Fatalf("expected eta_atm violation, got %v", err)
	}

	p = domain.DefaultParams()
	p.Window.NEff = 0.5
	if err := Validate(p); err == nil || !strings.Contains(err.Error(), "n_eff") {
		t.Fatalf("expected window n_eff violation, got %v", err)
	}
}

func TestNamesSortedAndUnits(t *testing.T) {
	names := Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted at %d: %s > %s", i, names[i-1], names[i])
		}
	}
	if u, ok := Unit("F_GHz"); !ok || u != "GHz" {
		t.Fatalf("expected GHz unit, got %q", u)
	}
	if !IsFlag("on_off") || IsFlag("pwv") {
		t.Fatalf("flag detection wrong")
	}
}
