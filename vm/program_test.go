package vm

import "testing"

func TestProgram_DefineNumberAndString(t *testing.T) {
	p := NewProgram("demo")

	gain, err := p.DefineNumber("gain", 3.5)
	if err != nil {
		t.Fatalf("DefineNumber: %v", err)
	}
	label, err := p.DefineString("label", "Preset A")
	if err != nil {
		t.Fatalf("DefineString: %v", err)
	}

	raw, _ := p.Vars.Get(gain)
	if got := p.Resolver().Classify(raw); got != Number(3.5) {
		t.Errorf("gain = %+v", got)
	}
	raw, _ = p.Vars.Get(label)
	if got := p.Resolver().Classify(raw); got != Str("Preset A") {
		t.Errorf("label = %+v", got)
	}
}

func TestProgram_DefineEmptyName(t *testing.T) {
	p := NewProgram("demo")
	if _, err := p.DefineNumber("", 1); err == nil {
		t.Error("DefineNumber accepted an empty name")
	}
	if _, err := p.DefineString("", "x"); err == nil {
		t.Error("DefineString accepted an empty name")
	}
	if p.Strings.Len() != 0 {
		t.Error("failed DefineString interned its literal")
	}
}
