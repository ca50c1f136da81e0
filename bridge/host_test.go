package bridge

import (
	"reflect"
	"testing"

	"github.com/chazu/liveprog/vm"
)

func TestHost_Scenario(t *testing.T) {
	h := NewHost(New(loadedEngine(t, presetProgram(t))))

	if !h.IsAvailable() {
		t.Fatal("IsAvailable() = false with a loaded program")
	}

	want := []Entry{
		{Name: "gain", Value: "3.5", IsString: false},
		{Name: "label", Value: "Preset A", IsString: true},
	}
	if got := h.EnumerateVariables(); !reflect.DeepEqual(got, want) {
		t.Errorf("EnumerateVariables() = %+v, want %+v", got, want)
	}

	if !h.SetVariable("gain", 7.0) {
		t.Error(`SetVariable("gain", 7) = false`)
	}
	want[0].Value = "7"
	if got := h.EnumerateVariables(); !reflect.DeepEqual(got, want) {
		t.Errorf("after set: %+v, want %+v", got, want)
	}

	if h.SetVariable("label", 1.0) {
		t.Error(`SetVariable("label", 1) = true`)
	}
	if got := h.EnumerateVariables(); !reflect.DeepEqual(got, want) {
		t.Errorf("label changed: %+v", got)
	}
}

func TestHost_SetVariableMissing(t *testing.T) {
	h := NewHost(New(loadedEngine(t, presetProgram(t))))
	if h.SetVariable("nope", 1) {
		t.Error("SetVariable on missing name = true")
	}
}

func TestHost_NotAvailable(t *testing.T) {
	h := NewHost(New(vm.NewEngine()))

	if h.IsAvailable() {
		t.Error("IsAvailable() = true without a program")
	}
	if got := h.EnumerateVariables(); got == nil || len(got) != 0 {
		t.Errorf("EnumerateVariables() = %#v, want empty", got)
	}
	if h.SetVariable("gain", 1) {
		t.Error("SetVariable succeeded without a program")
	}
}
