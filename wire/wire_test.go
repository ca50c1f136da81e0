package wire

import (
	"bytes"
	"testing"
)

func TestSnapshot_CBORRoundTrip(t *testing.T) {
	s := &Snapshot{
		Program: "bass-boost.eel",
		Taken:   1700000000000,
		Variables: []Variable{
			{Name: "gain", Number: 3.5},
			{Name: "label", IsString: true, Str: "Preset A"},
		},
	}

	data, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}

	got, err := UnmarshalSnapshot(data)
	if err != nil {
		t.Fatalf("UnmarshalSnapshot: %v", err)
	}

	if got.Program != s.Program || got.Taken != s.Taken {
		t.Errorf("header = (%q, %d), want (%q, %d)", got.Program, got.Taken, s.Program, s.Taken)
	}
	if len(got.Variables) != 2 {
		t.Fatalf("len(Variables) = %d, want 2", len(got.Variables))
	}
	if got.Variables[0].Number != 3.5 || got.Variables[0].IsString {
		t.Errorf("gain = %+v", got.Variables[0])
	}
	if got.Variables[1].Str != "Preset A" || !got.Variables[1].IsString {
		t.Errorf("label = %+v", got.Variables[1])
	}
}

func TestSnapshot_CanonicalEncoding(t *testing.T) {
	s := &Snapshot{Program: "p", Variables: []Variable{{Name: "a", Number: 1}}}

	a, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	b, err := MarshalSnapshot(s)
	if err != nil {
		t.Fatalf("MarshalSnapshot: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Error("equal snapshots encoded differently")
	}
}

func TestUnmarshalSnapshot_Garbage(t *testing.T) {
	if _, err := UnmarshalSnapshot([]byte{0xff, 0x00, 0x13}); err == nil {
		t.Error("expected error for garbage input")
	}
}

func TestCodec_Name(t *testing.T) {
	if got := (Codec{}).Name(); got != "cbor" {
		t.Errorf("Name() = %q, want %q", got, "cbor")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	type msg struct {
		Name  string  `cbor:"1,keyasint"`
		Value float32 `cbor:"2,keyasint"`
	}

	c := Codec{}
	data, err := c.Marshal(&msg{Name: "gain", Value: 7})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var got msg
	if err := c.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Name != "gain" || got.Value != 7 {
		t.Errorf("got %+v", got)
	}
}
