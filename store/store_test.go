package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/chazu/liveprog/wire"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "sub", "presets.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleSnapshot() *wire.Snapshot {
	return &wire.Snapshot{
		Program: "bass",
		Taken:   1700000000123,
		Variables: []wire.Variable{
			{Name: "gain", Number: 3.5},
			{Name: "label", IsString: true, Str: "Preset A"},
		},
	}
}

func TestSaveLoad(t *testing.T) {
	s := openTemp(t)
	want := sampleSnapshot()

	if err := s.Save("warm", want); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load("warm")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
}

func TestSaveReplaces(t *testing.T) {
	s := openTemp(t)
	s.Save("p", sampleSnapshot())

	next := sampleSnapshot()
	next.Variables[0].Number = 9
	if err := s.Save("p", next); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, _ := s.Load("p")
	if got.Variables[0].Number != 9 {
		t.Errorf("gain = %v, want 9", got.Variables[0].Number)
	}
	infos, _ := s.List()
	if len(infos) != 1 {
		t.Errorf("List() has %d entries, want 1", len(infos))
	}
}

func TestSaveRequiresName(t *testing.T) {
	s := openTemp(t)
	if err := s.Save("", sampleSnapshot()); err == nil {
		t.Error("Save accepted an empty name")
	}
}

func TestLoadMissing(t *testing.T) {
	s := openTemp(t)
	if _, err := s.Load("nope"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("error = %v, want ErrPresetNotFound", err)
	}
}

func TestList(t *testing.T) {
	s := openTemp(t)

	infos, err := s.List()
	if err != nil || infos == nil || len(infos) != 0 {
		t.Fatalf("List on empty store = (%v, %v)", infos, err)
	}

	s.Save("b", sampleSnapshot())
	s.Save("a", &wire.Snapshot{Program: "other", Taken: 5})

	infos, err = s.List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(infos) != 2 || infos[0].Name != "a" || infos[1].Name != "b" {
		t.Fatalf("List = %+v", infos)
	}
	if infos[1].Program != "bass" || infos[1].Variables != 2 || infos[1].Saved.UnixMilli() != 1700000000123 {
		t.Errorf("info = %+v", infos[1])
	}
}

func TestDelete(t *testing.T) {
	s := openTemp(t)
	s.Save("p", sampleSnapshot())

	if err := s.Delete("p"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Load("p"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("Load after Delete: %v", err)
	}
	if err := s.Delete("p"); !errors.Is(err, ErrPresetNotFound) {
		t.Errorf("second Delete: %v", err)
	}
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.db")
	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	s.Save("keep", sampleSnapshot())
	s.Close()

	s, err = Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if _, err := s.Load("keep"); err != nil {
		t.Errorf("preset lost across reopen: %v", err)
	}
}

func TestInMemory(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if err := s.Save("m", sampleSnapshot()); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Load("m"); err != nil {
		t.Errorf("Load: %v", err)
	}
}
