package server

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"connectrpc.com/connect"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
	"github.com/chazu/liveprog/store"
	"github.com/chazu/liveprog/vm"
)

// ---------------------------------------------------------------------------
// Shared test infrastructure for server package tests.
//
// Every test gets its own engine so mutations never leak between tests.
// ---------------------------------------------------------------------------

// newTestEngine returns an engine running the gain/label program.
func newTestEngine(t *testing.T) *vm.Engine {
	t.Helper()
	p := vm.NewProgram("preset.eel")
	if _, err := p.DefineNumber("gain", 3.5); err != nil {
		t.Fatal(err)
	}
	if _, err := p.DefineString("label", "Preset A"); err != nil {
		t.Fatal(err)
	}
	e := vm.NewEngine()
	e.Load(p)
	return e
}

// newTestWorker creates a worker over a fresh engine, stopped at cleanup.
func newTestWorker(t *testing.T) *Worker {
	t.Helper()
	w := NewWorker(newTestEngine(t))
	t.Cleanup(w.Stop)
	return w
}

// newTestPresets opens a preset store in a temp dir.
func newTestPresets(t *testing.T) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "presets.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

// newTestClient serves srv over httptest and returns a client for it.
func newTestClient(t *testing.T, srv *LiveprogServer) *liveprogv1.Client {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	t.Cleanup(srv.worker.Stop)
	return liveprogv1.NewClient(ts.Client(), ts.URL)
}

// connectReq wraps a message in a connect.Request.
func connectReq[T any](msg *T) *connect.Request[T] {
	return connect.NewRequest(msg)
}

// bg returns a background context.
func bg() context.Context {
	return context.Background()
}

// assertCode fails unless err carries the given Connect code.
func assertCode(t *testing.T, err error, want connect.Code) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", want)
	}
	if got := connect.CodeOf(err); got != want {
		t.Errorf("code = %v, want %v (err: %v)", got, want, err)
	}
}
