// Package server exposes a running liveprog engine over Connect and LSP.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"connectrpc.com/connect"
	"github.com/tliron/commonlog"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
	"github.com/chazu/liveprog/liveprog"
	"github.com/chazu/liveprog/store"
	"github.com/chazu/liveprog/vm"
	"github.com/chazu/liveprog/wire"
)

var log = commonlog.GetLogger("liveprog.server")

// LiveprogServer serves the variable, engine, preset and parameter
// services of one engine on a single port. Messages are CBOR over the Connect protocol.
type LiveprogServer struct {
	worker *Worker
	mux    *http.ServeMux
	http   *http.Server
}

// ServerOption configures a LiveprogServer.
type ServerOption func(*serverConfig)

type serverConfig struct {
	presets    *store.Store
	consistent bool
	script     *liveprog.Script
	scriptPath string
}

// WithPresets enables the preset service backed by st. Without it the
// preset procedures are not registered.
func WithPresets(st *store.Store) ServerOption {
	return func(c *serverConfig) { c.presets = st }
}

// WithScript enables the parameter service over the script the engine was
// seeded from. Edits are saved to path unless it is empty. Without it the
// parameter procedures are not registered.
func WithScript(script *liveprog.Script, path string) ServerOption {
	return func(c *serverConfig) { c.script, c.scriptPath = script, path }
}

// WithConsistentSnapshots freezes execution while variables are
// enumerated or saved to a preset.
func WithConsistentSnapshots(on bool) ServerOption {
	return func(c *serverConfig) { c.consistent = on }
}

// New creates a LiveprogServer controlling the given engine.
func New(e *vm.Engine, opts ...ServerOption) *LiveprogServer {
	cfg := &serverConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	s := &LiveprogServer{
		worker: NewWorker(e),
		mux:    http.NewServeMux(),
	}
	s.http = &http.Server{Handler: s.mux, ReadHeaderTimeout: 10 * time.Second}

	handlerOpts := []connect.HandlerOption{connect.WithCodec(wire.Codec{})}

	varSvc := NewVariableService(s.worker, cfg.consistent)
	handle(s.mux, liveprogv1.VariableServiceEnumerateProcedure, varSvc.Enumerate, handlerOpts)
	handle(s.mux, liveprogv1.VariableServiceLookupProcedure, varSvc.Lookup, handlerOpts)
	handle(s.mux, liveprogv1.VariableServiceSetProcedure, varSvc.Set, handlerOpts)

	engineSvc := NewEngineService(s.worker)
	handle(s.mux, liveprogv1.EngineServiceStatusProcedure, engineSvc.Status, handlerOpts)
	handle(s.mux, liveprogv1.EngineServiceFreezeProcedure, engineSvc.Freeze, handlerOpts)
	handle(s.mux, liveprogv1.EngineServiceResumeProcedure, engineSvc.Resume, handlerOpts)

	if cfg.presets != nil {
		presetSvc := NewPresetService(s.worker, cfg.presets, cfg.consistent)
		handle(s.mux, liveprogv1.PresetServiceSaveProcedure, presetSvc.Save, handlerOpts)
		handle(s.mux, liveprogv1.PresetServiceRestoreProcedure, presetSvc.Restore, handlerOpts)
		handle(s.mux, liveprogv1.PresetServiceListProcedure, presetSvc.List, handlerOpts)
		handle(s.mux, liveprogv1.PresetServiceDeleteProcedure, presetSvc.Delete, handlerOpts)
	}

	if cfg.script != nil {
		paramSvc := NewParamService(s.worker, cfg.script, cfg.scriptPath)
		handle(s.mux, liveprogv1.ParamServiceListProcedure, paramSvc.List, handlerOpts)
		handle(s.mux, liveprogv1.ParamServiceSetProcedure, paramSvc.Set, handlerOpts)
		handle(s.mux, liveprogv1.ParamServiceRestoreDefaultsProcedure, paramSvc.RestoreDefaults, handlerOpts)
	}

	return s
}

func handle[Req, Res any](
	mux *http.ServeMux,
	procedure string,
	fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error),
	opts []connect.HandlerOption,
) {
	mux.Handle(procedure, connect.NewUnaryHandler(procedure, fn, opts...))
}

// Handler returns the HTTP handler serving every registered procedure.
func (s *LiveprogServer) Handler() http.Handler {
	return s.mux
}

// Worker returns the worker shared by the services, for the LSP server.
func (s *LiveprogServer) Worker() *Worker {
	return s.worker
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *LiveprogServer) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Stop is called.
func (s *LiveprogServer) Serve(ln net.Listener) error {
	log.Infof("liveprog server listening on %s", ln.Addr())
	log.Infof("  Connect (CBOR): http://%s%s", ln.Addr(), liveprogv1.VariableServiceEnumerateProcedure)
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts down the server.
func (s *LiveprogServer) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		log.Errorf("shutdown: %v", err)
	}
	s.worker.Stop()
}
