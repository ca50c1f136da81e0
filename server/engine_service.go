package server

import (
	"context"

	"connectrpc.com/connect"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
)

// EngineService implements the EngineService Connect handler.
type EngineService struct {
	worker *Worker
}

// NewEngineService creates an EngineService.
func NewEngineService(worker *Worker) *EngineService {
	return &EngineService{worker: worker}
}

// Status reports whether a program is loaded and whether it is running.
func (s *EngineService) Status(
	ctx context.Context,
	req *connect.Request[liveprogv1.StatusRequest],
) (*connect.Response[liveprogv1.StatusResponse], error) {
	e := s.worker.Engine()
	resp := &liveprogv1.StatusResponse{
		Frozen: e.Frozen(),
		Cycles: e.Cycles(),
	}
	if p := e.Program(); p != nil {
		resp.Available = true
		resp.Program = p.ID
		resp.Variables = p.Vars.Len()
		resp.Strings = p.Strings.Len()
	}
	return connect.NewResponse(resp), nil
}

// Freeze suspends execution after the buffer in progress.
func (s *EngineService) Freeze(
	ctx context.Context,
	req *connect.Request[liveprogv1.FreezeRequest],
) (*connect.Response[liveprogv1.FreezeResponse], error) {
	was, err := s.worker.Do(func(t *Target) (any, error) {
		was := t.Engine.Frozen()
		t.Engine.Freeze()
		return was, nil
	})
	if err != nil {
		return nil, connectError(err)
	}
	log.Info("execution frozen")
	return connect.NewResponse(&liveprogv1.FreezeResponse{WasFrozen: was.(bool)}), nil
}

// Resume restarts execution.
func (s *EngineService) Resume(
	ctx context.Context,
	req *connect.Request[liveprogv1.ResumeRequest],
) (*connect.Response[liveprogv1.ResumeResponse], error) {
	was, err := s.worker.Do(func(t *Target) (any, error) {
		was := t.Engine.Frozen()
		t.Engine.Resume()
		return was, nil
	})
	if err != nil {
		return nil, connectError(err)
	}
	log.Info("execution resumed")
	return connect.NewResponse(&liveprogv1.ResumeResponse{WasFrozen: was.(bool)}), nil
}
