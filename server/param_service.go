package server

import (
	"context"
	"fmt"
	"os"

	"connectrpc.com/connect"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
	"github.com/chazu/liveprog/liveprog"
)

// sections are the script sections reported by ListParams.
var sections = []string{"@init", "@slider", "@block", "@sample", "@serialize", "@gfx"}

// ParamService implements the ParamService Connect handler. It edits the
// parameters of the script the engine was seeded from: each change is
// written into the script source, saved to disk and pushed into the
// running program.
//
// The script is only touched from the worker goroutine.
type ParamService struct {
	worker *Worker
	script *liveprog.Script
	path   string
}

// NewParamService creates a ParamService over script. With path empty the
// source is edited in memory only.
func NewParamService(worker *Worker, script *liveprog.Script, path string) *ParamService {
	return &ParamService{worker: worker, script: script, path: path}
}

// List returns the script's header and parameters.
func (s *ParamService) List(
	ctx context.Context,
	req *connect.Request[liveprogv1.ListParamsRequest],
) (*connect.Response[liveprogv1.ListParamsResponse], error) {
	result, err := s.worker.Do(func(t *Target) (any, error) {
		sc := s.script
		resp := &liveprogv1.ListParamsResponse{
			Script:             sc.Name,
			Description:        sc.Description,
			Tags:               sc.Tags,
			Params:             toParams(sc.Params),
			CanRestoreDefaults: sc.CanRestoreDefaults(),
		}
		for _, name := range sections {
			if line := sc.AnnotationLine(name); line > 0 {
				if resp.Sections == nil {
					resp.Sections = make(map[string]int)
				}
				resp.Sections[name] = line
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(result.(*liveprogv1.ListParamsResponse)), nil
}

// Set clamps a new value into the parameter's range, writes it into the
// script and pushes it into the running program. A failed push does not
// undo the edit; it is reported in the response.
func (s *ParamService) Set(
	ctx context.Context,
	req *connect.Request[liveprogv1.SetParamRequest],
) (*connect.Response[liveprogv1.SetParamResponse], error) {
	key := req.Msg.Key
	if key == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("key is required"))
	}

	result, err := s.worker.Do(func(t *Target) (any, error) {
		cur := s.script.Param(key)
		if cur == nil {
			return nil, fmt.Errorf("%s: %w", key, liveprog.ErrUnknownParam)
		}

		// Edit a copy so a failed write leaves the script as it was.
		p := *cur
		p.Set(req.Msg.Value)
		if _, err := s.script.Apply(&p); err != nil {
			return nil, err
		}
		if err := s.save(); err != nil {
			return nil, err
		}

		resp := &liveprogv1.SetParamResponse{Param: toParam(&p), Pushed: true}
		if err := t.Access.Mutate(p.Key, p.Value); err != nil {
			log.Warningf("parameter %q saved but not pushed: %v", p.Key, err)
			resp.Pushed, resp.PushError = false, err.Error()
		}
		return resp, nil
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(result.(*liveprogv1.SetParamResponse)), nil
}

// RestoreDefaults resets every parameter that declares a default, saves
// the script and pushes all parameter values into the running program.
func (s *ParamService) RestoreDefaults(
	ctx context.Context,
	req *connect.Request[liveprogv1.RestoreDefaultsRequest],
) (*connect.Response[liveprogv1.RestoreDefaultsResponse], error) {
	result, err := s.worker.Do(func(t *Target) (any, error) {
		if err := s.script.RestoreDefaults(); err != nil {
			return nil, err
		}
		if err := s.save(); err != nil {
			return nil, err
		}

		resp := &liveprogv1.RestoreDefaultsResponse{Params: toParams(s.script.Params)}
		for _, e := range unwrapJoined(s.script.Push(t.Access)) {
			resp.Failed = append(resp.Failed, e.Error())
		}
		return resp, nil
	})
	if err != nil {
		return nil, connectError(err)
	}

	resp := result.(*liveprogv1.RestoreDefaultsResponse)
	log.Infof("restored defaults: %d parameters, %d not pushed", len(resp.Params), len(resp.Failed))
	return connect.NewResponse(resp), nil
}

func (s *ParamService) save() error {
	if s.path == "" {
		return nil
	}
	if err := os.WriteFile(s.path, []byte(s.script.Source), 0644); err != nil {
		return fmt.Errorf("save script: %w", err)
	}
	return nil
}

func toParams(ps []*liveprog.Param) []liveprogv1.Param {
	out := make([]liveprogv1.Param, len(ps))
	for i, p := range ps {
		out[i] = toParam(p)
	}
	return out
}

func toParam(p *liveprog.Param) liveprogv1.Param {
	out := liveprogv1.Param{
		Key:         p.Key,
		Description: p.Description,
		Value:       p.Value,
		Text:        p.ValueString(),
		Min:         p.Min,
		Max:         p.Max,
		Step:        p.Step,
		AtDefault:   p.IsDefault(),
		Options:     p.Options,
		Line:        p.Line(),
	}
	out.Default, out.HasDefault = p.Default()
	if opt, ok := p.Option(); ok {
		out.Option = opt
	}
	return out
}
