package server

import (
	"context"
	"fmt"

	"connectrpc.com/connect"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
	"github.com/chazu/liveprog/bridge"
	"github.com/chazu/liveprog/vm"
)

// VariableService implements the VariableService Connect handler.
type VariableService struct {
	worker     *Worker
	consistent bool
}

// NewVariableService creates a VariableService. With consistent set,
// Enumerate freezes execution while it reads the table.
func NewVariableService(worker *Worker, consistent bool) *VariableService {
	return &VariableService{worker: worker, consistent: consistent}
}

// Enumerate returns every variable of the loaded program.
func (s *VariableService) Enumerate(
	ctx context.Context,
	req *connect.Request[liveprogv1.EnumerateRequest],
) (*connect.Response[liveprogv1.EnumerateResponse], error) {
	var vars []bridge.Variable
	var program string
	read := func(a *bridge.Access) error {
		var err error
		program, vars, err = a.EnumerateProgram()
		return err
	}

	var err error
	if s.consistent {
		_, err = s.worker.Do(func(t *Target) (any, error) {
			return nil, t.Access.Consistent(func() error { return read(t.Access) })
		})
	} else {
		err = read(s.worker.Access())
	}
	if err != nil {
		return nil, connectError(err)
	}

	resp := &liveprogv1.EnumerateResponse{
		Program:   program,
		Variables: make([]liveprogv1.Variable, len(vars)),
	}
	for i, v := range vars {
		resp.Variables[i] = toVariable(v.Name, v.Value)
	}
	return connect.NewResponse(resp), nil
}

// Lookup returns one variable by name.
func (s *VariableService) Lookup(
	ctx context.Context,
	req *connect.Request[liveprogv1.LookupRequest],
) (*connect.Response[liveprogv1.LookupResponse], error) {
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	val, err := s.worker.Access().Lookup(req.Msg.Name)
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&liveprogv1.LookupResponse{
		Variable: toVariable(req.Msg.Name, val),
	}), nil
}

// Set writes a numeric variable and returns its previous and new values.
func (s *VariableService) Set(
	ctx context.Context,
	req *connect.Request[liveprogv1.SetRequest],
) (*connect.Response[liveprogv1.SetResponse], error) {
	name := req.Msg.Name
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	result, err := s.worker.Do(func(t *Target) (any, error) {
		prev, err := t.Access.Lookup(name)
		if err != nil {
			return nil, err
		}
		if err := t.Access.Mutate(name, req.Msg.Value); err != nil {
			return nil, err
		}
		cur, err := t.Access.Lookup(name)
		if err != nil {
			return nil, err
		}
		return &liveprogv1.SetResponse{
			Previous: toVariable(name, prev),
			Variable: toVariable(name, cur),
		}, nil
	})
	if err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(result.(*liveprogv1.SetResponse)), nil
}

func toVariable(name string, v vm.Resolved) liveprogv1.Variable {
	out := liveprogv1.Variable{Name: name, Value: v.String(), IsString: v.IsString()}
	if !out.IsString {
		out.Number = v.Number
	}
	return out
}
