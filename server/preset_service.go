package server

import (
	"context"
	"errors"
	"fmt"

	"connectrpc.com/connect"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
	"github.com/chazu/liveprog/store"
	"github.com/chazu/liveprog/wire"
)

// PresetService implements the PresetService Connect handler.
type PresetService struct {
	worker     *Worker
	presets    *store.Store
	consistent bool
}

// NewPresetService creates a PresetService. With consistent set, Save
// freezes execution while it takes the snapshot.
func NewPresetService(worker *Worker, presets *store.Store, consistent bool) *PresetService {
	return &PresetService{worker: worker, presets: presets, consistent: consistent}
}

// Save snapshots the loaded program's variables under a name.
func (s *PresetService) Save(
	ctx context.Context,
	req *connect.Request[liveprogv1.SavePresetRequest],
) (*connect.Response[liveprogv1.SavePresetResponse], error) {
	name := req.Msg.Name
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	result, err := s.worker.Do(func(t *Target) (any, error) {
		var snap *wire.Snapshot
		take := func() error {
			var err error
			snap, err = t.Access.Snapshot()
			return err
		}
		var err error
		if s.consistent {
			err = t.Access.Consistent(take)
		} else {
			err = take()
		}
		return snap, err
	})
	if err != nil {
		return nil, connectError(err)
	}

	snap := result.(*wire.Snapshot)
	if err := s.presets.Save(name, snap); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&liveprogv1.SavePresetResponse{
		Preset: liveprogv1.Preset{
			Name:      name,
			Program:   snap.Program,
			Saved:     snap.Taken,
			Variables: len(snap.Variables),
		},
	}), nil
}

// Restore writes a stored preset's numeric values into the loaded
// program. Variables the program lacks are reported, not fatal.
func (s *PresetService) Restore(
	ctx context.Context,
	req *connect.Request[liveprogv1.RestorePresetRequest],
) (*connect.Response[liveprogv1.RestorePresetResponse], error) {
	name := req.Msg.Name
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}

	snap, err := s.presets.Load(name)
	if err != nil {
		return nil, connectError(err)
	}

	result, err := s.worker.Do(func(t *Target) (any, error) {
		resp := &liveprogv1.RestorePresetResponse{}
		err := t.Access.Restore(snap)
		if err != nil && !t.Access.Available() {
			return nil, err
		}
		failed := unwrapJoined(err)
		for _, e := range failed {
			resp.Failed = append(resp.Failed, e.Error())
		}
		for _, v := range snap.Variables {
			if !v.IsString {
				resp.Applied++
			}
		}
		resp.Applied -= len(failed)
		return resp, nil
	})
	if err != nil {
		return nil, connectError(err)
	}

	resp := result.(*liveprogv1.RestorePresetResponse)
	log.Infof("restored preset %q: %d applied, %d failed", name, resp.Applied, len(resp.Failed))
	return connect.NewResponse(resp), nil
}

// List returns every stored preset.
func (s *PresetService) List(
	ctx context.Context,
	req *connect.Request[liveprogv1.ListPresetsRequest],
) (*connect.Response[liveprogv1.ListPresetsResponse], error) {
	infos, err := s.presets.List()
	if err != nil {
		return nil, connectError(err)
	}

	resp := &liveprogv1.ListPresetsResponse{Presets: make([]liveprogv1.Preset, len(infos))}
	for i, info := range infos {
		resp.Presets[i] = liveprogv1.Preset{
			Name:      info.Name,
			Program:   info.Program,
			Saved:     info.Saved.UnixMilli(),
			Variables: info.Variables,
		}
	}
	return connect.NewResponse(resp), nil
}

// Delete removes a stored preset.
func (s *PresetService) Delete(
	ctx context.Context,
	req *connect.Request[liveprogv1.DeletePresetRequest],
) (*connect.Response[liveprogv1.DeletePresetResponse], error) {
	if req.Msg.Name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("name is required"))
	}
	if err := s.presets.Delete(req.Msg.Name); err != nil {
		return nil, connectError(err)
	}
	return connect.NewResponse(&liveprogv1.DeletePresetResponse{}), nil
}

// unwrapJoined returns the errors combined by errors.Join, or err itself.
func unwrapJoined(err error) []error {
	if err == nil {
		return nil
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return joined.Unwrap()
	}
	return []error{err}
}
