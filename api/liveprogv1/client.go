package liveprogv1

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/chazu/liveprog/wire"
)

// Client calls every liveprog service on one server.
type Client struct {
	enumerate *connect.Client[EnumerateRequest, EnumerateResponse]
	lookup    *connect.Client[LookupRequest, LookupResponse]
	set       *connect.Client[SetRequest, SetResponse]

	status *connect.Client[StatusRequest, StatusResponse]
	freeze *connect.Client[FreezeRequest, FreezeResponse]
	resume *connect.Client[ResumeRequest, ResumeResponse]

	savePreset    *connect.Client[SavePresetRequest, SavePresetResponse]
	restorePreset *connect.Client[RestorePresetRequest, RestorePresetResponse]
	listPresets   *connect.Client[ListPresetsRequest, ListPresetsResponse]
	deletePreset  *connect.Client[DeletePresetRequest, DeletePresetResponse]

	listParams      *connect.Client[ListParamsRequest, ListParamsResponse]
	setParam        *connect.Client[SetParamRequest, SetParamResponse]
	restoreDefaults *connect.Client[RestoreDefaultsRequest, RestoreDefaultsResponse]
}

// NewClient constructs a Client for the server at baseURL, for example
// http://localhost:8491. Messages are encoded with wire.Codec.
func NewClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = append([]connect.ClientOption{connect.WithCodec(wire.Codec{})}, opts...)
	return &Client{
		enumerate: connect.NewClient[EnumerateRequest, EnumerateResponse](httpClient, baseURL+VariableServiceEnumerateProcedure, opts...),
		lookup:    connect.NewClient[LookupRequest, LookupResponse](httpClient, baseURL+VariableServiceLookupProcedure, opts...),
		set:       connect.NewClient[SetRequest, SetResponse](httpClient, baseURL+VariableServiceSetProcedure, opts...),

		status: connect.NewClient[StatusRequest, StatusResponse](httpClient, baseURL+EngineServiceStatusProcedure, opts...),
		freeze: connect.NewClient[FreezeRequest, FreezeResponse](httpClient, baseURL+EngineServiceFreezeProcedure, opts...),
		resume: connect.NewClient[ResumeRequest, ResumeResponse](httpClient, baseURL+EngineServiceResumeProcedure, opts...),

		savePreset:    connect.NewClient[SavePresetRequest, SavePresetResponse](httpClient, baseURL+PresetServiceSaveProcedure, opts...),
		restorePreset: connect.NewClient[RestorePresetRequest, RestorePresetResponse](httpClient, baseURL+PresetServiceRestoreProcedure, opts...),
		listPresets:   connect.NewClient[ListPresetsRequest, ListPresetsResponse](httpClient, baseURL+PresetServiceListProcedure, opts...),
		deletePreset:  connect.NewClient[DeletePresetRequest, DeletePresetResponse](httpClient, baseURL+PresetServiceDeleteProcedure, opts...),

		listParams:      connect.NewClient[ListParamsRequest, ListParamsResponse](httpClient, baseURL+ParamServiceListProcedure, opts...),
		setParam:        connect.NewClient[SetParamRequest, SetParamResponse](httpClient, baseURL+ParamServiceSetProcedure, opts...),
		restoreDefaults: connect.NewClient[RestoreDefaultsRequest, RestoreDefaultsResponse](httpClient, baseURL+ParamServiceRestoreDefaultsProcedure, opts...),
	}
}

func (c *Client) Enumerate(ctx context.Context) (*EnumerateResponse, error) {
	return call(ctx, c.enumerate, &EnumerateRequest{})
}

func (c *Client) Lookup(ctx context.Context, name string) (*LookupResponse, error) {
	return call(ctx, c.lookup, &LookupRequest{Name: name})
}

func (c *Client) Set(ctx context.Context, name string, value float32) (*SetResponse, error) {
	return call(ctx, c.set, &SetRequest{Name: name, Value: value})
}

func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	return call(ctx, c.status, &StatusRequest{})
}

func (c *Client) Freeze(ctx context.Context) (*FreezeResponse, error) {
	return call(ctx, c.freeze, &FreezeRequest{})
}

func (c *Client) Resume(ctx context.Context) (*ResumeResponse, error) {
	return call(ctx, c.resume, &ResumeRequest{})
}

func (c *Client) SavePreset(ctx context.Context, name string) (*SavePresetResponse, error) {
	return call(ctx, c.savePreset, &SavePresetRequest{Name: name})
}

func (c *Client) RestorePreset(ctx context.Context, name string) (*RestorePresetResponse, error) {
	return call(ctx, c.restorePreset, &RestorePresetRequest{Name: name})
}

func (c *Client) ListPresets(ctx context.Context) (*ListPresetsResponse, error) {
	return call(ctx, c.listPresets, &ListPresetsRequest{})
}

func (c *Client) DeletePreset(ctx context.Context, name string) (*DeletePresetResponse, error) {
	return call(ctx, c.deletePreset, &DeletePresetRequest{Name: name})
}

func (c *Client) ListParams(ctx context.Context) (*ListParamsResponse, error) {
	return call(ctx, c.listParams, &ListParamsRequest{})
}

func (c *Client) SetParam(ctx context.Context, key string, value float32) (*SetParamResponse, error) {
	return call(ctx, c.setParam, &SetParamRequest{Key: key, Value: value})
}

func (c *Client) RestoreDefaults(ctx context.Context) (*RestoreDefaultsResponse, error) {
	return call(ctx, c.restoreDefaults, &RestoreDefaultsRequest{})
}

func call[Req, Res any](ctx context.Context, c *connect.Client[Req, Res], msg *Req) (*Res, error) {
	res, err := c.CallUnary(ctx, connect.NewRequest(msg))
	if err != nil {
		return nil, err
	}
	return res.Msg, nil
}
