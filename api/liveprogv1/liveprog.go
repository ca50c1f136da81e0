// Package liveprogv1 defines the messages and procedures of the liveprog
// control API. Messages travel as CBOR (see wire.Codec) over Connect.
package liveprogv1

const (
	VariableServiceName = "liveprog.v1.VariableService"
	EngineServiceName   = "liveprog.v1.EngineService"
	PresetServiceName   = "liveprog.v1.PresetService"
	ParamServiceName    = "liveprog.v1.ParamService"
)

const (
	VariableServiceEnumerateProcedure = "/" + VariableServiceName + "/Enumerate"
	VariableServiceLookupProcedure    = "/" + VariableServiceName + "/Lookup"
	VariableServiceSetProcedure       = "/" + VariableServiceName + "/Set"

	EngineServiceStatusProcedure = "/" + EngineServiceName + "/Status"
	EngineServiceFreezeProcedure = "/" + EngineServiceName + "/Freeze"
	EngineServiceResumeProcedure = "/" + EngineServiceName + "/Resume"

	PresetServiceSaveProcedure    = "/" + PresetServiceName + "/Save"
	PresetServiceRestoreProcedure = "/" + PresetServiceName + "/Restore"
	PresetServiceListProcedure    = "/" + PresetServiceName + "/List"
	PresetServiceDeleteProcedure  = "/" + PresetServiceName + "/Delete"

	ParamServiceListProcedure            = "/" + ParamServiceName + "/List"
	ParamServiceSetProcedure             = "/" + ParamServiceName + "/Set"
	ParamServiceRestoreDefaultsProcedure = "/" + ParamServiceName + "/RestoreDefaults"
)

// Variable is a variable with its value rendered as text. Number is set
// for numeric variables only.
type Variable struct {
	Name     string  `cbor:"1,keyasint"`
	Value    string  `cbor:"2,keyasint"`
	IsString bool    `cbor:"3,keyasint,omitempty"`
	Number   float32 `cbor:"4,keyasint,omitempty"`
}

// --- VariableService ---

type EnumerateRequest struct{}

type EnumerateResponse struct {
	Program   string     `cbor:"1,keyasint"`
	Variables []Variable `cbor:"2,keyasint"`
}

type LookupRequest struct {
	Name string `cbor:"1,keyasint"`
}

type LookupResponse struct {
	Variable Variable `cbor:"1,keyasint"`
}

type SetRequest struct {
	Name  string  `cbor:"1,keyasint"`
	Value float32 `cbor:"2,keyasint"`
}

type SetResponse struct {
	Previous Variable `cbor:"1,keyasint"`
	Variable Variable `cbor:"2,keyasint"`
}

// --- EngineService ---

type StatusRequest struct{}

type StatusResponse struct {
	Available bool   `cbor:"1,keyasint"`
	Frozen    bool   `cbor:"2,keyasint"`
	Program   string `cbor:"3,keyasint,omitempty"`
	Variables int    `cbor:"4,keyasint"`
	Strings   int    `cbor:"5,keyasint"`
	Cycles    uint64 `cbor:"6,keyasint"`
}

type FreezeRequest struct{}

type FreezeResponse struct {
	// WasFrozen reports the state before the call.
	WasFrozen bool `cbor:"1,keyasint"`
}

type ResumeRequest struct{}

type ResumeResponse struct {
	WasFrozen bool `cbor:"1,keyasint"`
}

// --- PresetService ---

type Preset struct {
	Name      string `cbor:"1,keyasint"`
	Program   string `cbor:"2,keyasint"`
	Saved     int64  `cbor:"3,keyasint"` // unix milliseconds
	Variables int    `cbor:"4,keyasint"`
}

type SavePresetRequest struct {
	Name string `cbor:"1,keyasint"`
}

type SavePresetResponse struct {
	Preset Preset `cbor:"1,keyasint"`
}

type RestorePresetRequest struct {
	Name string `cbor:"1,keyasint"`
}

type RestorePresetResponse struct {
	Applied int `cbor:"1,keyasint"`
	// Failed lists variables that could not be written, with reasons.
	Failed []string `cbor:"2,keyasint,omitempty"`
}

type ListPresetsRequest struct{}

type ListPresetsResponse struct {
	Presets []Preset `cbor:"1,keyasint"`
}

type DeletePresetRequest struct {
	Name string `cbor:"1,keyasint"`
}

type DeletePresetResponse struct{}

// --- ParamService ---

// Param is a tunable parameter declared in the loaded script.
type Param struct {
	Key         string   `cbor:"1,keyasint"`
	Description string   `cbor:"2,keyasint"`
	Value       float32  `cbor:"3,keyasint"`
	Text        string   `cbor:"4,keyasint"` // value as written in the script
	Min         float32  `cbor:"5,keyasint"`
	Max         float32  `cbor:"6,keyasint"`
	Step        float32  `cbor:"7,keyasint"`
	Default     float32  `cbor:"8,keyasint,omitempty"`
	HasDefault  bool     `cbor:"9,keyasint,omitempty"`
	AtDefault   bool     `cbor:"10,keyasint,omitempty"`
	Options     []string `cbor:"11,keyasint,omitempty"`
	Option      string   `cbor:"12,keyasint,omitempty"` // selected label of a list
	Line        int      `cbor:"13,keyasint"`
}

type ListParamsRequest struct{}

type ListParamsResponse struct {
	Script      string   `cbor:"1,keyasint"`
	Description string   `cbor:"2,keyasint"`
	Tags        []string `cbor:"3,keyasint,omitempty"`
	Params      []Param  `cbor:"4,keyasint"`
	// Sections maps each @section present in the script to its line.
	Sections           map[string]int `cbor:"5,keyasint,omitempty"`
	CanRestoreDefaults bool           `cbor:"6,keyasint,omitempty"`
}

type SetParamRequest struct {
	Key   string  `cbor:"1,keyasint"`
	Value float32 `cbor:"2,keyasint"`
}

type SetParamResponse struct {
	Param Param `cbor:"1,keyasint"`
	// Pushed reports whether the value reached the running program.
	Pushed    bool   `cbor:"2,keyasint"`
	PushError string `cbor:"3,keyasint,omitempty"`
}

type RestoreDefaultsRequest struct{}

type RestoreDefaultsResponse struct {
	Params []Param `cbor:"1,keyasint"`
	// Failed lists parameters that could not be pushed, with reasons.
	Failed []string `cbor:"2,keyasint,omitempty"`
}
