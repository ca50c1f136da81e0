package server

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"connectrpc.com/connect"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
	"github.com/chazu/liveprog/bridge"
	"github.com/chazu/liveprog/liveprog"
	"github.com/chazu/liveprog/vm"
)

const paramScript = `desc: Drive
tags: distortion
gain:0<-10,10,0.5>Gain (dB)
mode:1<0,2,1{Off,Soft,Hard}>Mode
@init
gain = 3.5;
mode = 1;
label = "Preset A";
@sample
spl0 = spl0 * gain;
`

// newParamServer seeds an engine from paramScript saved in a temp file and
// serves it with the parameter service enabled.
func newParamServer(t *testing.T) (*liveprogv1.Client, *vm.Engine, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "drive.eel")
	if err := os.WriteFile(path, []byte(paramScript), 0644); err != nil {
		t.Fatal(err)
	}
	script, err := liveprog.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	e := vm.NewEngine()
	e.Load(script.Seed())
	return newTestClient(t, New(e, WithScript(script, path))), e, path
}

func readScript(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// ParamService
// ---------------------------------------------------------------------------

func TestParamService_List(t *testing.T) {
	c, _, _ := newParamServer(t)

	res, err := c.ListParams(bg())
	if err != nil {
		t.Fatalf("ListParams: %v", err)
	}
	if res.Script != "drive" || res.Description != "Drive" || len(res.Tags) != 1 || res.Tags[0] != "distortion" {
		t.Errorf("header = %q %q %v", res.Script, res.Description, res.Tags)
	}
	if len(res.Params) != 2 {
		t.Fatalf("params = %+v", res.Params)
	}

	gain := res.Params[0]
	if gain.Key != "gain" || gain.Text != "3.50" || gain.Min != -10 || gain.Max != 10 || gain.Line != 3 {
		t.Errorf("gain = %+v", gain)
	}
	if !gain.HasDefault || gain.Default != 0 || gain.AtDefault {
		t.Errorf("gain default = %+v", gain)
	}

	mode := res.Params[1]
	if mode.Option != "Soft" || mode.Text != "1" || !mode.AtDefault || len(mode.Options) != 3 {
		t.Errorf("mode = %+v", mode)
	}

	if res.Sections["@init"] != 5 || res.Sections["@sample"] != 9 {
		t.Errorf("sections = %v", res.Sections)
	}
	if _, ok := res.Sections["@gfx"]; ok {
		t.Error("absent section reported")
	}
	if !res.CanRestoreDefaults {
		t.Error("CanRestoreDefaults = false with gain away from its default")
	}
}

func TestParamService_SetClampsSavesAndPushes(t *testing.T) {
	c, e, path := newParamServer(t)

	res, err := c.SetParam(bg(), "gain", 42)
	if err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if res.Param.Value != 10 || res.Param.Text != "10.00" || !res.Pushed {
		t.Errorf("response = %+v", res)
	}

	if got, _ := bridge.New(e).Lookup("gain"); got != vm.Number(10) {
		t.Errorf("running gain = %+v, want 10", got)
	}
	if src := readScript(t, path); !strings.Contains(src, "gain = 10.00;") {
		t.Errorf("script not saved:\n%s", src)
	}

	list, err := c.ListParams(bg())
	if err != nil {
		t.Fatal(err)
	}
	if list.Params[0].Value != 10 {
		t.Errorf("listed gain = %v after Set", list.Params[0].Value)
	}
}

func TestParamService_SetListRounds(t *testing.T) {
	c, e, _ := newParamServer(t)

	res, err := c.SetParam(bg(), "mode", 1.7)
	if err != nil {
		t.Fatal(err)
	}
	if res.Param.Value != 2 || res.Param.Option != "Hard" {
		t.Errorf("mode = %+v", res.Param)
	}
	if got, _ := bridge.New(e).Lookup("mode"); got != vm.Number(2) {
		t.Errorf("running mode = %+v, want 2", got)
	}
}

func TestParamService_SetUnknown(t *testing.T) {
	c, _, path := newParamServer(t)

	_, err := c.SetParam(bg(), "missing", 1)
	assertCode(t, err, connect.CodeNotFound)

	_, err = c.SetParam(bg(), "", 1)
	assertCode(t, err, connect.CodeInvalidArgument)

	if readScript(t, path) != paramScript {
		t.Error("script changed by a rejected Set")
	}
}

func TestParamService_SetWithoutProgram(t *testing.T) {
	c, e, path := newParamServer(t)
	e.Unload()

	res, err := c.SetParam(bg(), "gain", -4)
	if err != nil {
		t.Fatalf("SetParam: %v", err)
	}
	if res.Pushed || !strings.Contains(res.PushError, "no program loaded") {
		t.Errorf("response = %+v, want unpushed", res)
	}
	if src := readScript(t, path); !strings.Contains(src, "gain = -4.00;") {
		t.Errorf("script not saved:\n%s", src)
	}
}

func TestParamService_RestoreDefaults(t *testing.T) {
	c, e, path := newParamServer(t)

	if _, err := c.SetParam(bg(), "mode", 0); err != nil {
		t.Fatal(err)
	}

	res, err := c.RestoreDefaults(bg())
	if err != nil {
		t.Fatalf("RestoreDefaults: %v", err)
	}
	if len(res.Failed) != 0 {
		t.Errorf("failed = %v", res.Failed)
	}
	for _, p := range res.Params {
		if !p.AtDefault {
			t.Errorf("%s not at default: %+v", p.Key, p)
		}
	}

	a := bridge.New(e)
	if got, _ := a.Lookup("gain"); got != vm.Number(0) {
		t.Errorf("running gain = %+v, want 0", got)
	}
	if got, _ := a.Lookup("mode"); got != vm.Number(1) {
		t.Errorf("running mode = %+v, want 1", got)
	}
	src := readScript(t, path)
	if !strings.Contains(src, "gain = 0.00;") || !strings.Contains(src, "mode = 1;") {
		t.Errorf("script not saved:\n%s", src)
	}

	list, err := c.ListParams(bg())
	if err != nil {
		t.Fatal(err)
	}
	if list.CanRestoreDefaults {
		t.Error("CanRestoreDefaults = true after restoring")
	}
}

func TestParamService_RestoreDefaultsReportsPushFailures(t *testing.T) {
	c, e, _ := newParamServer(t)
	e.Load(vm.NewProgram("empty"))

	res, err := c.RestoreDefaults(bg())
	if err != nil {
		t.Fatalf("RestoreDefaults: %v", err)
	}
	if len(res.Failed) != 2 || !strings.Contains(res.Failed[0], "gain") {
		t.Errorf("failed = %v, want gain and mode", res.Failed)
	}
}

func TestParamService_NotRegisteredWithoutScript(t *testing.T) {
	c := newTestClient(t, New(newTestEngine(t)))
	_, err := c.ListParams(bg())
	assertCode(t, err, connect.CodeUnimplemented)
}

func TestParamService_InMemoryScript(t *testing.T) {
	w := newTestWorker(t)
	script := liveprog.Parse(paramScript)
	svc := NewParamService(w, script, "")

	res, err := svc.Set(bg(), connectReq(&liveprogv1.SetParamRequest{Key: "gain", Value: 1}))
	if err != nil {
		t.Fatalf("Set: %v", err)
	}
	if !res.Msg.Pushed || !strings.Contains(script.Source, "gain = 1.00;") {
		t.Errorf("response = %+v, source:\n%s", res.Msg, script.Source)
	}
}
