// liveprogd serves the variables of a liveprog program over Connect and,
// optionally, an editor language server on stdio.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/chazu/liveprog/config"
	"github.com/chazu/liveprog/liveprog"
	"github.com/chazu/liveprog/server"
	"github.com/chazu/liveprog/store"
	"github.com/chazu/liveprog/vm"
)

var log = commonlog.GetLogger("liveprog.daemon")

func main() {
	dir := flag.String("C", ".", "Directory to search upward for liveprog.toml")
	addr := flag.String("addr", "", "Listen address (overrides [server] addr)")
	script := flag.String("script", "", "Script to seed the engine from (overrides [script] path)")
	lsp := flag.Bool("lsp", false, "Also serve LSP on stdio (overrides [lsp] enabled)")
	verbose := flag.Int("v", -1, "Log verbosity (overrides [log] verbosity)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: liveprogd [options]\n\n")
		fmt.Fprintf(os.Stderr, "Serves the variables of a liveprog program for inspection and tuning.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  liveprogd -script bass.eel           # Seed from bass.eel, serve on the configured port\n")
		fmt.Fprintf(os.Stderr, "  liveprogd -addr :9000                # Serve on :9000\n")
		fmt.Fprintf(os.Stderr, "  liveprogd -script bass.eel -lsp      # Also answer LSP requests on stdio\n")
	}
	flag.Parse()

	cfg, err := config.FindAndLoad(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if cfg == nil {
		cfg = config.Default()
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *script != "" {
		cfg.Script.Path = *script
	}
	if *lsp {
		cfg.LSP.Enabled = true
	}
	if *verbose >= 0 {
		cfg.Log.Verbosity = *verbose
	}

	commonlog.Configure(cfg.Log.Verbosity, cfg.LogFile())

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	engine := vm.NewEngine()
	presets, err := store.Open(cfg.PresetPath())
	if err != nil {
		return err
	}
	defer presets.Close()

	opts := []server.ServerOption{
		server.WithPresets(presets),
		server.WithConsistentSnapshots(cfg.Bridge.ConsistentSnapshots),
	}
	if path := cfg.ScriptPath(); path != "" {
		script, err := seed(engine, path)
		if err != nil {
			return err
		}
		opts = append(opts, server.WithScript(script, path))
	}

	srv := server.New(engine, opts...)
	defer srv.Stop()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errc := make(chan error, 2)
	go func() { errc <- srv.ListenAndServe(cfg.Server.Addr) }()
	if cfg.LSP.Enabled {
		go func() { errc <- server.NewLSP(srv.Worker()).Run() }()
	}

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		log.Info("shutting down")
		return nil
	}
}

func seed(engine *vm.Engine, path string) (*liveprog.Script, error) {
	s, err := liveprog.Load(path)
	if err != nil {
		return nil, err
	}
	for _, d := range s.Diagnostics {
		log.Warningf("%s: %s", path, d)
	}

	p := s.Seed()
	engine.Load(p)
	log.Infof("loaded %q: %d variables, %d parameters", s.Description, p.Vars.Len(), len(s.Params))
	return s, nil
}
