// liveprogctl inspects and tunes the variables served by liveprogd.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	liveprogv1 "github.com/chazu/liveprog/api/liveprogv1"
	"github.com/chazu/liveprog/config"
)

func main() {
	addr := flag.String("addr", "", "Server address (default from liveprog.toml, else localhost:8491)")
	timeout := flag.Duration("timeout", 5*time.Second, "Request timeout")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: liveprogctl [options] <command> [args]\n\n")
		fmt.Fprintf(os.Stderr, "Commands:\n")
		fmt.Fprintf(os.Stderr, "  list                 List variables and their values\n")
		fmt.Fprintf(os.Stderr, "  get <name>           Show one variable\n")
		fmt.Fprintf(os.Stderr, "  set <name> <value>   Change a numeric variable\n")
		fmt.Fprintf(os.Stderr, "  status               Show engine state\n")
		fmt.Fprintf(os.Stderr, "  freeze | resume      Suspend or restart execution\n")
		fmt.Fprintf(os.Stderr, "  save <preset>        Store current values as a preset\n")
		fmt.Fprintf(os.Stderr, "  restore <preset>     Write a preset's values back\n")
		fmt.Fprintf(os.Stderr, "  presets              List stored presets\n")
		fmt.Fprintf(os.Stderr, "  delete <preset>      Remove a preset\n")
		fmt.Fprintf(os.Stderr, "  params               List the script's parameters\n")
		fmt.Fprintf(os.Stderr, "  param <key> <value>  Change a parameter in the script and the program\n")
		fmt.Fprintf(os.Stderr, "  defaults             Reset every parameter to its default\n")
		fmt.Fprintf(os.Stderr, "\nOptions:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if *addr == "" {
		cfg, err := config.FindAndLoad(".")
		if err != nil || cfg == nil {
			cfg = config.Default()
		}
		*addr = cfg.Server.Addr
	}

	client := liveprogv1.NewClient(http.DefaultClient, "http://"+*addr)
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	if err := run(ctx, client, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, c *liveprogv1.Client, args []string) error {
	cmd, args := args[0], args[1:]
	need := func(n int) error {
		if len(args) != n {
			return fmt.Errorf("%s: expected %d argument(s), got %d", cmd, n, len(args))
		}
		return nil
	}

	switch cmd {
	case "list":
		res, err := c.Enumerate(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "NAME\tVALUE\tTYPE\n")
		for _, v := range res.Variables {
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.Name, v.Value, kind(v))
		}
		return w.Flush()

	case "get":
		if err := need(1); err != nil {
			return err
		}
		res, err := c.Lookup(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s (%s)\n", res.Variable.Name, res.Variable.Value, kind(res.Variable))

	case "set":
		if err := need(2); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return fmt.Errorf("set: value %q is not a number", args[1])
		}
		res, err := c.Set(ctx, args[0], float32(v))
		if err != nil {
			return err
		}
		fmt.Printf("%s: %s -> %s\n", args[0], res.Previous.Value, res.Variable.Value)

	case "status":
		res, err := c.Status(ctx)
		if err != nil {
			return err
		}
		if !res.Available {
			fmt.Println("no program loaded")
			return nil
		}
		state := "running"
		if res.Frozen {
			state = "frozen"
		}
		fmt.Printf("program %s: %s, %d variables, %d strings, %d buffers processed\n",
			res.Program, state, res.Variables, res.Strings, res.Cycles)

	case "freeze":
		_, err := c.Freeze(ctx)
		return err

	case "resume":
		_, err := c.Resume(ctx)
		return err

	case "save":
		if err := need(1); err != nil {
			return err
		}
		res, err := c.SavePreset(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("saved %s (%d variables)\n", res.Preset.Name, res.Preset.Variables)

	case "restore":
		if err := need(1); err != nil {
			return err
		}
		res, err := c.RestorePreset(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Printf("restored %d variables\n", res.Applied)
		for _, f := range res.Failed {
			fmt.Fprintf(os.Stderr, "  skipped: %s\n", f)
		}

	case "presets":
		res, err := c.ListPresets(ctx)
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "NAME\tPROGRAM\tVARIABLES\tSAVED\n")
		for _, p := range res.Presets {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, p.Program, p.Variables,
				time.UnixMilli(p.Saved).Format(time.DateTime))
		}
		return w.Flush()

	case "delete":
		if err := need(1); err != nil {
			return err
		}
		_, err := c.DeletePreset(ctx, args[0])
		return err

	case "params":
		res, err := c.ListParams(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("%s (%s)\n", res.Description, res.Script)
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintf(w, "KEY\tVALUE\tRANGE\tDESCRIPTION\n")
		for _, p := range res.Params {
			value := p.Text
			if p.Option != "" {
				value += " (" + p.Option + ")"
			}
			if p.HasDefault && !p.AtDefault {
				value += " *"
			}
			fmt.Fprintf(w, "%s\t%s\t%v..%v\t%s\n", p.Key, value, p.Min, p.Max, p.Description)
		}
		return w.Flush()

	case "param":
		if err := need(2); err != nil {
			return err
		}
		v, err := strconv.ParseFloat(args[1], 32)
		if err != nil {
			return fmt.Errorf("param: value %q is not a number", args[1])
		}
		res, err := c.SetParam(ctx, args[0], float32(v))
		if err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", res.Param.Key, res.Param.Text)
		if !res.Pushed {
			fmt.Fprintf(os.Stderr, "  not applied to the running program: %s\n", res.PushError)
		}

	case "defaults":
		res, err := c.RestoreDefaults(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("restored %d parameters\n", len(res.Params))
		for _, f := range res.Failed {
			fmt.Fprintf(os.Stderr, "  not applied: %s\n", f)
		}

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
	return nil
}

func kind(v liveprogv1.Variable) string {
	if v.IsString {
		return "string"
	}
	return "number"
}
