package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"
	command "github.com/goliatone/go-command"
	"github.com/goliatone/go-command/dispatcher"

	"github.com/goliatone/go-ike"
)

var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "ike: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, out io.Writer) error {
	var cli CLI
	parser, err := kong.New(&cli,
		kong.Name("ike"),
		kong.Description("Write Go documentation in Markdown, preview it locally and ship it."),
		kong.UsageOnError(),
		kong.Writers(out, os.Stderr),
		kong.Vars{"version": version},
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	app := &App{ctx: ctx, out: out, globals: cli.Globals}
	err = kctx.Run(app)
	if err != nil && errors.Is(ctx.Err(), context.Canceled) {
		// Interrupted; servers have already shut down.
		return nil
	}
	return err
}

// App carries what every command needs to build its module.
type App struct {
	ctx     context.Context
	out     io.Writer
	globals Globals
}

func (a *App) module(dir string, adjust func(*ike.Config)) (*ike.Module, ike.Config, error) {
	cfg, err := ike.LoadConfig(dir)
	if err != nil {
		return nil, cfg, err
	}
	if a.globals.LogLevel != "" {
		cfg.Logging.Level = a.globals.LogLevel
	}
	if a.globals.LogFormat != "" {
		cfg.Logging.Provider = "gologger"
		cfg.Logging.Format = a.globals.LogFormat
	}
	if adjust != nil {
		adjust(&cfg)
	}
	module, err := ike.New(cfg)
	return module, cfg, err
}

// dispatch sends msg through the go-command dispatcher to the handler the
// module registered for it.
func dispatch[T command.Message](app *App, module *ike.Module, msg T) error {
	reg := ike.NewDispatcherRegistry()
	defer reg.Close()
	if _, err := module.RegisterCommands(reg, app.out); err != nil {
		return err
	}
	return dispatcher.Dispatch(app.ctx, msg)
}
