package main

import (
	"time"

	"github.com/alecthomas/kong"

	"github.com/goliatone/go-ike"
)

// CLI is the ike command line.
type CLI struct {
	Globals

	Init    InitCmd    `cmd:"" help:"Create a new Ike project."`
	Extract ExtractCmd `cmd:"" help:"Generate reference descriptors from Go source."`
	Dev     DevCmd     `cmd:"" help:"Serve the docs locally and reload on changes."`
	Build   BuildCmd   `cmd:"" help:"Render the docs to static files."`
	Deploy  DeployCmd  `cmd:"" help:"Bundle the project and queue a hosted build."`
}

// Globals are accepted by every command.
type Globals struct {
	Project   string           `short:"C" default:"." type:"path" help:"Project directory."`
	LogLevel  string           `name:"log-level" env:"IKE_LOG_LEVEL" help:"Minimum log level."`
	LogFormat string           `name:"log-format" help:"Switch to structured go-logger output in this format."`
	Version   kong.VersionFlag `help:"Print the version."`
}

type InitCmd struct {
	Dir        string `arg:"" optional:"" default:"." help:"Directory to create the project in."`
	Package    string `short:"p" help:"Package name. Asked for when omitted."`
	Starter    string `help:"URL of a zip archive to use as starter."`
	StarterDir string `name:"starter-dir" help:"Subdirectory of the starter archive."`
}

func (c *InitCmd) Run(app *App) error {
	module, cfg, err := app.module(app.globals.Project, nil)
	if err != nil {
		return err
	}
	starter := c.Starter
	if starter == "" {
		starter = cfg.Scaffold.StarterURL
	}
	return dispatch(app, module, ike.InitCommand{
		Dir:        c.Dir,
		Package:    c.Package,
		StarterURL: starter,
		StarterDir: c.StarterDir,
		PublicDir:  cfg.PublicDir,
	})
}

type ExtractCmd struct {
	Source string `short:"s" help:"Go module to read. Defaults to extract.source_dir."`
	Out    string `short:"o" help:"Descriptor directory. Defaults to extract.output_dir."`
	Check  bool   `help:"Lint the written descriptors against the descriptor schema."`
}

func (c *ExtractCmd) Run(app *App) error {
	module, cfg, err := app.module(app.globals.Project, nil)
	if err != nil {
		return err
	}
	source := cfg.Path(cfg.Extract.SourceDir)
	if c.Source != "" {
		source = c.Source
	}
	out := cfg.Path(cfg.Extract.OutputDir)
	if c.Out != "" {
		out = c.Out
	}
	return dispatch(app, module, ike.ExtractCommand{
		SourceDir: source,
		OutputDir: out,
		Check:     c.Check,
	})
}

type DevCmd struct {
	Addr        string `short:"a" env:"IKE_ADDR" help:"Listen address. Defaults to server.addr."`
	NoWatch     bool   `name:"no-watch" help:"Do not watch the project for changes."`
	SkipExtract bool   `name:"skip-extract" help:"Serve without regenerating descriptors."`
	Metrics     bool   `help:"Expose /metrics."`
}

func (c *DevCmd) Run(app *App) error {
	module, cfg, err := app.module(app.globals.Project, func(cfg *ike.Config) {
		if c.Addr != "" {
			cfg.Server.Addr = c.Addr
		}
		if c.Metrics {
			cfg.Server.Metrics = true
		}
	})
	if err != nil {
		return err
	}
	return dispatch(app, module, ike.DevCommand{
		ProjectDir:  cfg.ProjectDir,
		PublicDir:   cfg.PublicDir,
		SourceDir:   cfg.Path(cfg.Extract.SourceDir),
		APIDir:      cfg.Path(cfg.Extract.OutputDir),
		SkipExtract: c.SkipExtract,
		Watch:       cfg.Server.Watch && !c.NoWatch,
	})
}

type BuildCmd struct {
	Out         string `short:"o" help:"Output directory. Defaults to generator.output_dir."`
	BaseURL     string `name:"base-url" help:"Absolute site URL used in the sitemap."`
	Incremental bool   `help:"Skip pages whose source and sidebar did not change."`
	Workers     int    `help:"Render workers. Zero uses every CPU."`
	DryRun      bool   `name:"dry-run" help:"Render without writing files."`
	Diff        bool   `help:"Print the changes each page would make."`
}

func (c *BuildCmd) Run(app *App) error {
	module, cfg, err := app.module(app.globals.Project, func(cfg *ike.Config) {
		if c.Out != "" {
			cfg.Generator.OutputDir = c.Out
		}
		if c.BaseURL != "" {
			cfg.Generator.BaseURL = c.BaseURL
		}
		if c.Incremental {
			cfg.Generator.Incremental = true
		}
		if c.Workers > 0 {
			cfg.Generator.Workers = c.Workers
		}
	})
	if err != nil {
		return err
	}
	return dispatch(app, module, ike.BuildCommand{
		ProjectDir: cfg.ProjectDir,
		PublicDir:  cfg.PublicDir,
		DryRun:     c.DryRun,
		Diff:       c.Diff,
	})
}

type DeployCmd struct {
	APIKey   string        `name:"api-key" help:"API key. Read from IKE_API_KEY or the system keyring when omitted."`
	Endpoint string        `help:"Build endpoint."`
	Timeout  time.Duration `help:"Upload timeout."`
}

func (c *DeployCmd) Run(app *App) error {
	module, cfg, err := app.module(app.globals.Project, func(cfg *ike.Config) {
		if c.Endpoint != "" {
			cfg.Deploy.Endpoint = c.Endpoint
		}
		if c.Timeout > 0 {
			cfg.Deploy.Timeout = c.Timeout
		}
	})
	if err != nil {
		return err
	}
	apiKey := cfg.Deploy.APIKey
	if c.APIKey != "" {
		apiKey = c.APIKey
	}
	return dispatch(app, module, ike.DeployCommand{
		ProjectDir:     cfg.ProjectDir,
		APIKey:         apiKey,
		KeyringService: cfg.Deploy.KeyringService,
		KeyringUser:    cfg.Deploy.KeyringUser,
	})
}
