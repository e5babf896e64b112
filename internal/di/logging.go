package di

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-ike/internal/commands"
	"github.com/goliatone/go-ike/internal/logging/console"
	"github.com/goliatone/go-ike/internal/logging/gologger"
)

func (c *Container) configureLogging() error {
	if c.loggerProvider == nil {
		cfg := c.Config.Logging
		switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
		case "gologger":
			provider, err := gologger.NewProvider(gologger.Config{
				Level:     cfg.Level,
				Format:    cfg.Format,
				AddSource: cfg.AddSource,
				Focus:     cfg.Focus,
			})
			if err != nil {
				return fmt.Errorf("di: logging: %w", err)
			}
			c.loggerProvider = provider
		default:
			opts := console.Options{}
			if level, ok := console.ParseLevel(cfg.Level); ok {
				opts.MinLevel = &level
			}
			c.loggerProvider = console.NewProvider(opts)
		}
	}
	c.logger = commands.CommandLogger(c.loggerProvider, "project")
	return nil
}
