package main

import (
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/allisson/roleguard/internal/app"
	"github.com/allisson/roleguard/internal/config"
)

func getCommands(version string) []*cli.Command {
	cmds := []*cli.Command{}
	cmds = append(cmds, getSystemCommands(version)...)
	cmds = append(cmds, getRBACCommands()...)
	cmds = append(cmds, getAuditCommands()...)
	return cmds
}

// newContainer loads and validates the configuration and builds a container from it.
func newContainer() (*app.Container, error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return app.NewContainer(cfg), nil
}

func formatFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "format",
		Aliases: []string{"f"},
		Value:   "text",
		Usage:   "Output format: 'text' or 'json'",
		Validator: func(value string) error {
			if value != "text" && value != "json" {
				return fmt.Errorf("format must be 'text' or 'json'")
			}
			return nil
		},
	}
}

func actorFlag() cli.Flag {
	return &cli.StringFlag{
		Name:     "actor",
		Aliases:  []string{"a"},
		Required: true,
		Usage:    "ID of the user performing the change",
	}
}
