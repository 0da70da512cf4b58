package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/roleguard/cmd/app/commands"
)

func getSystemCommands(version string) []*cli.Command {
	return []*cli.Command{
		{
			Name:  "server",
			Usage: "Start the metrics, health and readiness server",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				return commands.RunServer(ctx, version)
			},
		},
		{
			Name:  "migrate",
			Usage: "Apply database migrations",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "dir",
					Value: "migrations",
					Usage: "Directory holding the postgresql and mysql migration sets",
				},
				&cli.IntFlag{
					Name:  "steps",
					Usage: "Number of versions to move; negative rolls back, 0 applies all pending",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				cfg := container.Config()
				return commands.RunMigrations(
					container.Logger(),
					cfg.DBDriver,
					cfg.DBConnectionString,
					commands.MigrationOptions{
						Dir:   cmd.String("dir"),
						Steps: int(cmd.Int("steps")),
					},
				)
			},
		},
	}
}
