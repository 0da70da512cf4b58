package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/roleguard/cmd/app/commands"
)

func getAuditCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "list-audit-logs",
			Usage: "List audit logs, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "offset",
					Aliases: []string{"o"},
					Value:   0,
					Usage:   "Number of entries to skip",
				},
				&cli.IntFlag{
					Name:    "limit",
					Aliases: []string{"l"},
					Value:   50,
					Usage:   "Maximum number of entries to return (1-1000)",
				},
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Only entries created at or after this date (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "Only entries created at or before this date (YYYY-MM-DD or YYYY-MM-DD HH:MM:SS)",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				auditLogUseCase, err := container.AuditLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunListAuditLogs(
					ctx,
					auditLogUseCase,
					container.Logger(),
					commands.Output,
					int(cmd.Int("offset")),
					int(cmd.Int("limit")),
					cmd.String("start-date"),
					cmd.String("end-date"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "verify-audit-logs",
			Usage: "Verify audit log signatures for one entry or a time range",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "id",
					Usage: "ID of a single audit log entry to verify",
				},
				&cli.StringFlag{
					Name:    "start-date",
					Aliases: []string{"s"},
					Usage:   "Start date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				&cli.StringFlag{
					Name:    "end-date",
					Aliases: []string{"e"},
					Usage:   "End date in YYYY-MM-DD or YYYY-MM-DD HH:MM:SS format",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				auditLogUseCase, err := container.AuditLogUseCase()
				if err != nil {
					return err
				}

				return commands.RunVerifyAuditLogs(
					ctx,
					auditLogUseCase,
					container.Logger(),
					commands.Output,
					commands.VerifyScope{
						EntryID:   cmd.String("id"),
						StartDate: cmd.String("start-date"),
						EndDate:   cmd.String("end-date"),
					},
					cmd.String("format"),
				)
			},
		},
	}
}
