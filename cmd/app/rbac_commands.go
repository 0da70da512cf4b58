package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/roleguard/cmd/app/commands"
)

func getRBACCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "change-role",
			Usage: "Change the role of a user",
			Flags: []cli.Flag{
				actorFlag(),
				&cli.StringFlag{
					Name:     "target",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "ID of the user whose role changes",
				},
				&cli.StringFlag{
					Name:     "role",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "New role: VIEWER, ADMIN or SUPER_ADMIN",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				authorizationUseCase, err := container.AuthorizationUseCase()
				if err != nil {
					return err
				}

				return commands.RunChangeRole(
					ctx,
					authorizationUseCase,
					container.Logger(),
					commands.Output,
					cmd.String("actor"),
					cmd.String("target"),
					cmd.String("role"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "bulk-change-role",
			Usage: "Assign one role to many users; super admins are skipped",
			Flags: []cli.Flag{
				actorFlag(),
				&cli.StringFlag{
					Name:     "targets",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "Comma separated IDs of the users whose role changes",
				},
				&cli.StringFlag{
					Name:     "role",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "New role: VIEWER, ADMIN or SUPER_ADMIN",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				authorizationUseCase, err := container.AuthorizationUseCase()
				if err != nil {
					return err
				}

				return commands.RunBulkChangeRole(
					ctx,
					authorizationUseCase,
					container.Logger(),
					commands.Output,
					cmd.String("actor"),
					cmd.String("targets"),
					cmd.String("role"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "set-permissions",
			Usage: "Replace the permission overrides of a user",
			Flags: []cli.Flag{
				actorFlag(),
				&cli.StringFlag{
					Name:     "target",
					Aliases:  []string{"t"},
					Required: true,
					Usage:    "ID of the user whose overrides change",
				},
				&cli.StringFlag{
					Name:    "permissions",
					Aliases: []string{"p"},
					Usage:   "Comma separated permissions (e.g. products.edit,media.*); empty clears all",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				authorizationUseCase, err := container.AuthorizationUseCase()
				if err != nil {
					return err
				}

				return commands.RunSetPermissions(
					ctx,
					authorizationUseCase,
					container.Logger(),
					commands.Output,
					cmd.String("actor"),
					cmd.String("target"),
					cmd.String("permissions"),
					cmd.String("format"),
				)
			},
		},
		{
			Name:  "check-permission",
			Usage: "Check whether a user holds a permission",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "ID of the user to check",
				},
				&cli.StringFlag{
					Name:     "permission",
					Aliases:  []string{"p"},
					Required: true,
					Usage:    "Permission in resource.action form",
				},
				formatFlag(),
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := newContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				authorizationUseCase, err := container.AuthorizationUseCase()
				if err != nil {
					return err
				}

				return commands.RunCheckPermission(
					ctx,
					authorizationUseCase,
					container.Logger(),
					commands.Output,
					cmd.String("user"),
					cmd.String("permission"),
					cmd.String("format"),
				)
			},
		},
	}
}
