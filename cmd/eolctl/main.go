// Command eolctl administers users, vendors and API tokens.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/Cristi-la/EOL-Net/internal/domain"
	"github.com/Cristi-la/EOL-Net/internal/service"
)

func main() {
	cmd := &cli.Command{
		Name:  "eolctl",
		Usage: "EOL-Net administration",
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "Apply database migrations",
				Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *container) error {
					return runMigrate(ctx, c)
				}),
			},
			{
				Name:  "create-user",
				Usage: "Create an account that can own tokens",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Required: true, Usage: "Login name"},
					&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Contact email"},
					&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Required: true, Sources: cli.EnvVars("EOLCTL_PASSWORD"), Usage: "Password"},
					&cli.BoolFlag{Name: "admin", Usage: "Allow admin login"},
				},
				Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *container) error {
					return runCreateUser(ctx, c.users, os.Stdout, service.UserCreateInput{
						Username: cmd.String("username"),
						Email:    cmd.String("email"),
						Password: cmd.String("password"),
						IsAdmin:  cmd.Bool("admin"),
					})
				}),
			},
			{
				Name:  "create-vendor",
				Usage: "Add a vendor",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Vendor name"},
				},
				Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *container) error {
					return runCreateVendor(ctx, c.catalog, os.Stdout, cmd.String("name"))
				}),
			},
			{
				Name:  "create-token",
				Usage: "Create an API token and print its credential once",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Aliases: []string{"n"}, Required: true, Usage: "Unique token name"},
					&cli.StringFlag{Name: "owner", Aliases: []string{"o"}, Required: true, Usage: "Owning user ID"},
					&cli.BoolFlag{Name: "write", Usage: "Allow POST"},
					&cli.BoolFlag{Name: "edit", Usage: "Allow PUT and PATCH"},
					&cli.BoolFlag{Name: "delete", Usage: "Allow DELETE"},
					&cli.StringFlag{Name: "vendors", Aliases: []string{"v"}, Usage: "Comma-separated allowed vendor IDs"},
					&cli.StringFlag{Name: "throttle", Aliases: []string{"t"}, Value: string(domain.ThrottleDefault), Usage: "Throttle class: anon, default or ha"},
					&cli.StringFlag{Name: "valid-until", Usage: "Expiry (RFC 3339 or YYYY-MM-DD); defaults to one year"},
				},
				Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *container) error {
					vendors, err := parseVendors(cmd.String("vendors"))
					if err != nil {
						return err
					}
					validUntil, err := parseValidUntil(cmd.String("valid-until"))
					if err != nil {
						return err
					}
					return runCreateToken(ctx, c.tokens, os.Stdout, service.TokenCreateInput{
						Name:           cmd.String("name"),
						OwnerID:        cmd.String("owner"),
						CanWrite:       cmd.Bool("write"),
						CanEdit:        cmd.Bool("edit"),
						CanDelete:      cmd.Bool("delete"),
						AllowedVendors: vendors,
						ThrottleClass:  domain.ThrottleClass(cmd.String("throttle")),
						ValidUntil:     validUntil,
					})
				}),
			},
			{
				Name:  "list-tokens",
				Usage: "List API tokens",
				Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *container) error {
					return runListTokens(ctx, c.tokens, os.Stdout, time.Now())
				}),
			},
			{
				Name:  "delete-token",
				Usage: "Revoke an API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Aliases: []string{"i"}, Required: true, Usage: "Token ID"},
				},
				Action: withContainer(func(ctx context.Context, cmd *cli.Command, c *container) error {
					return runDeleteToken(ctx, c.tokens, os.Stdout, cmd.String("id"))
				}),
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func withContainer(fn func(context.Context, *cli.Command, *container) error) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		c, err := newContainer(ctx)
		if err != nil {
			return err
		}
		defer c.close()
		return fn(ctx, cmd, c)
	}
}
