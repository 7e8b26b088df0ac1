package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/urfave/cli/v3"
)

// upgrade returns the CLI command that applies pending patches.
//
// The upgrade command discovers the available patches and applies every
// patch reachable from the current datamodel version, one version hop at a
// time, until no further patch applies. Each applied patch updates the
// manifest, so an interrupted run can simply be restarted.
//
// Command flags:
//   - --yes, -y: Skip the confirmation prompt
//   - --dry-run, -n: Simulate the walk without touching the database
//   - --patches-dir, -p: Directory where to find the patches
//   - --force-version: Overwrite the manifest version before upgrading
//
// Example usage:
//
//	# See what would be applied
//	mongopatcher upgrade --dry-run
//
//	# Apply all pending patches
//	mongopatcher upgrade --yes
//
//	# Restart the chain from a known version after manual surgery
//	mongopatcher upgrade --force-version 1.0.2
func upgrade() *cli.Command {
	return &cli.Command{
		Name:  "upgrade",
		Usage: "Upgrade the datamodel by applying the available patches",
		Description: `Apply every patch reachable from the current datamodel version.

Patches chain on exact version equality: a patch applies when its base
version matches the manifest, and moves the manifest to its target version,
possibly unlocking the next patch. The walk stops at the first version no
patch claims.

Without --yes the command asks for confirmation before altering the
database. A dry run never asks: it only reports the versions the datamodel
would walk through.`,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "yes",
				Aliases: []string{"y"},
				Usage:   "Don't ask for confirmation",
			},
			&cli.BoolFlag{
				Name:    "dry-run",
				Aliases: []string{"n"},
				Usage:   "Pretend to do the upgrade",
			},
			&cli.StringFlag{
				Name:    "patches-dir",
				Aliases: []string{"p"},
				Usage:   "Directory where to find the patches",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "force-version",
				Usage: "Overwrite the manifest version before upgrading",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: runUpgrade,
	}
}

func runUpgrade(ctx context.Context, cmd *cli.Command) error {
	dryRun := cmd.Bool("dry-run")
	forceVersion := cmd.String("force-version")

	if forceVersion != "" {
		if dryRun {
			return errors.New("--force-version cannot be combined with --dry-run")
		}
		if err := patch.ValidateVersion(forceVersion); err != nil {
			return err
		}
	}

	cfg := effectiveConfig()
	database := resolveDatabase(cmd, cfg)

	slog.Info("Starting datamodel upgrade",
		"database", database,
		"dry_run", dryRun,
		"force_version", forceVersion,
	)

	m, client, err := newMigrator(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	if dryRun {
		_, err := m.Upgrade(ctx, true)
		return err
	}

	if forceVersion == "" {
		need, err := m.NeedUpgrade(ctx)
		if err != nil {
			return err
		}

		if !need {
			version, err := m.Manifest().Version(ctx)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.Writer, "Datamodel is already up to date (version %s)\n", version)
			return nil
		}
	}

	if !cmd.Bool("yes") {
		if !promptConfirm(cmd, fmt.Sprintf("Are you sure you want to alter %s", database)) {
			return cli.Exit("You changed your mind, exiting...", 1)
		}
	}

	if forceVersion != "" {
		if err := m.Manifest().Initialize(ctx, forceVersion, true); err != nil {
			return err
		}
		m.Manifest().Reload()
	}

	_, err = m.Upgrade(ctx, false)
	return err
}
