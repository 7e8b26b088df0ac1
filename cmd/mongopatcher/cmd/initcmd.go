package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/urfave/cli/v3"
)

// initCmd returns the CLI command that installs the version manifest on the
// database, making the datamodel patchable.
//
// Without --version the version to install is resolved from the project's
// configured datamodel_version, then from the highest target version among
// the discovered patches, and finally falls back to 1.0.0.
//
// Command flags:
//   - --version, -v: Datamodel version to install
//   - --force, -f: Overwrite if a manifest is already installed
//
// Example usage:
//
//	# Mark a fresh database as being in the version the application expects
//	mongopatcher init
//
//	# Stamp a legacy database that predates mongopatcher
//	mongopatcher init --version 1.0.0
func initCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize the datamodel by installing its version manifest",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "Specify the datamodel's version",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Overwrite if a manifest is already installed",
			},
		},
		Action: runInit,
	}
}

func runInit(ctx context.Context, cmd *cli.Command) error {
	m, client, err := newMigrator(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	version := cmd.String("version")
	if version == "" {
		version, err = m.DatamodelVersion()
		if err != nil {
			return err
		}
	}

	slog.Info("Initializing datamodel", "version", version, "force", cmd.Bool("force"))

	if err := m.Manifest().Initialize(ctx, version, cmd.Bool("force")); err != nil {
		return err
	}

	fmt.Fprintf(cmd.Writer, "Datamodel initialized to version %s\n", version)
	return nil
}
