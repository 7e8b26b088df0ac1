package cmd

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"
)

// info returns the CLI command that shows the datamodel's current version.
// With --verbose it also prints the update history, newest entry first,
// with each entry's reason when one was recorded.
//
// Example usage:
//
//	$ mongopatcher info --verbose
//	Datamodel version: 1.0.2
//
//	Update history:
//	 - 2026-07-02 09:14:33: 1.0.2 (Upgrade from 1.0.1)
//	 - 2026-07-02 09:14:33: 1.0.1 (Upgrade from 1.0.0)
//	 - 2026-06-30 17:20:01: 1.0.0 (Initialize version)
func info() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Show version of the datamodel",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show history",
			},
		},
		Action: runInfo,
	}
}

func runInfo(ctx context.Context, cmd *cli.Command) error {
	m, client, err := newMigrator(ctx, cmd)
	if err != nil {
		return err
	}
	defer func() { _ = client.Close(ctx) }()

	manifest := m.Manifest()

	initialized, err := manifest.IsInitialized(ctx)
	if err != nil {
		return err
	}
	if !initialized {
		fmt.Fprintln(cmd.Writer, "Datamodel is not initialized")
		return nil
	}

	version, err := manifest.Version(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.Writer, "Datamodel version: %s\n", version)

	if !cmd.Bool("verbose") {
		return nil
	}

	history, err := manifest.History(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Writer, "\nUpdate history:")
	for i := len(history) - 1; i >= 0; i-- {
		entry := history[i]

		reason := entry.Reason
		if reason != "" {
			reason = "(" + reason + ")"
		}

		fmt.Fprintf(cmd.Writer, " - %s: %s %s\n",
			entry.Timestamp.Format("2006-01-02 15:04:05"), entry.Version, reason)
	}

	return nil
}
