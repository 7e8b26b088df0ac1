package cmd

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/urfave/cli/v3"
)

// discover returns the CLI command that lists the available patches.
//
// Patches are listed sorted by target version. The command never touches
// the database: it only reads the patch definition files.
//
// Command flags:
//   - --patches-dir, -p: Directory where to find the patches
//   - --filter, -f: Regular expression filtering on target version
//   - --verbose, -v: Show the patchnotes
//
// Example usage:
//
//	# List every patch
//	mongopatcher discover
//
//	# List the 1.x patches with their patchnotes
//	mongopatcher discover --filter '1\.' --verbose
func discover() *cli.Command {
	return &cli.Command{
		Name:  "discover",
		Usage: "List the patches available in the patches directory",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "patches-dir",
				Aliases: []string{"p"},
				Usage:   "Directory where to find the patches",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:    "filter",
				Aliases: []string{"f"},
				Usage:   "Only list patches whose target version matches this regex",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Show patches' descriptions",
			},
		},
		Action: runDiscover,
	}
}

func runDiscover(ctx context.Context, cmd *cli.Command) error {
	patches, err := discoveryMigrator(cmd).Discover()
	if err != nil {
		return err
	}

	if expr := cmd.String("filter"); expr != "" {
		// Anchored at the start, so "1\." selects the 1.x.y patches.
		re, err := regexp.Compile("^(?:" + expr + ")")
		if err != nil {
			return errors.Wrapf(err, "invalid filter %q", expr)
		}

		patches = slices.DeleteFunc(patches, func(p *patch.Patch) bool {
			return !re.MatchString(p.TargetVersion)
		})
	}

	if len(patches) == 0 {
		fmt.Fprintln(cmd.Writer, "No patches found")
		return nil
	}

	fmt.Fprintln(cmd.Writer, "Patches available:")
	for _, p := range patches {
		if !cmd.Bool("verbose") {
			fmt.Fprintf(cmd.Writer, " - %s\n", p.TargetVersion)
			continue
		}

		fmt.Fprintln(cmd.Writer)
		fmt.Fprintln(cmd.Writer, p.TargetVersion)
		fmt.Fprintln(cmd.Writer, strings.Repeat("~", len(p.TargetVersion)))
		fmt.Fprintln(cmd.Writer, tabulate(p.Patchnote))
	}

	return nil
}
