package cmd

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/consts"
	"github.com/scille/mongopatcher/pkg/migrator"
	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/scille/mongopatcher/pkg/project"
	"github.com/urfave/cli/v3"
)

// create returns the CLI command that scaffolds a new patch definition file
// in the project's patches directory.
//
// Without --base the patch chains onto the highest discovered target
// version (or 1.0.0 for the first patch); without --target it bumps the
// base's patch component. Running create in a directory that is not yet a
// mongopatcher project scaffolds the default project files first.
//
// Example usage:
//
//	# First patch of a project: 1.0.0 => 1.0.1
//	mongopatcher create split_user_names
//
//	# Explicit transition for a breaking change
//	mongopatcher create drop_legacy_tokens --base 1.0.4 --target 1.1.0
func create() *cli.Command {
	return &cli.Command{
		Name:      "create",
		Usage:     "Scaffold a new patch definition file",
		ArgsUsage: "NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "base",
				Usage: "Version the patch upgrades from",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "target",
				Usage: "Version the patch upgrades to",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Action: runCreate,
	}
}

func runCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.Args().First()
	if name == "" {
		return errors.New("patch name is required")
	}

	// The Before hook already changed into the project directory.
	p := project.New(".")
	if err := p.Initialize(project.InitOptions{URI: cmd.String("url")}); err != nil {
		return err
	}

	base := cmd.String("base")
	if base == "" {
		last, err := lastTargetVersion(p)
		if err != nil {
			return errors.Wrap(err, "cannot derive --base from the existing patches")
		}

		base = last
	}

	target := cmd.String("target")
	if target == "" {
		v, err := patch.ParseVersion(base)
		if err != nil {
			return err
		}

		v.Patch++
		target = v.String()
	}

	path, err := p.CreatePatch(project.PatchOptions{
		Name:          name,
		BaseVersion:   base,
		TargetVersion: target,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.Writer, "Created %s (%s => %s)\n", path, base, target)
	return nil
}

// lastTargetVersion returns the highest target version among the project's
// patches, so a new patch chains onto the end of the walk. A project with
// no patches yet starts from the default version.
func lastTargetVersion(p *project.Project) (string, error) {
	m := migrator.New(migrator.Config{
		PatchesDir: p.PatchesDir(),
		Registry:   fixRegistry,
	})

	patches, err := m.Discover()
	if err != nil {
		return "", err
	}
	if len(patches) == 0 {
		return consts.DefaultDatamodelVersion, nil
	}

	return patches[len(patches)-1].TargetVersion, nil
}
