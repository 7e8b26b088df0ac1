package cmd

import (
	"context"
	"os"

	"github.com/scille/mongopatcher/pkg/config"
	"github.com/scille/mongopatcher/pkg/consts"
	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/urfave/cli/v3"
)

var (
	// currentConfig holds the project configuration when the command runs
	// inside a mongopatcher project, nil otherwise.
	currentConfig *config.Config

	// fixRegistry resolves the fix names referenced by patch definition
	// files. Host applications fill it through RegisterFix before Run.
	fixRegistry = patch.NewRegistry()
)

// RegisterFix makes a fix routine available to patch definitions under the
// given name. Applications embedding the CLI call this for each of their
// fixes before handing control to Run.
//
// Example usage:
//
//	cmd.RegisterFix("split_user_names", fixes.SplitUserNames)
//	cmd.RegisterFix("rebuild_indexes", fixes.RebuildIndexes)
//
//	if err := cmd.Run(ctx, version, os.Args); err != nil {
//		log.Fatal(err)
//	}
//
// Like database/sql.Register, registering the same name twice panics.
func RegisterFix(name string, fn patch.Fix) {
	fixRegistry.Register(name, fn)
}

// Run creates and executes the main mongopatcher CLI application with the
// given version and command-line arguments. This function serves as the
// main entry point for all CLI operations and handles global configuration.
//
// Global Flags:
//   - --dir, -d: Project directory (defaults to current directory)
//   - --url, -u: MongoDB connection string (also MONGOPATCHER_URI)
//   - --database: Database holding the datamodel
//
// The application automatically detects mongopatcher projects by looking
// for mongopatcher.yaml in the specified directory. If found, its settings
// become the defaults for every command; the --url and --database flags
// override them.
//
// Example usage:
//
//	# Run in current directory (auto-detect project)
//	err := Run(ctx, "v1.0.0", []string{"mongopatcher", "info"})
//
//	# Run in specific directory
//	err := Run(ctx, "v1.0.0", []string{"mongopatcher", "--dir", "/path/to/project", "upgrade", "--dry-run"})
//
// Returns an error if command execution fails or if project detection
// encounters issues.
func Run(ctx context.Context, version string, args []string) error {
	return newApp(version).Run(ctx, args)
}

func newApp(version string) *cli.Command {
	return &cli.Command{
		Name:  "mongopatcher",
		Usage: "A tool for incremental datamodel patching on MongoDB",
		Description: `mongopatcher keeps a version manifest inside the database itself and
upgrades the datamodel by applying the available patches one version hop
at a time until no further patch applies.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "dir",
				Aliases:     []string{"d"},
				Usage:       "the project directory",
				Value:       ".",
				DefaultText: "Current directory",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:    "url",
				Aliases: []string{"u"},
				Usage:   "MongoDB connection string",
				Sources: cli.EnvVars("MONGOPATCHER_URI"),
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
			&cli.StringFlag{
				Name:  "database",
				Usage: "database holding the datamodel",
				Config: cli.StringConfig{
					TrimSpace: true,
				},
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			currentConfig = nil
			projectDir := cmd.String("dir")

			// Change to project directory first
			if err := os.Chdir(projectDir); err != nil {
				return ctx, err
			}

			// Check if this is a mongopatcher project
			_, err := os.Stat(consts.ConfigFile)
			if os.IsNotExist(err) {
				return ctx, nil
			}

			if err != nil {
				return ctx, err
			}

			cfg, err := config.LoadConfigFile(consts.ConfigFile)
			if err != nil {
				return ctx, err
			}

			currentConfig = cfg
			return ctx, nil
		},
		Commands: []*cli.Command{
			create(),
			dev(),
			discover(),
			info(),
			initCmd(),
			upgrade(),
		},
	}
}
