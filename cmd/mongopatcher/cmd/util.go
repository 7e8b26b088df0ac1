package cmd

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/scille/mongopatcher/pkg/config"
	"github.com/scille/mongopatcher/pkg/migrator"
	"github.com/scille/mongopatcher/pkg/mongodb"
	"github.com/urfave/cli/v3"
)

// effectiveConfig returns the loaded project configuration, or the default
// one when the command runs outside a mongopatcher project.
func effectiveConfig() *config.Config {
	if currentConfig != nil {
		return currentConfig
	}

	return config.Default()
}

// resolveURI returns the MongoDB connection string, flags first, project
// configuration second.
func resolveURI(cmd *cli.Command, cfg *config.Config) string {
	if url := cmd.String("url"); url != "" {
		return url
	}

	return cfg.MongoDB.URI
}

// resolveDatabase returns the database name, flags first, project
// configuration second.
func resolveDatabase(cmd *cli.Command, cfg *config.Config) string {
	if database := cmd.String("database"); database != "" {
		return database
	}

	return cfg.MongoDB.Database
}

// resolvePatchesDir returns the patches directory, flags first, project
// configuration second.
func resolvePatchesDir(cmd *cli.Command, cfg *config.Config) string {
	if dir := cmd.String("patches-dir"); dir != "" {
		return dir
	}

	return cfg.PatchesDir
}

// newMigrator dials the deployment targeted by the global flags and project
// configuration and builds a migrator around it. The caller owns closing
// the returned client.
func newMigrator(ctx context.Context, cmd *cli.Command) (*migrator.Migrator, *mongodb.Client, error) {
	cfg := effectiveConfig()

	client, err := mongodb.Connect(ctx, resolveURI(cmd, cfg), resolveDatabase(cmd, cfg))
	if err != nil {
		return nil, nil, err
	}

	db := client.Database()
	m := migrator.New(migrator.Config{
		DB:               db,
		Store:            mongodb.NewManifestStore(db, cfg.MongoDB.Collection),
		PatchesDir:       resolvePatchesDir(cmd, cfg),
		Registry:         fixRegistry,
		DatamodelVersion: cfg.DatamodelVersion,
		Out:              cmd.Writer,
	})

	return m, client, nil
}

// discoveryMigrator builds a migrator wired for patch discovery only, with
// no database behind it. Commands that never touch the manifest use this to
// avoid dialing MongoDB.
func discoveryMigrator(cmd *cli.Command) *migrator.Migrator {
	cfg := effectiveConfig()

	return migrator.New(migrator.Config{
		PatchesDir:       resolvePatchesDir(cmd, cfg),
		Registry:         fixRegistry,
		DatamodelVersion: cfg.DatamodelVersion,
		Out:              cmd.Writer,
	})
}

// promptConfirm asks a yes/no question on the command's input and reports
// whether the user answered yes. Anything but an explicit yes counts as no.
func promptConfirm(cmd *cli.Command, prompt string) bool {
	fmt.Fprintf(cmd.Writer, "%s [y/N]: ", prompt)

	answer, _ := bufio.NewReader(cmd.Reader).ReadString('\n')
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	}

	return false
}

// tabulate prefixes every line of txt with a tab, trimming each line's
// surrounding whitespace first.
func tabulate(txt string) string {
	lines := strings.Split(txt, "\n")
	for i, line := range lines {
		lines[i] = "\t" + strings.TrimSpace(line)
	}

	return strings.Join(lines, "\n")
}
