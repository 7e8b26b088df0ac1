package cmd

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/scille/mongopatcher/pkg/config"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

// resolvedString runs a throwaway command carrying a single string flag and
// returns what the resolver saw.
func resolvedString(t *testing.T, flag string, args []string, resolve func(cmd *cli.Command) string) string {
	t.Helper()

	var got string
	app := &cli.Command{
		Name:  "test",
		Flags: []cli.Flag{&cli.StringFlag{Name: flag}},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			got = resolve(cmd)
			return nil
		},
	}

	require.NoError(t, app.Run(context.Background(), args))
	return got
}

func TestEffectiveConfig(t *testing.T) {
	prev := currentConfig
	t.Cleanup(func() { currentConfig = prev })

	// Outside a project the defaults apply
	currentConfig = nil
	require.Equal(t, config.Default(), effectiveConfig())

	// Inside a project the loaded configuration wins
	cfg := config.Default()
	cfg.MongoDB.Database = "accounts"
	currentConfig = cfg
	require.Same(t, cfg, effectiveConfig())
}

func TestResolveURI(t *testing.T) {
	cfg := config.Default()
	cfg.MongoDB.URI = "mongodb://config-host:27017"

	// Flag beats configuration
	uri := resolvedString(t, "url", []string{"test", "--url", "mongodb://flag-host:27017"}, func(cmd *cli.Command) string {
		return resolveURI(cmd, cfg)
	})
	require.Equal(t, "mongodb://flag-host:27017", uri)

	// Configuration fills the gap when the flag is absent
	uri = resolvedString(t, "url", []string{"test"}, func(cmd *cli.Command) string {
		return resolveURI(cmd, cfg)
	})
	require.Equal(t, "mongodb://config-host:27017", uri)
}

func TestResolveDatabase(t *testing.T) {
	cfg := config.Default()
	cfg.MongoDB.Database = "accounts"

	database := resolvedString(t, "database", []string{"test", "--database", "invoices"}, func(cmd *cli.Command) string {
		return resolveDatabase(cmd, cfg)
	})
	require.Equal(t, "invoices", database)

	database = resolvedString(t, "database", []string{"test"}, func(cmd *cli.Command) string {
		return resolveDatabase(cmd, cfg)
	})
	require.Equal(t, "accounts", database)
}

func TestResolvePatchesDir(t *testing.T) {
	cfg := config.Default()
	cfg.PatchesDir = "db/patches"

	dir := resolvedString(t, "patches-dir", []string{"test", "--patches-dir", "elsewhere"}, func(cmd *cli.Command) string {
		return resolvePatchesDir(cmd, cfg)
	})
	require.Equal(t, "elsewhere", dir)

	dir = resolvedString(t, "patches-dir", []string{"test"}, func(cmd *cli.Command) string {
		return resolvePatchesDir(cmd, cfg)
	})
	require.Equal(t, "db/patches", dir)
}

func TestPromptConfirm(t *testing.T) {
	tests := []struct {
		name     string
		answer   string
		expected bool
	}{
		{name: "y", answer: "y\n", expected: true},
		{name: "yes", answer: "yes\n", expected: true},
		{name: "uppercase", answer: "YES\n", expected: true},
		{name: "padded", answer: "  y  \n", expected: true},
		{name: "n", answer: "n\n", expected: false},
		{name: "empty line", answer: "\n", expected: false},
		{name: "closed input", answer: "", expected: false},
		{name: "gibberish", answer: "maybe\n", expected: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			testCmd := &cli.Command{
				Writer: &buf,
				Reader: strings.NewReader(tc.answer),
			}

			confirmed := promptConfirm(testCmd, "Are you sure you want to alter accounts")
			require.Equal(t, tc.expected, confirmed)
			require.Equal(t, "Are you sure you want to alter accounts [y/N]: ", buf.String())
		})
	}
}

func TestTabulate(t *testing.T) {
	require.Equal(t, "\tone line", tabulate("one line"))
	require.Equal(t, "\tfirst\n\tsecond", tabulate("first\nsecond"))
	require.Equal(t, "\ttrimmed", tabulate("   trimmed   "))
	require.Equal(t, "\t", tabulate(""))
}
