package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// runApp executes a full CLI invocation against a fresh application and
// returns everything it wrote. The root Before hook changes into the
// project directory and fills the package globals, so both are restored
// when the test finishes. cli.Exit errors are returned instead of
// terminating the test binary.
func runApp(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	wd, err := os.Getwd()
	require.NoError(t, err)

	prevConfig := currentConfig
	t.Cleanup(func() {
		currentConfig = prevConfig
		require.NoError(t, os.Chdir(wd))
	})

	var out bytes.Buffer
	app := newApp("test")
	app.Writer = &out
	app.ErrWriter = &out
	app.Reader = strings.NewReader(stdin)
	app.ExitErrHandler = func(ctx context.Context, cmd *cli.Command, err error) {}

	runErr := app.Run(context.Background(), append([]string{"mongopatcher"}, args...))
	return out.String(), runErr
}

// stubRegistry swaps the package's fix registry for the duration of a test.
func stubRegistry(t *testing.T, r *patch.Registry) {
	t.Helper()

	prev := fixRegistry
	fixRegistry = r
	t.Cleanup(func() { fixRegistry = prev })
}

// writeProject lays out a project in a fresh temp directory. files maps
// paths relative to the project root to their content.
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}

	return dir
}

// patchYAML renders a minimal patch definition file.
func patchYAML(base, target, patchnote string, fixes ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "base_version: %s\ntarget_version: %s\n", base, target)
	if patchnote != "" {
		fmt.Fprintf(&b, "patchnote: %q\n", patchnote)
	}
	for i, fix := range fixes {
		if i == 0 {
			b.WriteString("fixes:\n")
		}
		fmt.Fprintf(&b, "  - %s\n", fix)
	}

	return b.String()
}

func TestNewApp_Structure(t *testing.T) {
	// Test that the application has correct structure
	app := newApp("1.2.3")

	require.Equal(t, "mongopatcher", app.Name)
	require.Equal(t, "A tool for incremental datamodel patching on MongoDB", app.Usage)
	require.Equal(t, "1.2.3", app.Version)
	require.NotNil(t, app.Before)

	var flagNames []string
	for _, flag := range app.Flags {
		flagNames = append(flagNames, flag.Names()[0])
	}
	require.Equal(t, []string{"dir", "url", "database"}, flagNames)

	var names []string
	for _, subcmd := range app.Commands {
		names = append(names, subcmd.Name)
	}
	require.Equal(t, []string{"create", "dev", "discover", "info", "init", "upgrade"}, names)
}

func TestRun_OutsideProject(t *testing.T) {
	// Without mongopatcher.yaml the defaults apply and nothing is loaded
	out, err := runApp(t, "", "--dir", t.TempDir(), "discover")
	require.NoError(t, err)
	require.Equal(t, "No patches found\n", out)
	require.Nil(t, currentConfig)
}

func TestRun_DetectsProject(t *testing.T) {
	// The configured patches directory proves the project file was loaded
	dir := writeProject(t, map[string]string{
		"mongopatcher.yaml":              "patches_dir: db/patches\n",
		"db/patches/0001_add_email.yaml": patchYAML("1.0.0", "1.0.1", ""),
	})

	out, err := runApp(t, "", "--dir", dir, "discover")
	require.NoError(t, err)
	require.Equal(t, "Patches available:\n - 1.0.1\n", out)
	require.NotNil(t, currentConfig)
	require.Equal(t, "db/patches", currentConfig.PatchesDir)
}

func TestRun_StaleConfigCleared(t *testing.T) {
	// A project loaded by one invocation must not leak into the next
	dir := writeProject(t, map[string]string{
		"mongopatcher.yaml": "patches_dir: db/patches\n",
	})

	_, err := runApp(t, "", "--dir", dir, "discover")
	require.NoError(t, err)
	require.NotNil(t, currentConfig)

	_, err = runApp(t, "", "--dir", t.TempDir(), "discover")
	require.NoError(t, err)
	require.Nil(t, currentConfig)
}

func TestRun_MissingProjectDir(t *testing.T) {
	_, err := runApp(t, "", "--dir", filepath.Join(t.TempDir(), "nope"), "discover")
	require.Error(t, err)
}

func TestRun_MalformedProjectFile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"mongopatcher.yaml": "mongodb: [",
	})

	_, err := runApp(t, "", "--dir", dir, "discover")
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to unmarshal project config")
}

func TestRegisterFix(t *testing.T) {
	stubRegistry(t, patch.NewRegistry())

	RegisterFix("tighten_indexes", func(ctx context.Context, db *mongo.Database) (string, error) {
		return "", nil
	})

	_, ok := fixRegistry.Lookup("tighten_indexes")
	require.True(t, ok)

	// Like database/sql.Register, a duplicate name panics
	require.Panics(t, func() {
		RegisterFix("tighten_indexes", func(ctx context.Context, db *mongo.Database) (string, error) {
			return "", nil
		})
	})
}
