package project_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/scille/mongopatcher/pkg/config"
	"github.com/scille/mongopatcher/pkg/consts"
	"github.com/scille/mongopatcher/pkg/patch"
	"github.com/scille/mongopatcher/pkg/project"
	"github.com/stretchr/testify/require"
)

func TestProjectInitialize(t *testing.T) {
	t.Run("creates missing directories and files", func(t *testing.T) {
		tmpDir := t.TempDir()

		proj := project.New(tmpDir)
		require.NoError(t, proj.Initialize(project.InitOptions{}))

		require.DirExists(t, filepath.Join(tmpDir, "patches"))
		require.FileExists(t, filepath.Join(tmpDir, "mongopatcher.yaml"))

		configYAML, err := os.ReadFile(filepath.Join(tmpDir, "mongopatcher.yaml"))
		require.NoError(t, err)
		require.NotEmpty(t, configYAML)

		cfg := proj.Config()
		require.NotNil(t, cfg)
		require.Equal(t, consts.DefaultMongoURI, cfg.MongoDB.URI)
		require.Equal(t, consts.DefaultMongoDatabase, cfg.MongoDB.Database)
		require.Equal(t, consts.DefaultCollection, cfg.MongoDB.Collection)
		require.Equal(t, consts.DefaultPatchesDir, cfg.PatchesDir)
	})

	t.Run("is idempotent", func(t *testing.T) {
		proj := project.New(t.TempDir())
		require.NoError(t, proj.Initialize(project.InitOptions{}))
		require.NoError(t, proj.Initialize(project.InitOptions{}))
	})

	t.Run("preserves existing files", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, consts.ConfigFile)

		custom := "mongodb:\n  database: accounts\n"
		require.NoError(t, os.WriteFile(configPath, []byte(custom), consts.ModeFile))

		proj := project.New(tmpDir)
		require.NoError(t, proj.Initialize(project.InitOptions{}))

		content, err := os.ReadFile(configPath)
		require.NoError(t, err)
		require.Equal(t, custom, string(content), "existing config is preserved")
		require.Equal(t, "accounts", proj.Config().MongoDB.Database)
	})

	t.Run("overrides the URI when asked", func(t *testing.T) {
		tmpDir := t.TempDir()

		proj := project.New(tmpDir)
		require.NoError(t, proj.Initialize(project.InitOptions{URI: "mongodb://db.internal:27017"}))
		require.Equal(t, "mongodb://db.internal:27017", proj.Config().MongoDB.URI)

		// The override is persisted, not just applied in memory.
		cfg, err := config.LoadConfigFile(filepath.Join(tmpDir, consts.ConfigFile))
		require.NoError(t, err)
		require.Equal(t, "mongodb://db.internal:27017", cfg.MongoDB.URI)
	})

	t.Run("error", func(t *testing.T) {
		err := project.New(filepath.Join(t.TempDir(), "missing")).Initialize(project.InitOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "failed to stat dir")

		file := filepath.Join(t.TempDir(), "file")
		require.NoError(t, os.WriteFile(file, []byte("x"), consts.ModeFile))
		err = project.New(file).Initialize(project.InitOptions{})
		require.Error(t, err)
		require.Contains(t, err.Error(), "is not a directory")
	})
}

func TestProjectPatchesDir(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		tmpDir := t.TempDir()
		require.Equal(t, filepath.Join(tmpDir, "patches"), project.New(tmpDir).PatchesDir())
	})

	t.Run("honors patches_dir from the config", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, consts.ConfigFile)
		require.NoError(t, os.WriteFile(configPath, []byte("patches_dir: db/patches\n"), consts.ModeFile))

		proj := project.New(tmpDir)
		require.NoError(t, proj.Initialize(project.InitOptions{}))
		require.Equal(t, filepath.Join(tmpDir, "db", "patches"), proj.PatchesDir())
	})
}

func TestProjectCreatePatch(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		tmpDir := t.TempDir()
		proj := project.New(tmpDir)
		require.NoError(t, proj.Initialize(project.InitOptions{}))

		path, err := proj.CreatePatch(project.PatchOptions{
			Name:          "split_user_names",
			BaseVersion:   "1.0.0",
			TargetVersion: "1.0.1",
		})
		require.NoError(t, err)
		require.Equal(t, filepath.Join(tmpDir, "patches", "1.0.1_split_user_names.yaml"), path)
		require.FileExists(t, path)

		content, err := os.ReadFile(path)
		require.NoError(t, err)
		require.Contains(t, string(content), "base_version: 1.0.0")
		require.Contains(t, string(content), "target_version: 1.0.1")
		require.Contains(t, string(content), "fixes: []")
	})

	t.Run("the stub is discoverable", func(t *testing.T) {
		proj := project.New(t.TempDir())
		require.NoError(t, proj.Initialize(project.InitOptions{}))

		_, err := proj.CreatePatch(project.PatchOptions{
			Name:          "noop",
			BaseVersion:   "1.0.0",
			TargetVersion: "1.0.1",
		})
		require.NoError(t, err)

		patches, err := patch.Discover(os.DirFS(proj.PatchesDir()), patch.NewRegistry())
		require.NoError(t, err)
		require.Len(t, patches, 1)
		require.Equal(t, "1.0.0", patches[0].BaseVersion)
		require.Equal(t, "1.0.1", patches[0].TargetVersion)
		require.NotEmpty(t, patches[0].Patchnote)
	})

	t.Run("creates the patches directory on demand", func(t *testing.T) {
		tmpDir := t.TempDir()

		// No Initialize: the patches directory does not exist yet.
		path, err := project.New(tmpDir).CreatePatch(project.PatchOptions{
			Name:          "bootstrap",
			BaseVersion:   "1.0.0",
			TargetVersion: "1.0.1",
		})
		require.NoError(t, err)
		require.DirExists(t, filepath.Join(tmpDir, "patches"))
		require.FileExists(t, path)
	})

	t.Run("refuses to overwrite", func(t *testing.T) {
		proj := project.New(t.TempDir())

		options := project.PatchOptions{
			Name:          "split_user_names",
			BaseVersion:   "1.0.0",
			TargetVersion: "1.0.1",
		}

		_, err := proj.CreatePatch(options)
		require.NoError(t, err)

		_, err = proj.CreatePatch(options)
		require.Error(t, err)
		require.Contains(t, err.Error(), "patch file already exists")
	})

	t.Run("error", func(t *testing.T) {
		proj := project.New(t.TempDir())

		_, err := proj.CreatePatch(project.PatchOptions{BaseVersion: "1.0.0", TargetVersion: "1.0.1"})
		require.Error(t, err)
		require.Contains(t, err.Error(), "patch name is required")

		_, err = proj.CreatePatch(project.PatchOptions{Name: "x", BaseVersion: "1.0", TargetVersion: "1.0.1"})
		require.ErrorIs(t, err, patch.ErrInvalidVersion)

		_, err = proj.CreatePatch(project.PatchOptions{Name: "x", BaseVersion: "1.0.0", TargetVersion: "next"})
		require.ErrorIs(t, err, patch.ErrInvalidVersion)
	})
}
