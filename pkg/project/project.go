package project

import (
	"bytes"
	_ "embed"
	"os"
	"path/filepath"
	"testing/fstest"
	"text/template"

	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/config"
	"github.com/scille/mongopatcher/pkg/consts"
	"github.com/scille/mongopatcher/pkg/patch"
	"gopkg.in/yaml.v3"
)

var (
	//go:embed embed/mongopatcher.yaml
	defaultConfig []byte

	image = fstest.MapFS{
		consts.DefaultPatchesDir: {Mode: os.ModeDir | 0o755},
		consts.ConfigFile:        {Data: defaultConfig},
	}

	// File name and content of a scaffolded patch definition.
	patchNameTemplate = template.Must(template.New("").Parse(
		"{{ .TargetVersion }}_{{ .Name }}.yaml",
	))
	patchContentTemplate = template.Must(template.New("").Parse(
		`base_version: {{ .BaseVersion }}
target_version: {{ .TargetVersion }}
patchnote: |
  Describe what this patch changes in the datamodel.
# ps: Optional note shown to the operator after the patch applies,
#     e.g. "Rebuild the search index".
# Fixes are Go functions registered on the application's fix registry;
# list their names here in execution order.
fixes: []
`))
)

type (
	// InitOptions contains options for project initialization
	InitOptions struct {
		// URI overrides the MongoDB connection string written to the
		// scaffolded configuration. If empty, the default is kept.
		URI string
	}

	// PatchOptions describes the patch definition stub to scaffold.
	PatchOptions struct {
		// Name is a short snake_case label for the patch, used in the
		// file name
		Name string

		// BaseVersion and TargetVersion are the transition the patch
		// performs; both must be well formed x.y.z triplets
		BaseVersion   string
		TargetVersion string
	}

	// Project manages a mongopatcher project directory: the configuration
	// file and the patches tree next to it.
	Project struct {
		root   string
		config *config.Config
	}
)

// New creates a new Project instance rooted at path. The path should point
// to an existing directory that will serve as the project root.
//
// Example:
//
//	project := project.New("/path/to/my/app")
//
//	if err := project.Initialize(project.InitOptions{}); err != nil {
//		log.Fatal(err)
//	}
func New(path string) *Project {
	return &Project{root: path}
}

// Initialize sets up the project directory structure and loads the
// configuration. This method is idempotent - it will only create missing
// files and directories, preserving any existing content. It creates the
// mongopatcher.yaml configuration file and the patches directory.
func (p *Project) Initialize(options InitOptions) error {
	if err := p.ensureDirectory(); err != nil {
		return err
	}

	// Walk the embedded FS and create missing files/directories
	for path, entry := range image {
		fullPath := filepath.Join(p.root, path)

		if _, err := os.Stat(fullPath); err == nil {
			// Entry exists, skip it
			continue
		} else if !os.IsNotExist(err) {
			return errors.Wrapf(err, "failed to stat %s", fullPath)
		}

		if entry.Mode.IsDir() {
			if err := os.MkdirAll(fullPath, entry.Mode.Perm()); err != nil {
				return errors.Wrapf(err, "failed to create directory %s", fullPath)
			}

			continue
		}

		if err := os.MkdirAll(filepath.Dir(fullPath), consts.ModeDir); err != nil {
			return errors.Wrapf(err, "failed to create parent directory for %s", fullPath)
		}

		if err := os.WriteFile(fullPath, entry.Data, consts.ModeFile); err != nil {
			return errors.Wrapf(err, "failed to write file %s", fullPath)
		}
	}

	cfg, err := config.LoadConfigFile(filepath.Join(p.root, consts.ConfigFile))
	if err != nil {
		return errors.Wrapf(err, "failed to load %s", consts.ConfigFile)
	}

	// Apply custom options if provided
	if options.URI != "" && options.URI != cfg.MongoDB.URI {
		cfg.MongoDB.URI = options.URI

		if err := p.writeConfig(cfg); err != nil {
			return err
		}
	}

	p.config = cfg
	return nil
}

// Config returns the project configuration loaded by Initialize.
func (p *Project) Config() *config.Config {
	return p.config
}

// PatchesDir returns the absolute path of the project's patches directory.
func (p *Project) PatchesDir() string {
	dir := consts.DefaultPatchesDir
	if p.config != nil && p.config.PatchesDir != "" {
		dir = p.config.PatchesDir
	}

	return filepath.Join(p.root, dir)
}

// CreatePatch scaffolds a patch definition stub in the patches directory
// and returns the created file's path. It refuses to overwrite an existing
// file.
//
// Example:
//
//	path, err := project.CreatePatch(project.PatchOptions{
//		Name:          "split_user_names",
//		BaseVersion:   "1.0.0",
//		TargetVersion: "1.0.1",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Created %s\n", path)
func (p *Project) CreatePatch(options PatchOptions) (string, error) {
	if options.Name == "" {
		return "", errors.New("patch name is required")
	}
	if err := patch.ValidateVersion(options.BaseVersion); err != nil {
		return "", errors.Wrap(err, "base version")
	}
	if err := patch.ValidateVersion(options.TargetVersion); err != nil {
		return "", errors.Wrap(err, "target version")
	}

	var name, content bytes.Buffer
	if err := patchNameTemplate.Execute(&name, options); err != nil {
		return "", errors.Wrap(err, "failed to render patch file name")
	}
	if err := patchContentTemplate.Execute(&content, options); err != nil {
		return "", errors.Wrap(err, "failed to render patch definition")
	}

	dir := p.PatchesDir()
	if err := os.MkdirAll(dir, consts.ModeDir); err != nil {
		return "", errors.Wrapf(err, "failed to create patches directory %s", dir)
	}

	path := filepath.Join(dir, name.String())
	if _, err := os.Stat(path); err == nil {
		return "", errors.Errorf("patch file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to stat %s", path)
	}

	if err := os.WriteFile(path, content.Bytes(), consts.ModeFile); err != nil {
		return "", errors.Wrapf(err, "failed to write patch file %s", path)
	}

	return path, nil
}

func (p *Project) ensureDirectory() error {
	dir, err := os.Stat(p.root)
	if err != nil {
		return errors.Wrapf(err, "failed to stat dir: %s", p.root)
	}

	if !dir.IsDir() {
		return errors.Errorf("%s is not a directory", p.root)
	}

	return nil
}

func (p *Project) writeConfig(cfg *config.Config) error {
	configPath := filepath.Join(p.root, consts.ConfigFile)
	configFile, err := os.Create(configPath)
	if err != nil {
		return errors.Wrapf(err, "failed to open config file for writing: %s", configPath)
	}
	defer func() { _ = configFile.Close() }()

	encoder := yaml.NewEncoder(configFile)
	if err := encoder.Encode(cfg); err != nil {
		return errors.Wrap(err, "failed to write updated config")
	}

	return errors.Wrap(encoder.Close(), "failed to close yaml encoder")
}
