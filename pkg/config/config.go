package config

import (
	"io"
	"os"

	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/consts"
	"gopkg.in/yaml.v3"
)

type (
	// MongoDB represents MongoDB-specific configuration settings.
	MongoDB struct {
		// URI is the connection string of the deployment to patch
		URI string `yaml:"uri,omitempty"`

		// Database is the database holding both the application data and
		// the manifest document
		Database string `yaml:"database,omitempty"`

		// Collection is the collection the manifest document lives in
		Collection string `yaml:"collection,omitempty"`

		// Version specifies the MongoDB server version used when starting
		// a local development instance
		Version string `yaml:"version,omitempty"`
	}

	// Config represents the project configuration for datamodel patching.
	Config struct {
		// MongoDB contains MongoDB-specific configuration settings
		MongoDB MongoDB `yaml:"mongodb"`

		// PatchesDir specifies the directory where patch definition files
		// are stored
		PatchesDir string `yaml:"patches_dir,omitempty"`

		// DatamodelVersion is the datamodel version the application
		// expects. When empty it is derived from the highest target
		// version among the discovered patches.
		DatamodelVersion string `yaml:"datamodel_version,omitempty"`
	}
)

// LoadConfig parses a project configuration from the provided io.Reader.
//
// The function expects YAML-formatted configuration data naming the MongoDB
// deployment and the patches directory. Missing values fall back to the
// defaults from the consts package; the database name defaults to "test",
// matching the MongoDB shell convention.
//
// Example:
//
//	yamlData := `
//	mongodb:
//	  uri: mongodb://localhost:27017
//	  database: app
//	patches_dir: patches
//	`
//
//	cfg, err := config.LoadConfig(strings.NewReader(yamlData))
//	if err != nil {
//		panic(err)
//	}
//
//	fmt.Printf("Patching %s\n", cfg.MongoDB.Database)
func LoadConfig(r io.Reader) (*Config, error) {
	var cfg Config
	if err := yaml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal project config")
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration with every value set to its default.
// Commands run outside a project directory operate on this.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults sets default values for anything left unspecified.
func (cfg *Config) applyDefaults() {
	if cfg.MongoDB.URI == "" {
		cfg.MongoDB.URI = consts.DefaultMongoURI
	}
	if cfg.MongoDB.Database == "" {
		cfg.MongoDB.Database = consts.DefaultMongoDatabase
	}
	if cfg.MongoDB.Collection == "" {
		cfg.MongoDB.Collection = consts.DefaultCollection
	}
	if cfg.MongoDB.Version == "" {
		cfg.MongoDB.Version = consts.DefaultMongoVersion
	}
	if cfg.PatchesDir == "" {
		cfg.PatchesDir = consts.DefaultPatchesDir
	}
}

// LoadConfigFile loads a project configuration from the specified file path.
// This is a convenience function that opens the file and calls LoadConfig.
//
// Example:
//
//	cfg, err := config.LoadConfigFile("mongopatcher.yaml")
//	if err != nil {
//		log.Fatal("Failed to load config:", err)
//	}
//
//	fmt.Printf("URI: %s, Patches dir: %s\n", cfg.MongoDB.URI, cfg.PatchesDir)
func LoadConfigFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open file: %s", path)
	}
	defer func() { _ = f.Close() }()

	return LoadConfig(f)
}
