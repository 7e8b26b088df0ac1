package consts

import "os"

const (
	// ConfigFile is the name of the project configuration file.
	ConfigFile = "mongopatcher.yaml"

	// DefaultCollection is the collection holding the datamodel manifest.
	DefaultCollection = "mongopatcher"

	// DefaultPatchesDir is the directory searched for patch definition files.
	DefaultPatchesDir = "patches"

	// DefaultMongoURI is the connection string used when none is configured.
	DefaultMongoURI = "mongodb://localhost:27017"

	// DefaultMongoDatabase is the database patched when none is configured,
	// matching the MongoDB shell convention.
	DefaultMongoDatabase = "test"

	// DefaultMongoVersion is the MongoDB version used for the dev server.
	DefaultMongoVersion = "7.0"

	// DefaultDatamodelVersion is the version used to initialize a manifest
	// when no version is configured and no patches have been discovered.
	DefaultDatamodelVersion = "1.0.0"
)

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)
)
