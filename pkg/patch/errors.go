package patch

import "github.com/pkg/errors"

// Sentinel errors returned by manifest and patch operations. Call sites wrap
// these with additional context, so callers should match them with errors.Is
// rather than direct comparison.
var (
	// ErrInvalidVersion indicates a version string that does not match the
	// x.y.z numeric triplet format.
	ErrInvalidVersion = errors.New("invalid version format (expected x.y.z)")

	// ErrManifestMissing indicates the datamodel has no manifest document.
	// Recoverable by calling Manifest.Initialize.
	ErrManifestMissing = errors.New("datamodel manifest is missing")

	// ErrManifestAlreadyExists indicates an attempt to initialize a datamodel
	// that already has a manifest document.
	ErrManifestAlreadyExists = errors.New("datamodel already has a manifest")

	// ErrVersionMismatch indicates a patch whose base version does not match
	// the datamodel's current version.
	ErrVersionMismatch = errors.New("patch cannot be applied to the current datamodel version")

	// ErrDuplicateBaseVersion indicates two discovered patches claiming the
	// same base version, which would make the upgrade chain ambiguous.
	ErrDuplicateBaseVersion = errors.New("duplicate base version in patch set")

	// ErrCycleDetected indicates a patch chain that revisits a version it
	// already passed through.
	ErrCycleDetected = errors.New("cycle detected in patch chain")

	// ErrUnknownFix indicates a patch definition referencing a fix name that
	// has not been registered.
	ErrUnknownFix = errors.New("unknown fix")
)
