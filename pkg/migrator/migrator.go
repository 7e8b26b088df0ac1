package migrator

import (
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/scille/mongopatcher/pkg/consts"
	"github.com/scille/mongopatcher/pkg/patch"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type (
	// Migrator drives incremental datamodel upgrades for a MongoDB database.
	//
	// A Migrator ties together the patches directory, the fix registry and
	// the manifest tracking the datamodel version. Its central operation is
	// Upgrade: discover the available patches, index them by base version,
	// then apply whichever patch matches the current datamodel version,
	// walking forward one version at a time until no further patch applies.
	//
	// The walk relies on exact version equality for chaining. Patches whose
	// base version is never reached are simply left out of the run; they are
	// not an error.
	//
	// Example usage:
	//
	//	m := migrator.New(migrator.Config{
	//		DB:         db,
	//		Store:      mongodb.NewManifestStore(db, consts.DefaultCollection),
	//		PatchesDir: "patches",
	//		Registry:   registry,
	//	})
	//
	//	report, err := m.Upgrade(ctx, false)
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//	fmt.Println(report.FinalVersion)
	Migrator struct {
		db               *mongo.Database
		manifest         *patch.Manifest
		registry         *patch.Registry
		patchesDir       string
		datamodelVersion string
		out              io.Writer
	}

	// Config contains configuration options for creating a new Migrator.
	Config struct {
		// DB is the database handed to each fix during patch application
		DB *mongo.Database

		// Store persists the datamodel manifest
		Store patch.ManifestStore

		// PatchesDir is the directory holding patch definition files
		// (default: consts.DefaultPatchesDir)
		PatchesDir string

		// Registry resolves the fix names referenced by patch files
		// (default: empty registry)
		Registry *patch.Registry

		// DatamodelVersion is the version the application expects the
		// datamodel to be in. When empty it is derived from the highest
		// discovered target version (see Migrator.DatamodelVersion).
		DatamodelVersion string

		// Out receives progress output (default: os.Stdout)
		Out io.Writer
	}

	// Report summarizes a single Upgrade run.
	Report struct {
		// StartVersion is the manifest version before the run
		StartVersion string

		// FinalVersion is the manifest version after the run. On a dry run
		// this is the version the datamodel would reach.
		FinalVersion string

		// Applied lists the version transitions in application order
		Applied []Transition

		// PostScripta holds one formatted note block per patch that left
		// messages for the operator, in application order
		PostScripta []string

		// DryRun records whether the run was a simulation
		DryRun bool
	}

	// Transition is a single version hop performed (or simulated) by a run.
	Transition struct {
		From string
		To   string
	}
)

// New creates a migrator with the provided configuration.
func New(config Config) *Migrator {
	m := &Migrator{
		db:               config.DB,
		manifest:         patch.NewManifest(config.Store),
		registry:         config.Registry,
		patchesDir:       config.PatchesDir,
		datamodelVersion: config.DatamodelVersion,
		out:              config.Out,
	}

	if m.registry == nil {
		m.registry = patch.NewRegistry()
	}
	if m.patchesDir == "" {
		m.patchesDir = consts.DefaultPatchesDir
	}
	if m.out == nil {
		m.out = os.Stdout
	}

	return m
}

// Manifest returns the manifest tracking the datamodel version.
func (m *Migrator) Manifest() *patch.Manifest {
	return m.manifest
}

// Discover collects every patch defined under the configured patches
// directory and returns them sorted by target version in ascending order.
// A missing directory yields no patches rather than an error, so projects
// without patches yet can still run the other operations.
func (m *Migrator) Discover() ([]*patch.Patch, error) {
	if _, err := os.Stat(m.patchesDir); os.IsNotExist(err) {
		return nil, nil
	}

	patches, err := patch.Discover(os.DirFS(m.patchesDir), m.registry)
	if err != nil {
		return nil, err
	}

	slices.SortFunc(patches, (*patch.Patch).Compare)
	return patches, nil
}

// DatamodelVersion returns the version the application expects the datamodel
// to be in. When none was configured it falls back to the highest target
// version among the discovered patches, and failing that to
// consts.DefaultDatamodelVersion.
func (m *Migrator) DatamodelVersion() (string, error) {
	if m.datamodelVersion != "" {
		return m.datamodelVersion, nil
	}

	patches, err := m.Discover()
	if err != nil {
		return "", err
	}
	if len(patches) == 0 {
		return consts.DefaultDatamodelVersion, nil
	}

	return patches[len(patches)-1].TargetVersion, nil
}

// NeedUpgrade reports whether the manifest's version differs from the
// version the application expects. Callers typically check this at startup
// and refuse to serve until the datamodel is upgraded.
func (m *Migrator) NeedUpgrade(ctx context.Context) (bool, error) {
	expected, err := m.DatamodelVersion()
	if err != nil {
		return false, err
	}

	current, err := m.manifest.Version(ctx)
	if err != nil {
		return false, err
	}

	return current != expected, nil
}

// Upgrade discovers the available patches and applies every patch reachable
// from the current datamodel version, one version hop at a time, until no
// patch claims the version reached. Progress and the final version are
// written to the configured output; the returned report carries the same
// information for programmatic use.
//
// When dryRun is true the walk is simulated in memory: no fix runs and the
// manifest is read once but never written, so the datamodel is left exactly
// as it was.
//
// A patch set in which the walk revisits a version fails with
// ErrCycleDetected instead of looping forever. On a real run the patches
// applied before the cycle was entered remain applied.
func (m *Migrator) Upgrade(ctx context.Context, dryRun bool) (*Report, error) {
	patches, err := m.Discover()
	if err != nil {
		return nil, err
	}

	byBase, err := buildPatchMap(patches)
	if err != nil {
		return nil, err
	}

	current, err := m.manifest.Version(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{
		StartVersion: current,
		FinalVersion: current,
		DryRun:       dryRun,
	}

	if _, ok := byBase[current]; !ok {
		fmt.Fprintln(m.out, "No patch to apply")
		return report, nil
	}

	finalMsg := "Datamodel is now in version %s !\n"
	if dryRun {
		finalMsg = "Datamodel should be in version %s !\n"
	}

	visited := make(map[string]bool)
	for {
		p, ok := byBase[current]
		if !ok {
			break
		}
		if visited[current] {
			return nil, errors.Wrapf(patch.ErrCycleDetected, "version %s reached twice", current)
		}
		visited[current] = true

		fmt.Fprintf(m.out, "Applying patch %s => %s\n", p.BaseVersion, p.TargetVersion)

		var pss []string
		if p.PS != "" {
			pss = append(pss, p.PS)
		}

		if !dryRun {
			fixPss, err := p.Apply(ctx, m.out, m.manifest, m.db, false)
			if err != nil {
				return nil, err
			}
			pss = append(pss, fixPss...)

			// Drop the manifest cache so the next iteration observes the
			// version this patch just committed.
			m.manifest.Reload()
		}

		if len(pss) > 0 {
			report.PostScripta = append(report.PostScripta,
				fmt.Sprintf("Patch %s:\n%s", p.TargetVersion, indent(strings.Join(pss, "\n"))))
		}

		report.Applied = append(report.Applied, Transition{From: p.BaseVersion, To: p.TargetVersion})
		current = p.TargetVersion
		report.FinalVersion = current
	}

	fmt.Fprintf(m.out, finalMsg, current)
	if len(report.PostScripta) > 0 {
		fmt.Fprintln(m.out)
		fmt.Fprintln(m.out, strings.Join(report.PostScripta, "\n"))
	}

	return report, nil
}

// ApplyPatch applies a single patch outside the chained walk, writing fix
// progress to the configured output. Force skips the base version check and
// is intended for administrative recovery.
func (m *Migrator) ApplyPatch(ctx context.Context, p *patch.Patch, force bool) ([]string, error) {
	return p.Apply(ctx, m.out, m.manifest, m.db, force)
}

// buildPatchMap indexes patches by base version. Two patches claiming the
// same base version would make the walk nondeterministic, so that fails
// outright rather than letting one silently shadow the other.
func buildPatchMap(patches []*patch.Patch) (map[string]*patch.Patch, error) {
	byBase := make(map[string]*patch.Patch, len(patches))
	for _, p := range patches {
		if existing, ok := byBase[p.BaseVersion]; ok {
			return nil, errors.Wrapf(patch.ErrDuplicateBaseVersion,
				"version %s targeted by both %s and %s",
				p.BaseVersion, existing.TargetVersion, p.TargetVersion)
		}
		byBase[p.BaseVersion] = p
	}

	return byBase, nil
}

// indent prefixes every line of txt with a tab, trimming each line's
// surrounding whitespace first.
func indent(txt string) string {
	lines := strings.Split(txt, "\n")
	for i, line := range lines {
		lines[i] = "\t" + strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
