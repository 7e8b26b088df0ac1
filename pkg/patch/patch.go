package patch

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

type (
	// Fix is a single unit of work mutating the database, registered to a
	// patch under a name. The returned string, when non-empty, is surfaced
	// to the operator as a post-scriptum after the patch completes.
	//
	// Fixes receive the raw database handle and are expected to be
	// idempotent in intent: there is no rollback, so a fix that fails after
	// a partial write leaves its side effects in place.
	Fix func(ctx context.Context, db *mongo.Database) (string, error)

	// Patch describes a single datamodel transition from BaseVersion to
	// TargetVersion, carried out by an ordered list of fixes.
	//
	// A patch is constructed once per discovered definition and never
	// persisted; only its effects and the version transition are recorded
	// in the manifest.
	//
	// Example usage:
	//
	//	p, err := patch.New("1.0.0", "1.0.1")
	//	if err != nil {
	//		log.Fatal(err)
	//	}
	//	p.Patchnote = "Rename the login field to email on user documents."
	//	p.AddFix("rename_login_field", func(ctx context.Context, db *mongo.Database) (string, error) {
	//		_, err := db.Collection("users").UpdateMany(ctx,
	//			bson.M{}, bson.M{"$rename": bson.M{"login": "email"}})
	//		return "", err
	//	})
	Patch struct {
		// BaseVersion is the datamodel version this patch applies against.
		BaseVersion string

		// TargetVersion is the datamodel version once the patch is applied.
		TargetVersion string

		// Patchnote describes the patch for discovery listings.
		Patchnote string

		// PS is an optional message surfaced to the operator after the
		// patch has been applied, typically signaling a required manual
		// follow-up such as a search index rebuild.
		PS string

		fixes []registeredFix
	}

	registeredFix struct {
		name string
		fn   Fix
	}
)

// New creates a patch for the given version transition. Both versions must
// be well formed x.y.z triplets.
func New(baseVersion, targetVersion string) (*Patch, error) {
	if err := ValidateVersion(baseVersion); err != nil {
		return nil, errors.Wrap(err, "base version")
	}
	if err := ValidateVersion(targetVersion); err != nil {
		return nil, errors.Wrap(err, "target version")
	}

	return &Patch{
		BaseVersion:   baseVersion,
		TargetVersion: targetVersion,
	}, nil
}

// AddFix registers a named fix to run when the patch is applied. Fixes run
// in registration order. It returns the patch to allow chaining.
//
// A failing fix stops the patch without undoing earlier fixes; steps that
// must not be split by a failure belong inside a single fix.
func (p *Patch) AddFix(name string, fn Fix) *Patch {
	p.fixes = append(p.fixes, registeredFix{name: name, fn: fn})
	return p
}

// Fixes returns the names of the registered fixes in registration order.
func (p *Patch) Fixes() []string {
	names := make([]string, len(p.fixes))
	for i, f := range p.fixes {
		names[i] = f.name
	}
	return names
}

// Compare orders patches by target version, for use with slices.SortFunc.
// Versions are validated at construction, so unparseable ones only occur on
// hand-built patches and sort as 0.0.0.
func (p *Patch) Compare(other *Patch) int {
	pv, _ := ParseVersion(p.TargetVersion)
	ov, _ := ParseVersion(other.TargetVersion)
	return pv.Compare(ov)
}

// CanBeApplied checks that the datamodel's current version matches the
// patch's base version. It performs no mutation and fails with
// ErrVersionMismatch on any other version.
func (p *Patch) CanBeApplied(ctx context.Context, manifest *Manifest) error {
	current, err := manifest.Version(ctx)
	if err != nil {
		return err
	}

	if current != p.BaseVersion {
		return errors.Wrapf(ErrVersionMismatch, "required: %s, available: %s", p.BaseVersion, current)
	}
	return nil
}

// Apply runs the patch against the datamodel: it checks the version
// precondition (unless force is true), executes each fix in registration
// order, and finally records the transition in the manifest. Per-fix
// progress is written to out.
//
// The returned post-scripta are the non-empty strings returned by fixes,
// each prefixed with the fix's name.
//
// A failing fix aborts the patch immediately: fixes already applied are not
// rolled back and the manifest is not updated, leaving the datamodel at its
// declared base version with partial side effects in place. Recovery from
// that state is a manual operator responsibility.
//
// Force skips the precondition check only. It is intended for
// administrative recovery, not normal operation.
func (p *Patch) Apply(ctx context.Context, out io.Writer, manifest *Manifest, db *mongo.Database, force bool) ([]string, error) {
	if out == nil {
		out = io.Discard
	}

	if !force {
		if err := p.CanBeApplied(ctx, manifest); err != nil {
			return nil, err
		}
	}

	var pss []string
	for _, f := range p.fixes {
		fmt.Fprintf(out, "\t%s...", f.name)

		ps, err := f.fn(ctx, db)
		if err != nil {
			fmt.Fprintln(out, " Failed !")
			return nil, errors.Wrapf(err, "fix %s failed", f.name)
		}
		if ps != "" {
			pss = append(pss, fmt.Sprintf("%s: %s", f.name, ps))
		}

		fmt.Fprintln(out, " Done !")
	}

	reason := fmt.Sprintf("Upgrade from %s", p.BaseVersion)
	if err := manifest.Update(ctx, p.TargetVersion, reason); err != nil {
		return nil, err
	}

	return pss, nil
}
