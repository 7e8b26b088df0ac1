package patch

import (
	"io"
	"io/fs"
	"path/filepath"
	"slices"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// patchExts lists the file extensions considered by discovery. Anything
// else in the tree is skipped without comment.
var patchExts = []string{".yaml", ".yml"}

// definition is the YAML shape of a single patch document.
type definition struct {
	BaseVersion   string   `yaml:"base_version"`
	TargetVersion string   `yaml:"target_version"`
	Patchnote     string   `yaml:"patchnote"`
	PS            string   `yaml:"ps"`
	Fixes         []string `yaml:"fixes"`
}

// Discover walks the whole filesystem tree collecting every patch defined in
// it. Each .yaml/.yml file may hold zero or more YAML documents; a document
// counts as a patch definition only when it is a mapping carrying both
// base_version and target_version keys. Other documents and other files are
// skipped silently, so patch files can sit next to unrelated configuration.
//
// Fix names listed in a definition are resolved against registry; an
// unresolved name fails discovery with ErrUnknownFix. Malformed YAML fails
// discovery outright.
//
// The result preserves directory walk order. Consumers needing a display
// order sort by target version themselves.
//
// Example usage:
//
//	registry := patch.NewRegistry().
//		Register("rename_login_field", renameLoginField)
//
//	patches, err := patch.Discover(os.DirFS("patches"), registry)
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, p := range patches {
//		fmt.Printf("%s => %s\n", p.BaseVersion, p.TargetVersion)
//	}
func Discover(fsys fs.FS, registry *Registry) ([]*Patch, error) {
	var patches []*Patch

	// NB: WalkDir always walks in lexical order.
	err := fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !slices.Contains(patchExts, filepath.Ext(path)) {
			return nil
		}

		f, err := fsys.Open(path)
		if err != nil {
			return errors.Wrapf(err, "failed to open: %s", path)
		}
		defer func() { _ = f.Close() }()

		found, err := decodePatches(f, registry)
		if err != nil {
			return errors.Wrapf(err, "failed to load patch file: %s", path)
		}

		patches = append(patches, found...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return patches, nil
}

// decodePatches reads every YAML document from r and builds a Patch from
// each one that looks like a patch definition.
func decodePatches(r io.Reader, registry *Registry) ([]*Patch, error) {
	var patches []*Patch

	dec := yaml.NewDecoder(r)
	for {
		var node yaml.Node
		if err := dec.Decode(&node); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, errors.Wrap(err, "failed to parse document")
		}

		root := &node
		if root.Kind == yaml.DocumentNode {
			if len(root.Content) == 0 {
				continue
			}
			root = root.Content[0]
		}
		if !isDefinition(root) {
			continue
		}

		var def definition
		if err := root.Decode(&def); err != nil {
			return nil, errors.Wrap(err, "failed to decode patch definition")
		}

		p, err := build(def, registry)
		if err != nil {
			return nil, err
		}
		patches = append(patches, p)
	}

	return patches, nil
}

// isDefinition reports whether a YAML node is a mapping carrying both
// version keys. Everything else is treated as unrelated content.
func isDefinition(n *yaml.Node) bool {
	if n.Kind != yaml.MappingNode {
		return false
	}

	var base, target bool
	for i := 0; i+1 < len(n.Content); i += 2 {
		switch n.Content[i].Value {
		case "base_version":
			base = true
		case "target_version":
			target = true
		}
	}
	return base && target
}

func build(def definition, registry *Registry) (*Patch, error) {
	p, err := New(def.BaseVersion, def.TargetVersion)
	if err != nil {
		return nil, err
	}

	p.Patchnote = def.Patchnote
	p.PS = def.PS

	for _, name := range def.Fixes {
		fn, ok := registry.Lookup(name)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownFix, "%q (registered: %v)", name, registry.Names())
		}
		p.AddFix(name, fn)
	}

	return p, nil
}
