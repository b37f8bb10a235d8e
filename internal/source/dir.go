package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"topomap/core-go/internal/topology"
)

var documentExts = []string{".json", ".yaml", ".yml"}

// Dir serves every .json, .yaml and .yml file in Root. A file's name without extension is the
// topology name.
type Dir struct {
	Root string
}

func NewDir(root string) *Dir {
	return &Dir{Root: root}
}

func (d *Dir) List(ctx context.Context) ([]topology.Descriptor, error) {
	entries, err := os.ReadDir(d.Root)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.Root, err)
	}
	seen := map[string]bool{}
	var out []topology.Descriptor
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		name, ok := topologyName(e.Name())
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		desc := topology.Descriptor{Name: name}
		if doc, err := d.read(name, e.Name()); err == nil {
			desc = describe(doc)
		}
		out = append(out, desc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (d *Dir) Fetch(ctx context.Context, name string) (*topology.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return nil, fmt.Errorf("%w: %q", ErrTopologyNotFound, name)
	}
	for _, ext := range documentExts {
		doc, err := d.read(name, name+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return doc, err
	}
	return nil, fmt.Errorf("%w: %q", ErrTopologyNotFound, name)
}

func (d *Dir) read(name, filename string) (*topology.Document, error) {
	data, err := os.ReadFile(filepath.Join(d.Root, filename))
	if err != nil {
		return nil, err
	}
	return Decode(name, filename, data)
}

func topologyName(filename string) (string, bool) {
	if strings.HasPrefix(filename, ".") {
		return "", false
	}
	ext := strings.ToLower(filepath.Ext(filename))
	for _, want := range documentExts {
		if ext == want {
			return strings.TrimSuffix(filename, filepath.Ext(filename)), true
		}
	}
	return "", false
}
