// Package source fetches topology documents from directories, HTTP services, Postgres and the
// local snapshot cache.
package source

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"topomap/core-go/internal/topology"
)

// ErrTopologyNotFound is returned by Fetch when the source has no topology with that name.
var ErrTopologyNotFound = errors.New("topology not found")

type Source interface {
	List(ctx context.Context) ([]topology.Descriptor, error)
	Fetch(ctx context.Context, name string) (*topology.Document, error)
}

// Pinger is implemented by sources that can check their backend without fetching.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Ping checks s when it knows how to; other sources are assumed ready.
func Ping(ctx context.Context, s Source) error {
	if p, ok := s.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Decode parses data as YAML when filename says so and as JSON otherwise.
func Decode(name, filename string, data []byte) (*topology.Document, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		return topology.DecodeYAML(name, data)
	default:
		return topology.DecodeJSON(name, data)
	}
}

func describe(doc *topology.Document) topology.Descriptor {
	return topology.Descriptor{Name: doc.Name, NodeCount: doc.Nodes.Len(), LinkCount: doc.Links.Len()}
}
