package source

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"

	"topomap/core-go/internal/sqlcgen"
	"topomap/core-go/internal/topology"
)

// Queries is the minimal DB interface the Postgres source needs. *sqlcgen.Queries satisfies it.
type Queries interface {
	ListTopologies(ctx context.Context) ([]sqlcgen.TopologySummary, error)
	GetTopology(ctx context.Context, name string) (sqlcgen.Topology, error)
	UpsertTopology(ctx context.Context, arg sqlcgen.UpsertTopologyParams) (sqlcgen.Topology, error)
}

// Postgres serves topologies stored as JSON documents in the topologies table.
type Postgres struct {
	q    Queries
	ping func(context.Context) error
}

// NewPostgres wraps q. ping, when non-nil, backs readiness checks.
func NewPostgres(q Queries, ping func(context.Context) error) *Postgres {
	return &Postgres{q: q, ping: ping}
}

func (p *Postgres) List(ctx context.Context) ([]topology.Descriptor, error) {
	rows, err := p.q.ListTopologies(ctx)
	if err != nil {
		return nil, fmt.Errorf("list topologies: %w", err)
	}
	out := make([]topology.Descriptor, 0, len(rows))
	for _, r := range rows {
		d := topology.Descriptor{
			Name:      r.Name,
			NodeCount: int(r.NodeCount),
			LinkCount: int(r.LinkCount),
		}
		if r.ServiceName != nil {
			d.ServiceName = *r.ServiceName
		}
		if r.ServiceArea != nil {
			d.ServiceArea = strconv.Itoa(int(*r.ServiceArea))
		}
		out = append(out, d)
	}
	return out, nil
}

func (p *Postgres) Fetch(ctx context.Context, name string) (*topology.Document, error) {
	row, err := p.q.GetTopology(ctx, name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrTopologyNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("get topology %q: %w", name, err)
	}
	return topology.DecodeJSON(name, row.Document)
}

// Save stores doc under its name, replacing any previous version.
func (p *Postgres) Save(ctx context.Context, doc *topology.Document, d topology.Descriptor) error {
	if doc == nil || doc.Name == "" {
		return errors.New("save requires a named document")
	}
	data, err := doc.MarshalJSON()
	if err != nil {
		return err
	}
	arg := sqlcgen.UpsertTopologyParams{
		Name:      doc.Name,
		Document:  data,
		NodeCount: int32(doc.Nodes.Len()),
		LinkCount: int32(doc.Links.Len()),
	}
	if d.ServiceName != "" {
		arg.ServiceName = &d.ServiceName
	}
	if d.ServiceArea != "" {
		area, err := strconv.ParseInt(d.ServiceArea, 10, 32)
		if err != nil {
			return fmt.Errorf("service area %q: %w", d.ServiceArea, err)
		}
		a := int32(area)
		arg.ServiceArea = &a
	}
	if _, err := p.q.UpsertTopology(ctx, arg); err != nil {
		return fmt.Errorf("save topology %q: %w", doc.Name, err)
	}
	return nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	if p.ping == nil {
		return nil
	}
	return p.ping(ctx)
}
