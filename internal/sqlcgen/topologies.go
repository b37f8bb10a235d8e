package sqlcgen

import "context"

const listTopologies = `-- name: ListTopologies :many
SELECT name,
       service_name,
       service_area,
       node_count,
       link_count,
       updated_at
FROM topologies
ORDER BY name ASC
`

func (q *Queries) ListTopologies(ctx context.Context) ([]TopologySummary, error) {
	rows, err := q.db.Query(ctx, listTopologies)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TopologySummary
	for rows.Next() {
		var i TopologySummary
		if err := rows.Scan(&i.Name, &i.ServiceName, &i.ServiceArea, &i.NodeCount, &i.LinkCount, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getTopology = `-- name: GetTopology :one
SELECT name,
       service_name,
       service_area,
       document,
       node_count,
       link_count,
       updated_at
FROM topologies
WHERE name = $1
`

func (q *Queries) GetTopology(ctx context.Context, name string) (Topology, error) {
	row := q.db.QueryRow(ctx, getTopology, name)
	var i Topology
	err := row.Scan(&i.Name, &i.ServiceName, &i.ServiceArea, &i.Document, &i.NodeCount, &i.LinkCount, &i.UpdatedAt)
	return i, err
}

const upsertTopology = `-- name: UpsertTopology :one
INSERT INTO topologies (name, service_name, service_area, document, node_count, link_count)
VALUES ($1, $2, $3, $4::json, $5, $6)
ON CONFLICT (name) DO UPDATE
SET service_name = EXCLUDED.service_name,
    service_area = EXCLUDED.service_area,
    document = EXCLUDED.document,
    node_count = EXCLUDED.node_count,
    link_count = EXCLUDED.link_count,
    updated_at = now()
RETURNING updated_at
`

type UpsertTopologyParams struct {
	Name        string
	ServiceName *string
	ServiceArea *int32
	Document    []byte
	NodeCount   int32
	LinkCount   int32
}

func (q *Queries) UpsertTopology(ctx context.Context, arg UpsertTopologyParams) (Topology, error) {
	row := q.db.QueryRow(ctx, upsertTopology, arg.Name, arg.ServiceName, arg.ServiceArea, arg.Document, arg.NodeCount, arg.LinkCount)
	i := Topology{
		Name:        arg.Name,
		ServiceName: arg.ServiceName,
		ServiceArea: arg.ServiceArea,
		Document:    arg.Document,
		NodeCount:   arg.NodeCount,
		LinkCount:   arg.LinkCount,
	}
	err := row.Scan(&i.UpdatedAt)
	return i, err
}

const deleteTopology = `-- name: DeleteTopology :execrows
DELETE FROM topologies
WHERE name = $1
`

func (q *Queries) DeleteTopology(ctx context.Context, name string) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteTopology, name)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
