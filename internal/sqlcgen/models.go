package sqlcgen

import "time"

type Topology struct {
	Name        string
	ServiceName *string
	ServiceArea *int32
	Document    []byte
	NodeCount   int32
	LinkCount   int32
	UpdatedAt   time.Time
}

type TopologySummary struct {
	Name        string
	ServiceName *string
	ServiceArea *int32
	NodeCount   int32
	LinkCount   int32
	UpdatedAt   time.Time
}
