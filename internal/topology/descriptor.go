package topology

// Descriptor names a topology that a source can fetch.
type Descriptor struct {
	Name        string `json:"name"`
	ServiceName string `json:"serviceName,omitempty"`
	ServiceArea string `json:"serviceArea,omitempty"`
	NodeCount   int    `json:"nodeCount,omitempty"`
	LinkCount   int    `json:"linkCount,omitempty"`
}
