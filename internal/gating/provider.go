package gating

// Provider is the gating-tree collaborator. Implementations normalize their
// vendor attribute names into Gate before returning.
type Provider interface {
	// GateIDs lists every gate defined for the sample.
	GateIDs(sampleID string) ([]GateID, error)
	// Gate returns one gate. Callers must not modify the result.
	Gate(sampleID string, id GateID) (*Gate, error)
}

// Document is direct access to the workspace's Gating-ML document,
// bypassing the provider's object model.
type Document interface {
	// RegionBounds returns, for every population whose name is in names, the
	// rectangle min/max recorded for channels x and y. Values are raw space.
	// Names with no rectangle on either channel are absent from the result.
	RegionBounds(names []string, x, y string) (map[string]Bounds, error)
}
