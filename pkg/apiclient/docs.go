package apiclient

import "fmt"

// SnapshotInfo is one node in a document's snapshot chain, as reported by
// the inspect endpoint.
type SnapshotInfo struct {
	SnapshotID       string `json:"snapshot_id"`
	ParentSnapshotID string `json:"parent_snapshot_id,omitempty"`
	Kind             string `json:"kind,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdateCount      int    `json:"update_count"`
}

// DocumentInfo is the response from the inspect endpoint.
type DocumentInfo struct {
	DocID                 string         `json:"doc_id"`
	ActiveSnapshotID      string         `json:"active_snapshot_id"`
	ActiveSnapshotVersion uint64         `json:"active_snapshot_version"`
	Snapshots             []SnapshotInfo `json:"snapshots"`
}

// InspectDocument fetches the snapshot lineage and server version for docID.
func (c *Client) InspectDocument(docID string) (*DocumentInfo, error) {
	var info DocumentInfo
	if err := c.get(fmt.Sprintf("/api/v1/docs/%s/inspect", docID), &info); err != nil {
		return nil, err
	}
	return &info, nil
}
