package model

// ArtifactKind identifies which stage produced an artifact.
type ArtifactKind string

const (
	ArtifactAnalysis        ArtifactKind = "analysis"
	ArtifactPurchaseRequest ArtifactKind = "purchase_request"
	ArtifactEmailDraft      ArtifactKind = "email_draft"
)

// GeneratedArtifact is a finished, named document produced for one supplier
// group. In materialized mode SavedPath points at the written file; in
// in-memory mode ContentBase64 carries the binary payload inline.
type GeneratedArtifact struct {
	Kind          ArtifactKind `json:"kind"`
	SnapshotDate  string       `json:"snapshot_date"`
	Supplier      string       `json:"supplier"`
	Content       string       `json:"content"`
	Filename      string       `json:"filename"`
	SavedPath     string       `json:"saved_path,omitempty"`
	ContentBase64 string       `json:"content_base64,omitempty"`
}

// RunResult is the full outcome of one pipeline run, in group-iteration
// order. It is owned by the run and never shared across runs.
type RunResult struct {
	RunID    string              `json:"run_id"`
	Groups   []SupplierGroup     `json:"groups"`
	Reports  []GeneratedArtifact `json:"reports"`
	Requests []GeneratedArtifact `json:"requests"`
	Emails   []GeneratedArtifact `json:"emails"`
}
