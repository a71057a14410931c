package docgen

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/rotisserie/eris"

	"github.com/company-k/purchasing-cli/internal/model"
)

// filenamePrefix maps artifact kinds to their filename prefix and output
// subdirectory.
var filenamePrefix = map[model.ArtifactKind]string{
	model.ArtifactAnalysis:        "analysis",
	model.ArtifactPurchaseRequest: "pr",
	model.ArtifactEmailDraft:      "email_draft",
}

// outputSubdir maps artifact kinds to subdirectories under the output root.
var outputSubdir = map[model.ArtifactKind]string{
	model.ArtifactAnalysis:        "analysis",
	model.ArtifactPurchaseRequest: "pr",
	model.ArtifactEmailDraft:      "email_draft",
}

// Materializer converts finished markdown artifacts to .docx and either
// writes them under the output directory or returns them base64-encoded.
type Materializer struct {
	converter Converter
	outputDir string
	inMemory  bool
}

// NewMaterializer creates a Materializer writing under outputDir.
func NewMaterializer(converter Converter, outputDir string) *Materializer {
	return &Materializer{converter: converter, outputDir: outputDir}
}

// NewInMemoryMaterializer creates a Materializer that keeps artifacts in
// memory instead of touching the filesystem.
func NewInMemoryMaterializer(converter Converter) *Materializer {
	return &Materializer{converter: converter, inMemory: true}
}

// Filename returns the artifact filename for a kind, snapshot date and
// supplier.
func Filename(kind model.ArtifactKind, snapshotDate, supplier string) string {
	return fmt.Sprintf("%s_%s_%s.docx", filenamePrefix[kind], snapshotDate, SanitizeFilename(supplier))
}

// artifactNamePattern admits exactly the filenames Filename produces. It
// gates download requests so nothing outside the output tree can be served.
var artifactNamePattern = regexp.MustCompile(`^(analysis|pr|email_draft)_\d{4}-\d{2}-\d{2}_[^/\\]+\.docx$`)

// ArtifactPath resolves an artifact filename to its location under
// outputDir. Names Filename could not have produced are rejected.
func ArtifactPath(outputDir, filename string) (string, error) {
	m := artifactNamePattern.FindStringSubmatch(filename)
	if m == nil {
		return "", eris.Errorf("docgen: not an artifact filename: %q", filename)
	}
	return filepath.Join(outputDir, m[1], filename), nil
}

// ListArtifacts returns the filenames of every artifact currently under
// outputDir: analysis reports first, then purchase requests, then email
// drafts, each set in directory order.
func ListArtifacts(outputDir string) ([]string, error) {
	kinds := []model.ArtifactKind{
		model.ArtifactAnalysis,
		model.ArtifactPurchaseRequest,
		model.ArtifactEmailDraft,
	}
	var names []string
	for _, kind := range kinds {
		entries, err := os.ReadDir(filepath.Join(outputDir, outputSubdir[kind]))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, eris.Wrapf(err, "docgen: list %s artifacts", kind)
		}
		for _, e := range entries {
			if !e.IsDir() && artifactNamePattern.MatchString(e.Name()) {
				names = append(names, e.Name())
			}
		}
	}
	return names, nil
}

// Materialize converts content and stores it per the materializer's mode.
func (m *Materializer) Materialize(kind model.ArtifactKind, snapshotDate, supplier, content string) (model.GeneratedArtifact, error) {
	artifact := model.GeneratedArtifact{
		Kind:         kind,
		SnapshotDate: snapshotDate,
		Supplier:     supplier,
		Content:      content,
		Filename:     Filename(kind, snapshotDate, supplier),
	}

	data, err := m.converter.Convert(content)
	if err != nil {
		return artifact, eris.Wrap(err, "docgen: convert artifact")
	}

	if m.inMemory {
		artifact.ContentBase64 = base64.StdEncoding.EncodeToString(data)
		return artifact, nil
	}

	dir := filepath.Join(m.outputDir, outputSubdir[kind])
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return artifact, eris.Wrapf(err, "docgen: create %s", dir)
	}
	path := filepath.Join(dir, artifact.Filename)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return artifact, eris.Wrapf(err, "docgen: write %s", path)
	}
	artifact.SavedPath = path
	return artifact, nil
}
