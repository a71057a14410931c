// Package retrieval stores and searches reference documents used to ground
// generation: supplier and item purchase history plus curated examples of
// each artifact kind.
package retrieval

// Collection names. Each collection is searched independently.
const (
	CollectionSupplierHistory  = "supplier_history"
	CollectionItemHistory      = "item_history"
	CollectionAnalysisExamples = "analysis_examples"
	CollectionRequestExamples  = "request_examples"
	CollectionEmailExamples    = "email_examples"
)

// Collections returns all known collection names.
func Collections() []string {
	return []string{
		CollectionSupplierHistory,
		CollectionItemHistory,
		CollectionAnalysisExamples,
		CollectionRequestExamples,
		CollectionEmailExamples,
	}
}

// ValidCollection reports whether name is a known collection.
func ValidCollection(name string) bool {
	for _, c := range Collections() {
		if c == name {
			return true
		}
	}
	return false
}

// Document is a retrieval result returned to generation stages.
type Document struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is a stored slice of an ingested document with its embedding.
type Chunk struct {
	ID         string            `json:"id"`
	Collection string            `json:"collection"`
	Content    string            `json:"content"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	Embedding  []float32         `json:"embedding,omitempty"`
}

// SplitText splits text into chunks of at most size runes with the given
// overlap between consecutive chunks. Empty input yields no chunks.
func SplitText(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	var chunks []string
	step := size - overlap
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
