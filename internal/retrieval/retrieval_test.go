package retrieval

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitText(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		chunks := SplitText("hello world", 1000, 200)
		assert.Equal(t, []string{"hello world"}, chunks)
	})

	t.Run("empty text yields nothing", func(t *testing.T) {
		assert.Nil(t, SplitText("", 1000, 200))
	})

	t.Run("chunks overlap", func(t *testing.T) {
		text := strings.Repeat("a", 8) + strings.Repeat("b", 8)
		chunks := SplitText(text, 10, 4)
		assert.Equal(t, []string{
			"aaaaaaaabb",
			"aabbbbbbbb",
			"bbbb",
		}, chunks)
	})

	t.Run("no overlap covers everything exactly once", func(t *testing.T) {
		text := "0123456789"
		chunks := SplitText(text, 5, 0)
		assert.Equal(t, []string{"01234", "56789"}, chunks)
	})

	t.Run("multibyte runes are not split", func(t *testing.T) {
		text := strings.Repeat("é", 7)
		chunks := SplitText(text, 5, 2)
		assert.Equal(t, []string{"ééééé", "éééé"}, chunks)
	})

	t.Run("invalid overlap is ignored", func(t *testing.T) {
		chunks := SplitText("0123456789", 5, 5)
		assert.Equal(t, []string{"01234", "56789"}, chunks)
	})
}

func TestCollections(t *testing.T) {
	assert.Len(t, Collections(), 5)
	assert.True(t, ValidCollection("supplier_history"))
	assert.True(t, ValidCollection("email_examples"))
	assert.False(t, ValidCollection("nope"))
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{1, 1}))
}
