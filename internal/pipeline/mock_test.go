package pipeline

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/company-k/purchasing-cli/internal/config"
	"github.com/company-k/purchasing-cli/internal/retrieval"
	"github.com/company-k/purchasing-cli/pkg/anthropic"
)

// --- Anthropic mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// --- Retrieval mock ---

type mockContextProvider struct {
	mock.Mock
}

func (m *mockContextProvider) Search(ctx context.Context, collection, query string, k int) ([]retrieval.Document, error) {
	args := m.Called(ctx, collection, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]retrieval.Document), args.Error(1)
}

// emptyProvider returns no documents for every collection.
func emptyProvider() *mockContextProvider {
	mp := new(mockContextProvider)
	mp.On("Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return([]retrieval.Document{}, nil)
	return mp
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Anthropic: config.AnthropicConfig{
			Model:      "claude-sonnet-4-5-20250929",
			LightModel: "claude-haiku-4-5-20251001",
			MaxTokens:  4096,
		},
		Retrieval: config.RetrievalConfig{
			ChunkSize:    1000,
			ChunkOverlap: 200,
			HistoryK:     5,
			ExampleK:     2,
		},
		Output: config.OutputConfig{Dir: t.TempDir()},
	}
}

// textResponse builds a plain text backend response.
func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		Content:    []anthropic.ContentBlock{{Type: "text", Text: text}},
		StopReason: "end_turn",
	}
}
