package anthropic

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockClient implements Client for testing.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) CreateMessage(ctx context.Context, req MessageRequest) (*MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*MessageResponse), args.Error(1)
}

func TestCreateMessage_MockClient(t *testing.T) {
	mc := new(MockClient)
	ctx := context.Background()

	req := MessageRequest{
		Model:     "claude-sonnet-4-5-20250929",
		MaxTokens: 1024,
		Messages: []Message{
			{Role: "user", Content: "Hello"},
		},
	}

	expected := &MessageResponse{
		ID:         "msg_123",
		Model:      "claude-sonnet-4-5-20250929",
		Content:    []ContentBlock{{Type: "text", Text: "Hi there!"}},
		StopReason: "end_turn",
		Usage: TokenUsage{
			InputTokens:  10,
			OutputTokens: 5,
		},
	}

	mc.On("CreateMessage", ctx, req).Return(expected, nil)

	resp, err := mc.CreateMessage(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, "msg_123", resp.ID)
	assert.Equal(t, "Hi there!", resp.Content[0].Text)
	assert.Equal(t, int64(10), resp.Usage.InputTokens)
	assert.Equal(t, int64(5), resp.Usage.OutputTokens)

	mc.AssertExpectations(t)
}

func TestMessageResponse_Text(t *testing.T) {
	resp := &MessageResponse{
		Content: []ContentBlock{
			{Type: "text", Text: "part one "},
			{Type: "thinking", Text: "ignored"},
			{Type: "text", Text: "part two"},
		},
	}
	assert.Equal(t, "part one part two", resp.Text())

	empty := &MessageResponse{}
	assert.Equal(t, "", empty.Text())
}

func TestSDKTypeConversion_toSDKMessages(t *testing.T) {
	msgs := []Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", Content: "answer"},
	}
	sdkMsgs := toSDKMessages(msgs)
	require.Len(t, sdkMsgs, 2)
	assert.Equal(t, "user", string(sdkMsgs[0].Role))
	assert.Equal(t, "assistant", string(sdkMsgs[1].Role))
}

func TestSDKTypeConversion_toSDKMessages_ToolUse(t *testing.T) {
	msgs := []Message{
		{
			Role:    "assistant",
			Content: "let me look that up",
			ToolUses: []ToolUse{
				{ID: "toolu_1", Name: "supplier_history_lookup", Input: json.RawMessage(`{"query":"Acme"}`)},
			},
		},
		{
			Role: "user",
			ToolResults: []ToolResult{
				{ToolUseID: "toolu_1", Content: "no history found"},
			},
		},
	}
	sdkMsgs := toSDKMessages(msgs)
	require.Len(t, sdkMsgs, 2)
	// assistant turn carries text + tool_use block
	require.Len(t, sdkMsgs[0].Content, 2)
	require.NotNil(t, sdkMsgs[0].Content[1].OfToolUse)
	assert.Equal(t, "toolu_1", sdkMsgs[0].Content[1].OfToolUse.ID)
	assert.Equal(t, "supplier_history_lookup", sdkMsgs[0].Content[1].OfToolUse.Name)
	// user turn carries only the tool result
	require.Len(t, sdkMsgs[1].Content, 1)
	require.NotNil(t, sdkMsgs[1].Content[0].OfToolResult)
	assert.Equal(t, "toolu_1", sdkMsgs[1].Content[0].OfToolResult.ToolUseID)
}

func TestSDKTypeConversion_toSDKTools(t *testing.T) {
	tools := toSDKTools([]Tool{
		{
			Name:        "item_history_lookup",
			Description: "Look up purchase history for an item",
			Properties: map[string]any{
				"query": map[string]any{"type": "string"},
			},
			Required: []string{"query"},
		},
	})
	require.Len(t, tools, 1)
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "item_history_lookup", tools[0].OfTool.Name)
	assert.Equal(t, []string{"query"}, tools[0].OfTool.InputSchema.Required)
}

func TestSDKTypeConversion_toSDKSystemBlocks(t *testing.T) {
	blocks := []SystemBlock{
		{Text: "You are an assistant."},
		{Text: "Cached context.", CacheControl: &CacheControl{TTL: "1h"}},
	}
	sdkBlocks := toSDKSystemBlocks(blocks)
	require.Len(t, sdkBlocks, 2)
	assert.Equal(t, "You are an assistant.", sdkBlocks[0].Text)
	assert.Equal(t, "Cached context.", sdkBlocks[1].Text)
}

func TestEstimateCost_Haiku(t *testing.T) {
	usage := TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	}
	cost := usage.EstimateCost("claude-haiku-4-5-20251001")
	assert.InDelta(t, 4.80, cost, 0.001)
}

func TestEstimateCost_Sonnet(t *testing.T) {
	usage := TokenUsage{
		InputTokens:  1_000_000,
		OutputTokens: 1_000_000,
	}
	cost := usage.EstimateCost("claude-sonnet-4-5-20250929")
	assert.InDelta(t, 18.00, cost, 0.001)
}

func TestEstimateCost_WithCache(t *testing.T) {
	usage := TokenUsage{
		InputTokens:              100_000,
		OutputTokens:             50_000,
		CacheCreationInputTokens: 200_000,
		CacheReadInputTokens:     400_000,
	}
	cost := usage.EstimateCost("claude-sonnet-4-5-20250929")
	// 0.1*3 + 0.05*15 + 0.2*3*1.25 + 0.4*3*0.1
	assert.InDelta(t, 0.30+0.75+0.75+0.12, cost, 0.001)
}

func TestEstimateCost_UnknownModel(t *testing.T) {
	usage := TokenUsage{InputTokens: 1000}
	assert.Equal(t, 0.0, usage.EstimateCost("some-other-model"))
}

func TestEstimateCost_ZeroTokens(t *testing.T) {
	var usage TokenUsage
	assert.Equal(t, 0.0, usage.EstimateCost("claude-sonnet-4-5-20250929"))
}

func TestLogCost_DoesNotPanic(t *testing.T) {
	usage := TokenUsage{InputTokens: 100, OutputTokens: 50}
	assert.NotPanics(t, func() {
		usage.LogCost("claude-sonnet-4-5-20250929", "analysis")
	})
}
