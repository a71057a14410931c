package pipeline

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/model"
	"github.com/company-k/purchasing-cli/internal/retrieval"
	"github.com/company-k/purchasing-cli/pkg/anthropic"
)

// Tool names declared to the Analysis stage.
const (
	toolSupplierHistory = "supplier_history_lookup"
	toolItemHistory     = "item_history_lookup"
)

// ContextProvider is the retrieval query surface the generation stages
// depend on. Implementations degrade to empty results when the embedding
// backend is unavailable.
type ContextProvider interface {
	Search(ctx context.Context, collection, query string, k int) ([]retrieval.Document, error)
}

func historyTools() []anthropic.Tool {
	queryProp := map[string]any{
		"query": map[string]any{
			"type":        "string",
			"description": "Natural language query string",
		},
	}
	return []anthropic.Tool{
		{
			Name:        toolSupplierHistory,
			Description: "Look up past information about ONE supplier: delivery delays, price changes, quality incidents, negotiation patterns. The query must include the supplier name.",
			Properties:  queryProp,
			Required:    []string{"query"},
		},
		{
			Name:        toolItemHistory,
			Description: "Look up past information about one or more items: stock-outs, demand spikes, quality incidents, lead times. The query must include all item codes.",
			Properties:  queryProp,
			Required:    []string{"query"},
		},
	}
}

// analysisInput is the JSON payload sent to the Analysis stage.
type analysisInput struct {
	SnapshotDate string             `json:"snapshot_date"`
	Supplier     string             `json:"supplier"`
	Items        []model.ItemRecord `json:"items"`
}

// runAnalysis executes the Analysis stage with its bounded tool-calling
// protocol: one planning turn in which the backend may request history
// lookups, then at most one grounded turn with the tool results. Tool
// requests on the grounded turn are ignored.
func (p *Pipeline) runAnalysis(ctx context.Context, group model.SupplierGroup) (model.AnalysisOutput, error) {
	input := analysisInput{
		SnapshotDate: group.SnapshotDate,
		Supplier:     group.Supplier,
		Items:        group.Items,
	}
	payload, err := json.Marshal(input)
	if err != nil {
		return model.AnalysisOutput{}, eris.Wrap(err, "pipeline: marshal analysis input")
	}

	req := anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(analysisSystemPrompt),
		Messages:  []anthropic.Message{{Role: "user", Content: string(payload)}},
		Tools:     historyTools(),
	}

	resp, err := p.anthropic.CreateMessage(ctx, req)
	if err != nil {
		return model.AnalysisOutput{}, eris.Wrap(err, "pipeline: analysis planning turn")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "analysis")

	if len(resp.ToolUses) > 0 {
		results := make([]anthropic.ToolResult, 0, len(resp.ToolUses))
		for _, tu := range resp.ToolUses {
			results = append(results, anthropic.ToolResult{
				ToolUseID: tu.ID,
				Content:   p.executeHistoryLookup(ctx, tu, group),
			})
		}
		req.Messages = append(req.Messages,
			anthropic.Message{Role: "assistant", Content: resp.Text(), ToolUses: resp.ToolUses},
			anthropic.Message{Role: "user", ToolResults: results},
		)

		resp, err = p.anthropic.CreateMessage(ctx, req)
		if err != nil {
			return model.AnalysisOutput{}, eris.Wrap(err, "pipeline: analysis grounded turn")
		}
		resp.Usage.LogCost(p.cfg.Anthropic.Model, "analysis")
	}

	// Tool uses here, if any, came from the grounded turn and are dropped.
	text := resp.Text()
	var out model.AnalysisOutput
	if err := decodeJSON(text, &out); err != nil {
		zap.L().Warn("analysis output unparseable, using fallback",
			zap.String("supplier", group.Supplier), zap.Error(err))
		return model.AnalysisOutput{
			PurchasingReportMarkdown: text,
			CriticalQuestions:        []model.CriticalQuestion{},
			ReplenishmentTimeline:    model.TimelineFromGroup(group),
		}, nil
	}
	if out.ReplenishmentTimeline == nil {
		out.ReplenishmentTimeline = model.TimelineFromGroup(group)
	}
	return out, nil
}

// executeHistoryLookup runs one requested tool invocation against the
// retrieval provider. Lookup failures are advisory, never fatal.
func (p *Pipeline) executeHistoryLookup(ctx context.Context, tu anthropic.ToolUse, group model.SupplierGroup) string {
	var input struct {
		Query string `json:"query"`
	}
	if len(tu.Input) > 0 {
		if err := json.Unmarshal(tu.Input, &input); err != nil {
			zap.L().Debug("malformed tool input", zap.String("tool", tu.Name), zap.Error(err))
		}
	}

	var collection, query, empty string
	switch tu.Name {
	case toolSupplierHistory:
		collection = retrieval.CollectionSupplierHistory
		query = input.Query
		if query == "" {
			query = "supplier_name: " + group.Supplier
		}
		empty = "No supplier history found."
	case toolItemHistory:
		collection = retrieval.CollectionItemHistory
		query = input.Query
		if query == "" {
			codes := make([]string, 0, len(group.Items))
			for _, it := range group.Items {
				codes = append(codes, "item_code: "+it.ItemCode)
			}
			query = strings.Join(codes, " OR ")
		}
		empty = "No item history found."
	default:
		return ""
	}

	docs, err := p.retrieval.Search(ctx, collection, query, p.cfg.Retrieval.HistoryK)
	if err != nil {
		zap.L().Warn("history lookup failed", zap.String("collection", collection), zap.Error(err))
		return empty
	}
	if len(docs) == 0 {
		return empty
	}
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	return strings.Join(contents, "\n\n")
}
