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

// analysisResult is the JSON payload sent to the Report stage.
type analysisResult struct {
	SnapshotDate             string                   `json:"snapshot_date"`
	Supplier                 string                   `json:"supplier"`
	PurchasingReportMarkdown string                   `json:"purchasing_report_markdown"`
	CriticalQuestions        []model.CriticalQuestion `json:"critical_questions"`
	ReplenishmentTimeline    []model.TimelineItem     `json:"replenishment_timeline"`
}

// runReport renders the analysis output as a human-readable markdown report,
// optionally grounded on example documents for tone and structure.
func (p *Pipeline) runReport(ctx context.Context, group model.SupplierGroup, analysis model.AnalysisOutput) (string, error) {
	payload, err := json.Marshal(analysisResult{
		SnapshotDate:             group.SnapshotDate,
		Supplier:                 group.Supplier,
		PurchasingReportMarkdown: analysis.PurchasingReportMarkdown,
		CriticalQuestions:        analysis.CriticalQuestions,
		ReplenishmentTimeline:    analysis.ReplenishmentTimeline,
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: marshal report input")
	}

	user := p.withExamples(ctx, retrieval.CollectionAnalysisExamples,
		"analysis report structure and tone", "tone/structure only", string(payload))

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: reportSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: report stage")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "report")
	return resp.Text(), nil
}

// withExamples prefixes up to k example documents from a collection onto a
// user payload. Examples ground tone and structure only; retrieval failure
// degrades to the bare payload.
func (p *Pipeline) withExamples(ctx context.Context, collection, query, usage, payload string) string {
	docs, err := p.retrieval.Search(ctx, collection, query, p.cfg.Retrieval.ExampleK)
	if err != nil {
		zap.L().Warn("example retrieval failed", zap.String("collection", collection), zap.Error(err))
		return payload
	}
	if len(docs) == 0 {
		return payload
	}
	contents := make([]string, len(docs))
	for i, d := range docs {
		contents[i] = d.Content
	}
	return "Reference (" + usage + "):\n" + strings.Join(contents, "\n\n") + "\n\nInput:\n" + payload
}
