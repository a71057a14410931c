package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/model"
	"github.com/company-k/purchasing-cli/internal/retrieval"
	"github.com/company-k/purchasing-cli/pkg/anthropic"
)

// prDraftInput is the JSON payload sent to the PR-Draft stage.
type prDraftInput struct {
	SnapshotDate   string               `json:"snapshot_date"`
	Supplier       string               `json:"supplier"`
	RiskLevel      string               `json:"risk_level"`
	AnalysisOutput model.AnalysisOutput `json:"analysis_output"`
}

// runPRDraft turns the analysis output into the structured purchase request
// intermediate. Unparseable output falls back to a minimal valid draft.
func (p *Pipeline) runPRDraft(ctx context.Context, group model.SupplierGroup, analysis model.AnalysisOutput) (model.PurchaseRequestDraft, error) {
	payload, err := json.Marshal(prDraftInput{
		SnapshotDate:   group.SnapshotDate,
		Supplier:       group.Supplier,
		RiskLevel:      group.RiskLevel(),
		AnalysisOutput: analysis,
	})
	if err != nil {
		return model.PurchaseRequestDraft{}, eris.Wrap(err, "pipeline: marshal pr draft input")
	}

	user := p.withExamples(ctx, retrieval.CollectionRequestExamples,
		"purchase request structure", "structure only", string(payload))

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: prDraftSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return model.PurchaseRequestDraft{}, eris.Wrap(err, "pipeline: pr draft stage")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "pr_draft")

	var draft model.PurchaseRequestDraft
	if err := decodeJSON(resp.Text(), &draft); err != nil {
		zap.L().Warn("pr draft output unparseable, using minimal draft",
			zap.String("supplier", group.Supplier), zap.Error(err))
		return model.MinimalDraft(group.SnapshotDate, group.Supplier), nil
	}
	return draft, nil
}

// runPRDocument renders the draft as the formal requisition markdown. It
// tolerates drafts with an empty item list.
func (p *Pipeline) runPRDocument(ctx context.Context, draft model.PurchaseRequestDraft) (string, error) {
	payload, err := json.Marshal(draft)
	if err != nil {
		return "", eris.Wrap(err, "pipeline: marshal pr document input")
	}

	user := p.withExamples(ctx, retrieval.CollectionRequestExamples,
		"purchase requisition format", "format only", string(payload))

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: prDocumentSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: pr document stage")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "pr_document")
	return resp.Text(), nil
}
