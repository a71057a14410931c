package pipeline

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/company-k/purchasing-cli/internal/model"
	"github.com/company-k/purchasing-cli/internal/retrieval"
	"github.com/company-k/purchasing-cli/pkg/anthropic"
)

// emailInput is the JSON payload sent to the Email stage. RiskLevel is
// internal context the prompt forbids disclosing.
type emailInput struct {
	SnapshotDate   string               `json:"snapshot_date"`
	Supplier       string               `json:"supplier"`
	RiskLevel      string               `json:"risk_level"`
	Items          []model.ItemRecord   `json:"items"`
	AnalysisOutput model.AnalysisOutput `json:"analysis_output"`
}

// runEmail drafts the supplier-facing email. This stage runs on the light
// model; the drafting task is simple enough not to warrant the default one.
func (p *Pipeline) runEmail(ctx context.Context, group model.SupplierGroup, analysis model.AnalysisOutput) (string, error) {
	payload, err := json.Marshal(emailInput{
		SnapshotDate:   group.SnapshotDate,
		Supplier:       group.Supplier,
		RiskLevel:      group.RiskLevel(),
		Items:          group.Items,
		AnalysisOutput: analysis,
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: marshal email input")
	}

	user := p.withExamples(ctx, retrieval.CollectionEmailExamples,
		"supplier email tone and structure", "tone only", string(payload))

	resp, err := p.anthropic.CreateMessage(ctx, anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.LightModel,
		MaxTokens: p.cfg.Anthropic.MaxTokens,
		System:    []anthropic.SystemBlock{{Text: emailSystemPrompt}},
		Messages:  []anthropic.Message{{Role: "user", Content: user}},
	})
	if err != nil {
		return "", eris.Wrap(err, "pipeline: email stage")
	}
	resp.Usage.LogCost(p.cfg.Anthropic.LightModel, "email")
	return resp.Text(), nil
}
