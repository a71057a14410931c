// Package pipeline sequences the grounded-generation stages that turn a
// stock-risk snapshot into supplier-specific purchasing artifacts.
package pipeline

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/company-k/purchasing-cli/internal/config"
	"github.com/company-k/purchasing-cli/internal/docgen"
	"github.com/company-k/purchasing-cli/internal/grouping"
	"github.com/company-k/purchasing-cli/internal/model"
	"github.com/company-k/purchasing-cli/internal/snapshot"
	"github.com/company-k/purchasing-cli/pkg/anthropic"
)

// EmitFunc receives non-terminal progress events during a run. Terminal
// events are appended by the streaming bridge, not by Run itself.
type EmitFunc func(model.ProgressEvent)

// primerMaxTokens caps the throwaway cache-warming turn.
const primerMaxTokens = 8

// RunOptions controls one pipeline run.
type RunOptions struct {
	// Filename of the uploaded snapshot; consulted for the DDMMYY date
	// pattern and the format extension.
	Filename string
	// InMemory carries artifact payloads base64-inline instead of writing
	// them under the output directory.
	InMemory bool
}

// Pipeline orchestrates parsing, grouping and the five generation stages.
type Pipeline struct {
	cfg       *config.Config
	anthropic anthropic.Client
	retrieval ContextProvider
	converter docgen.Converter
}

// New creates a Pipeline with all dependencies.
func New(cfg *config.Config, aiClient anthropic.Client, provider ContextProvider, converter docgen.Converter) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		anthropic: aiClient,
		retrieval: provider,
		converter: converter,
	}
}

// Group parses snapshot content and performs supplier grouping without
// invoking the generation backend.
func (p *Pipeline) Group(content []byte, filename string) ([]model.SupplierGroup, error) {
	rows, err := parseRows(content, filename)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, eris.New("pipeline: no valid rows; expected columns SupplierName, ItemCode, ItemName, CurrentStock, WksToOOS, RiskLevel")
	}
	groups, err := grouping.BySupplier(rows)
	if err != nil {
		return nil, err
	}
	if len(groups) == 0 {
		return nil, eris.New("pipeline: no supplier groups; check the SupplierName column")
	}
	return groups, nil
}

// Run executes the full pipeline for one snapshot. Groups are processed
// sequentially in first-seen order; within a group the Analysis stage runs
// first and its three dependents fan out from its output. Backend failures
// abort the run; materialization failures are per-artifact.
func (p *Pipeline) Run(ctx context.Context, content []byte, opts RunOptions, emit EmitFunc) (*model.RunResult, error) {
	if emit == nil {
		emit = func(model.ProgressEvent) {}
	}
	log := zap.L().With(zap.String("filename", opts.Filename))
	log.Info("pipeline: starting run")

	emit(model.ProgressEvent{Step: model.StepCSVParsing})
	emit(model.ProgressEvent{Step: model.StepItemGrouping})
	groups, err := p.Group(content, opts.Filename)
	if err != nil {
		return nil, err
	}
	emit(model.ProgressEvent{Step: model.StepItemGroupingDone, Detail: map[string]any{"count": len(groups)}})

	if len(groups) > 1 {
		p.warmAnalysisCache(ctx, log)
	}

	mat := docgen.NewMaterializer(p.converter, p.cfg.Output.Dir)
	if opts.InMemory {
		mat = docgen.NewInMemoryMaterializer(p.converter)
	}

	result := &model.RunResult{
		RunID:  uuid.NewString(),
		Groups: groups,
	}

	for _, group := range groups {
		glog := log.With(zap.String("supplier", group.Supplier))

		emit(model.ProgressEvent{Step: model.StepAnalysis, Detail: map[string]any{"supplier": group.Supplier}})
		analysis, err := p.runAnalysis(ctx, group)
		if err != nil {
			return nil, err
		}

		emit(model.ProgressEvent{Step: model.StepReport, Detail: map[string]any{"supplier": group.Supplier}})
		reportMD, err := p.runReport(ctx, group, analysis)
		if err != nil {
			return nil, err
		}
		result.Reports = append(result.Reports,
			p.materialize(mat, emit, glog, model.ArtifactAnalysis, group, reportMD))

		emit(model.ProgressEvent{Step: model.StepPR, Detail: map[string]any{"supplier": group.Supplier}})
		draft, err := p.runPRDraft(ctx, group, analysis)
		if err != nil {
			return nil, err
		}
		prMD, err := p.runPRDocument(ctx, draft)
		if err != nil {
			return nil, err
		}
		result.Requests = append(result.Requests,
			p.materialize(mat, emit, glog, model.ArtifactPurchaseRequest, group, prMD))

		emit(model.ProgressEvent{Step: model.StepEmail, Detail: map[string]any{"supplier": group.Supplier}})
		emailText, err := p.runEmail(ctx, group, analysis)
		if err != nil {
			return nil, err
		}
		result.Emails = append(result.Emails,
			p.materialize(mat, emit, glog, model.ArtifactEmailDraft, group, emailText))

		glog.Info("pipeline: supplier group done", zap.Int("items", len(group.Items)))
	}

	log.Info("pipeline: run complete",
		zap.String("run_id", result.RunID), zap.Int("groups", len(groups)))
	return result, nil
}

// warmAnalysisCache issues one throwaway request carrying the analysis
// system blocks and tool declarations, so every supplier group hits a warm
// prompt cache instead of the first group paying the cache write inline.
// Failure is advisory.
func (p *Pipeline) warmAnalysisCache(ctx context.Context, log *zap.Logger) {
	req := anthropic.MessageRequest{
		Model:     p.cfg.Anthropic.Model,
		MaxTokens: primerMaxTokens,
		System:    anthropic.BuildCachedSystemBlocks(analysisSystemPrompt),
		Messages:  []anthropic.Message{{Role: "user", Content: "Reply with OK."}},
		Tools:     historyTools(),
	}
	resp, err := anthropic.PrimerRequest(ctx, p.anthropic, req)
	if err != nil {
		log.Warn("pipeline: cache primer failed", zap.Error(err))
		return
	}
	resp.Usage.LogCost(p.cfg.Anthropic.Model, "primer")
}

// materialize converts one finished stage output into an artifact. Failure
// is surfaced on the artifact itself and logged; siblings still proceed.
func (p *Pipeline) materialize(mat *docgen.Materializer, emit EmitFunc, log *zap.Logger, kind model.ArtifactKind, group model.SupplierGroup, content string) model.GeneratedArtifact {
	filename := docgen.Filename(kind, group.SnapshotDate, group.Supplier)
	emit(model.ProgressEvent{Step: model.StepGeneratingFile, Detail: map[string]any{"filename": filename}})

	artifact, err := mat.Materialize(kind, group.SnapshotDate, group.Supplier, content)
	if err != nil {
		log.Warn("pipeline: artifact materialization failed",
			zap.String("filename", filename), zap.Error(err))
		return artifact
	}

	detail := map[string]any{"filename": artifact.Filename}
	if artifact.ContentBase64 != "" {
		detail["content_base64"] = artifact.ContentBase64
	}
	if artifact.SavedPath != "" {
		detail["saved_path"] = artifact.SavedPath
	}
	emit(model.ProgressEvent{Step: model.StepFileReady, Detail: detail})
	return artifact
}

// parseRows decodes snapshot content by filename extension. Anything that
// is not .xlsx is treated as CSV.
func parseRows(content []byte, filename string) ([]snapshot.Row, error) {
	if strings.HasSuffix(strings.ToLower(filename), ".xlsx") {
		return snapshot.ParseXLSX(content, filename)
	}
	return snapshot.ParseCSV(string(content), filename)
}
