// Package apf applies codex-style patch documents to files under a
// working root, as a library or behind the apf command.
package apf

import (
	"context"
	"fmt"
	"runtime/debug"

	"github.com/sokinpui/apf.go/cli"
	"github.com/sokinpui/apf.go/internal/engine"
	"github.com/sokinpui/apf.go/internal/fs"
	"github.com/sokinpui/apf.go/internal/planner"
	"github.com/sokinpui/apf.go/internal/report"
	"github.com/sokinpui/apf.go/internal/source"
	"github.com/sokinpui/apf.go/internal/state"
	"github.com/sokinpui/apf.go/model"
)

// App orchestrates the entire application logic.
type App struct {
	cfg            *cli.Config
	resolver       *fs.Resolver
	stateManager   *state.Manager
	sourceProvider *source.Provider
	engine         *engine.Engine
}

// DetailedError enhances a standard error with a stack trace.
type DetailedError struct {
	Err   error
	Stack []byte
}

func (e *DetailedError) Error() string {
	return e.Err.Error()
}

// New creates a new App instance.
func New(cfg *cli.Config) (*App, error) {
	return newApp(cfg, nil)
}

func newApp(cfg *cli.Config, ask engine.AskFunc) (*App, error) {
	resolver, err := fs.NewResolver(cfg.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve working root: %w", err)
	}
	stateManager, err := state.New(resolver.Root())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize state manager: %w", err)
	}

	return &App{
		cfg:            cfg,
		resolver:       resolver,
		stateManager:   stateManager,
		sourceProvider: source.New(cfg.PatchFile),
		engine: engine.New(engine.Options{
			Resolver:   resolver,
			Ask:        ask,
			Extensions: cfg.Extensions,
		}),
	}, nil
}

// Execute runs the mode selected by the parsed flags.
func (a *App) Execute(ctx context.Context) (summary model.Summary, err error) {
	// Centralized panic recovery.
	defer func() {
		if r := recover(); r != nil {
			err = &DetailedError{
				Err:   fmt.Errorf("internal panic: %v", r),
				Stack: debug.Stack(),
			}
		}
	}()

	switch {
	case a.cfg.Undo:
		return a.undoLastPatch()
	case a.cfg.Redo:
		return a.redoLastPatch()
	case a.cfg.OutputDiff:
		return a.previewPatch(ctx)
	default:
		return a.applyFromSource(ctx)
	}
}

// PlanFromSource reads the patch text and verifies it without applying.
// A nil plan with no error means the source was empty.
func (a *App) PlanFromSource(ctx context.Context) (*planner.Plan, model.Metadata, error) {
	content, err := a.sourceProvider.GetContent()
	if err != nil {
		return nil, model.Metadata{}, err
	}
	if content == "" {
		return nil, model.Metadata{}, nil
	}

	plan, err := a.engine.Plan(ctx, content)
	if err != nil {
		return nil, model.Metadata{}, err
	}
	meta, err := report.Build(plan)
	if err != nil {
		return nil, model.Metadata{}, err
	}
	return plan, meta, nil
}

// Commit applies a verified plan, records it for undo, and summarizes.
func (a *App) Commit(ctx context.Context, plan *planner.Plan) (model.Summary, error) {
	result, err := a.engine.Commit(ctx, plan)
	if err != nil {
		return model.Summary{}, err
	}
	if len(plan.Entries) > 0 {
		if err := a.stateManager.Record(plan.Entries); err != nil {
			return model.Summary{}, fmt.Errorf("patch applied but recording history failed: %w", err)
		}
	}
	return a.summarize(result), nil
}

// ApplyText runs the full pipeline on an in-memory patch string.
func (a *App) ApplyText(ctx context.Context, patchText string) (model.Summary, error) {
	plan, err := a.engine.Plan(ctx, patchText)
	if err != nil {
		return model.Summary{}, err
	}
	return a.Commit(ctx, plan)
}

func (a *App) applyFromSource(ctx context.Context) (model.Summary, error) {
	plan, _, err := a.PlanFromSource(ctx)
	if err != nil {
		return model.Summary{}, err
	}
	if plan == nil {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}
	if len(plan.Entries) == 0 {
		return model.Summary{Message: "No operations matched. Nothing to do."}, nil
	}
	return a.Commit(ctx, plan)
}

func (a *App) previewPatch(ctx context.Context) (model.Summary, error) {
	content, err := a.sourceProvider.GetContent()
	if err != nil {
		return model.Summary{}, err
	}
	if content == "" {
		return model.Summary{Message: "Source is empty. Nothing to process."}, nil
	}

	meta, err := a.engine.Preview(ctx, content)
	if err != nil {
		return model.Summary{}, err
	}
	fmt.Print(meta.Diff)
	return model.Summary{Diff: meta.Diff, Message: report.Title(meta)}, nil
}

func (a *App) undoLastPatch() (model.Summary, error) {
	if !a.stateManager.HasHistory() {
		return model.Summary{Message: "No patch to undo."}, nil
	}
	restored, failed, err := a.stateManager.Undo()
	if err != nil {
		return model.Summary{}, err
	}
	summary := model.Summary{
		Modified: restored,
		Failed:   failed,
		Message:  "Undid last patch.",
	}
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

func (a *App) redoLastPatch() (model.Summary, error) {
	if !a.stateManager.HasRedo() {
		return model.Summary{Message: "No patch to redo."}, nil
	}
	redone, failed, err := a.stateManager.Redo()
	if err != nil {
		return model.Summary{}, err
	}
	summary := model.Summary{
		Modified: redone,
		Failed:   failed,
		Message:  "Redid last undone patch.",
	}
	a.relativizeSummaryPaths(&summary)
	return summary, nil
}

func (a *App) summarize(result *engine.Result) model.Summary {
	summary := model.Summary{
		Message: result.Title,
		Diff:    result.Metadata.Diff,
	}
	for _, entry := range result.Plan.Entries {
		switch entry.Type {
		case model.OpAdd:
			summary.Created = append(summary.Created, entry.Path)
		case model.OpUpdate:
			summary.Modified = append(summary.Modified, entry.Path)
		case model.OpDelete:
			summary.Deleted = append(summary.Deleted, entry.Path)
		case model.OpMove:
			summary.Moved = append(summary.Moved, entry.MovePath)
		}
	}
	a.relativizeSummaryPaths(&summary)
	return summary
}

// relativizeSummaryPaths converts absolute file paths in a summary to
// be relative to the working root for cleaner display.
func (a *App) relativizeSummaryPaths(summary *model.Summary) {
	makeRelative := func(absPaths []string) []string {
		if len(absPaths) == 0 {
			return absPaths
		}
		relPaths := make([]string, len(absPaths))
		for i, p := range absPaths {
			relPaths[i] = a.resolver.Rel(p)
		}
		return relPaths
	}

	summary.Created = makeRelative(summary.Created)
	summary.Modified = makeRelative(summary.Modified)
	summary.Deleted = makeRelative(summary.Deleted)
	summary.Moved = makeRelative(summary.Moved)
	summary.Failed = makeRelative(summary.Failed)
}
