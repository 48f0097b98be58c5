// Package engine wires the patch pipeline: unwrap, parse, verify,
// apply, report. One Execute call is one all-or-nothing transaction;
// nothing is written until every operation has verified.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/sokinpui/apf.go/internal/applier"
	"github.com/sokinpui/apf.go/internal/fs"
	"github.com/sokinpui/apf.go/internal/heredoc"
	"github.com/sokinpui/apf.go/internal/parser"
	"github.com/sokinpui/apf.go/internal/planner"
	"github.com/sokinpui/apf.go/internal/report"
	"github.com/sokinpui/apf.go/model"
)

// AskFunc receives the diff metadata of a committed patch. It is a
// notification hook for an external permission broker; the engine does
// not block on any decision it makes.
type AskFunc func(model.Metadata)

// Params carries the raw tool input.
type Params struct {
	PatchText string
}

// Options configure an Engine.
type Options struct {
	Resolver *fs.Resolver
	// Ask, when set, is invoked once with the metadata of a committed
	// patch before Execute returns.
	Ask AskFunc
	// Extensions, when non-empty, restricts operations to targets with
	// one of the given file extensions (e.g. ".go").
	Extensions []string
}

// Result is the outcome of a successful Execute.
type Result struct {
	Title    string
	Output   string
	Metadata model.Metadata
	Plan     *planner.Plan
}

// Engine applies one patch document per Execute call. It holds no
// cross-call state; callers serialize overlapping patches themselves.
type Engine struct {
	opts Options
}

func New(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Plan unwraps, parses and verifies patchText without touching disk.
func (e *Engine) Plan(ctx context.Context, patchText string) (*planner.Plan, error) {
	doc, err := parser.Parse(heredoc.Unwrap(patchText))
	if err != nil {
		return nil, err
	}
	e.filterByExtension(doc)
	return planner.Build(ctx, doc, e.opts.Resolver)
}

// Preview verifies patchText and reports the metadata it would produce,
// applying nothing.
func (e *Engine) Preview(ctx context.Context, patchText string) (model.Metadata, error) {
	plan, err := e.Plan(ctx, patchText)
	if err != nil {
		return model.Metadata{}, err
	}
	return report.Build(plan)
}

// Execute runs the full pipeline for one patch.
func (e *Engine) Execute(ctx context.Context, p Params) (*Result, error) {
	plan, err := e.Plan(ctx, p.PatchText)
	if err != nil {
		return nil, err
	}
	return e.Commit(ctx, plan)
}

// Commit applies a verified plan and reports on it. Cancellation is
// honored before the first write; once writes begin the plan runs to
// completion so the all-or-nothing contract holds.
func (e *Engine) Commit(ctx context.Context, plan *planner.Plan) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := applier.Commit(plan); err != nil {
		return nil, err
	}

	meta, err := report.Build(plan)
	if err != nil {
		return nil, err
	}
	if e.opts.Ask != nil {
		e.opts.Ask(meta)
	}

	return &Result{
		Title:    report.Title(meta),
		Output:   formatOutput(plan),
		Metadata: meta,
		Plan:     plan,
	}, nil
}

func (e *Engine) filterByExtension(doc *parser.Document) {
	if len(e.opts.Extensions) == 0 {
		return
	}
	kept := doc.Ops[:0]
	for _, op := range doc.Ops {
		if e.extensionAllowed(op.Path) {
			kept = append(kept, op)
		}
	}
	doc.Ops = kept
}

func (e *Engine) extensionAllowed(path string) bool {
	ext := filepath.Ext(path)
	for _, allowed := range e.opts.Extensions {
		if ext == allowed {
			return true
		}
	}
	return false
}

func formatOutput(plan *planner.Plan) string {
	if len(plan.Entries) == 0 {
		return "No changes."
	}
	var b strings.Builder
	b.WriteString("Success. Updated the following files:\n")
	for _, entry := range plan.Entries {
		switch entry.Type {
		case model.OpAdd:
			fmt.Fprintf(&b, "A %s\n", entry.RelPath)
		case model.OpUpdate:
			fmt.Fprintf(&b, "M %s\n", entry.RelPath)
		case model.OpMove:
			fmt.Fprintf(&b, "R %s -> %s\n", entry.RelPath, entry.RelMovePath)
		case model.OpDelete:
			fmt.Fprintf(&b, "D %s\n", entry.RelPath)
		}
	}
	return b.String()
}
