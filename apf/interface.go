package apf

import (
	"context"
	"fmt"

	"github.com/sokinpui/apf.go/cli"
	"github.com/sokinpui/apf.go/internal/engine"
	"github.com/sokinpui/apf.go/model"
)

// Config for using apf as a library.
type Config struct {
	// Directory is the working root patch paths resolve against.
	// Empty means the current working directory.
	Directory string
	// Extensions filters operations by target extension (e.g. ".go").
	Extensions []string
	// Ask, when set, receives the diff metadata of the committed patch.
	Ask func(model.Metadata)
}

// Apply parses the given patch text and applies it to files under the
// working root as one all-or-nothing transaction.
func Apply(ctx context.Context, patchText string, config Config) (model.Summary, error) {
	cliCfg := &cli.Config{
		Directory:  config.Directory,
		Extensions: config.Extensions,
	}

	var ask engine.AskFunc
	if config.Ask != nil {
		ask = engine.AskFunc(config.Ask)
	}

	app, err := newApp(cliCfg, ask)
	if err != nil {
		return model.Summary{}, fmt.Errorf("failed to initialize apf app: %w", err)
	}

	return app.ApplyText(ctx, patchText)
}
