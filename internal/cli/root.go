// Package cli exposes every extraction recipe as a cobra subcommand.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/cookbook/internal/core"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/model"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

type options struct {
	generator llm.Generator
	store     model.GraphStore
	noCache   bool
	envFile   string
	provider  string
	model     string
	retries   int
}

type Option func(*options)

// WithGenerator replaces the configured provider.
func WithGenerator(g llm.Generator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// WithGraphStore replaces the Neo4j store used by knowledge --persist.
func WithGraphStore(s model.GraphStore) Option {
	return func(o *options) {
		o.store = s
	}
}

// NewRootCommand builds the cookbook command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	var a *app

	root := &cobra.Command{
		Use:           "cookbook",
		Short:         "Structured extraction recipes over hosted LLMs",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations["offline"] == "true" || cmd.RunE == nil {
				return nil
			}
			cfg, err := LoadConfig(o.envFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if o.provider != "" {
				cfg.LLM.Provider = o.provider
			}
			if o.model != "" {
				cfg.LLM.Model = o.model
			}
			if o.retries > 0 {
				cfg.Extract.MaxRetries = o.retries
			}
			logx.Init(logx.LoggerOpts{
				Environment: core.ParseEnvironment(cfg.Env),
				Level:       cfg.LogLevel,
			})

			a, err = newApp(cmd.Context(), cfg, o)
			return err
		},
	}

	root.CompletionOptions.DisableDefaultCmd = true

	flags := root.PersistentFlags()
	flags.StringVar(&o.envFile, "env-file", ".env", "dotenv file to load")
	flags.StringVar(&o.provider, "provider", "", "override LLM_PROVIDER (gemini, genai, openai)")
	flags.StringVar(&o.model, "model", "", "override LLM_MODEL")
	flags.IntVar(&o.retries, "max-retries", 0, "override EXTRACT_MAX_RETRIES")
	flags.BoolVar(&o.noCache, "no-cache", false, "skip the Redis response cache")

	getApp := func() *app { return a }
	root.AddCommand(
		newRecipesCommand(),
		newActionItemsCommand(getApp),
		newQueryPlanCommand(getApp),
		newSegmentCommand(getApp),
		newEntitiesCommand(getApp),
		newCitationsCommand(getApp),
		newPIICommand(getApp),
		newTablesCommand(getApp),
		newClassifyCommand(getApp),
		newKnowledgeCommand(getApp),
		newSearchCommand(getApp),
		newCharacterCommand(getApp),
		newSQLCommand(getApp),
	)
	return root
}

// Execute runs the root command and reports a failure on stderr.
func Execute() int {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		return 1
	}
	return 0
}

type result struct {
	Result  any               `json:"result"`
	Reports []*extract.Report `json:"reports,omitempty"`
}

func printJSON(w io.Writer, v any, reports ...*extract.Report) error {
	var kept []*extract.Report
	for _, r := range reports {
		if r != nil {
			kept = append(kept, r)
		}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(result{Result: v, Reports: kept})
}

// withApp runs fn with the app built for this invocation and releases it
// afterwards, whether fn fails or not.
func withApp(getApp func() *app, fn func(cmd *cobra.Command, a *app) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a := getApp()
		defer func() {
			if cerr := a.close(cmd.Context()); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, a)
	}
}

// readInput returns the file's content, or fallback when path is empty.
func readInput(path, fallback string) (string, error) {
	if path == "" {
		return fallback, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read input: %w", err)
	}
	return string(raw), nil
}
