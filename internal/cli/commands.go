package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/extract/llm"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/actionitems"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/character"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/citations"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/classify"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/entities"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/knowledge"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/pii"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/queryplan"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/search"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/segment"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/sqlgen"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes/tables"
	"github.com/Chative-core-poc-v1/cookbook/internal/render"
)

var catalog = []struct {
	command string
	summary string
}{
	{"action-items", "Tickets, subtasks and dependencies from a meeting transcript"},
	{"query-plan", "Dependency graph of sub-queries for a question, optionally executed"},
	{"segment", "Topical sections of a document by line range"},
	{"entities", "Entities with resolved properties and dependencies"},
	{"citations", "Answer with facts backed by exact quotes from the context"},
	{"pii", "Personal data found in a document, and the scrubbed document"},
	{"tables", "Tables from an image or text as markdown and CSV"},
	{"classify", "Spam or support-ticket labels for a text"},
	{"knowledge", "Knowledge graph built chunk by chunk, optionally stored in Neo4j"},
	{"search", "Typed searches split from a request, optionally executed"},
	{"character", "Validated character sheet from a description"},
	{"sql", "SELECT query from a natural language request"},
}

func newRecipesCommand() *cobra.Command {
	return &cobra.Command{
		Use:         "recipes",
		Short:       "List the available recipes",
		Annotations: map[string]string{"offline": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			for _, r := range catalog {
				fmt.Fprintf(tw, "%s\t%s\n", r.command, r.summary)
			}
			return tw.Flush()
		},
	}
}

// writeGraph renders d when a path was given.
func writeGraph(cmd *cobra.Command, d render.Diagram, path string) error {
	if path == "" {
		return nil
	}
	return render.Write(cmd.Context(), d, path)
}

func newActionItemsCommand(getApp func() *app) *cobra.Command {
	var file, graph string
	cmd := &cobra.Command{
		Use:   "action-items",
		Short: "Extract tickets from a meeting transcript",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			text, err := readInput(file, actionitems.Sample)
			if err != nil {
				return err
			}
			items, report, err := actionitems.Extract(cmd.Context(), a.extractor, text)
			if err != nil {
				return err
			}
			if err := writeGraph(cmd, items.Diagram(), graph); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items, report)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "transcript file (default: built-in sample)")
	cmd.Flags().StringVar(&graph, "graph", "", "write the dependency graph (.dot, .gv, .mmd, .png, .svg, .jpg)")
	return cmd
}

func newQueryPlanCommand(getApp func() *app) *cobra.Command {
	var question, graph string
	var execute bool
	cmd := &cobra.Command{
		Use:   "query-plan",
		Short: "Plan sub-queries for a question",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			plan, report, err := queryplan.Extract(cmd.Context(), a.extractor, question)
			if err != nil {
				return err
			}
			if err := writeGraph(cmd, plan.Diagram(), graph); err != nil {
				return err
			}
			if !execute {
				return printJSON(cmd.OutOrStdout(), plan, report)
			}
			answers, err := plan.Execute(cmd.Context(), queryplan.NewExtractorAnswerer(a.extractor))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"plan": plan, "answers": answers}, report)
		}),
	}
	cmd.Flags().StringVar(&question, "question", queryplan.Sample, "question to plan")
	cmd.Flags().StringVar(&graph, "graph", "", "write the query graph")
	cmd.Flags().BoolVar(&execute, "execute", false, "answer every sub-query in dependency order")
	return cmd
}

func newSegmentCommand(getApp func() *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Split a document into topical sections",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			text, err := readInput(file, segment.Sample)
			if err != nil {
				return err
			}
			_, segments, report, err := segment.Extract(cmd.Context(), a.extractor, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), segments, report)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "document file (default: built-in sample)")
	return cmd
}

func newEntitiesCommand(getApp func() *app) *cobra.Command {
	var file, graph string
	cmd := &cobra.Command{
		Use:   "entities",
		Short: "Extract and resolve entities from a document",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			text, err := readInput(file, entities.Sample)
			if err != nil {
				return err
			}
			doc, report, err := entities.Extract(cmd.Context(), a.extractor, text)
			if err != nil {
				return err
			}
			if err := writeGraph(cmd, doc.Diagram(), graph); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), doc, report)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "document file (default: built-in sample contract)")
	cmd.Flags().StringVar(&graph, "graph", "", "write the entity graph")
	return cmd
}

func newCitationsCommand(getApp func() *app) *cobra.Command {
	var file, question string
	cmd := &cobra.Command{
		Use:   "citations",
		Short: "Answer a question with exact citations",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			ctxText, err := readInput(file, citations.SampleContext)
			if err != nil {
				return err
			}
			qa, report, err := citations.Extract(cmd.Context(), a.extractor, question, ctxText)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), qa, report)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "context file (default: built-in sample)")
	cmd.Flags().StringVar(&question, "question", citations.SampleQuestion, "question to answer")
	return cmd
}

func newPIICommand(getApp func() *app) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "pii",
		Short: "Find and scrub personal data",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			text, err := readInput(file, pii.Sample)
			if err != nil {
				return err
			}
			found, report, err := pii.Extract(cmd.Context(), a.extractor, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{
				"private_data": found.PrivateData,
				"scrubbed":     found.Scrub(text),
			}, report)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "document file (default: built-in sample)")
	return cmd
}

func newTablesCommand(getApp func() *app) *cobra.Command {
	var file, out string
	var images []string
	cmd := &cobra.Command{
		Use:   "tables",
		Short: "Extract tables from images or text",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			var (
				got    *tables.MultipleTables
				report *extract.Report
				err    error
			)
			if len(images) > 0 {
				imgs := make([]llm.Image, 0, len(images))
				for _, p := range images {
					img, err := llm.LoadImage(p)
					if err != nil {
						return err
					}
					imgs = append(imgs, img)
				}
				got, report, err = tables.ExtractImages(cmd.Context(), a.extractor, imgs...)
			} else {
				text, rerr := readInput(file, tables.Sample)
				if rerr != nil {
					return rerr
				}
				got, report, err = tables.ExtractText(cmd.Context(), a.extractor, text)
			}
			if err != nil {
				return err
			}
			frames, err := got.Frames()
			if err != nil {
				return err
			}
			if out != "" {
				if err := writeCSVs(out, frames); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"tables": got.Tables, "frames": frames}, report)
		}),
	}
	cmd.Flags().StringSliceVar(&images, "image", nil, "image file(s) containing tables")
	cmd.Flags().StringVar(&file, "file", "", "text file with tables (default: built-in sample)")
	cmd.Flags().StringVar(&out, "out", "", "directory to write one CSV per table")
	return cmd
}

func writeCSVs(dir string, frames []*tables.Frame) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, f := range frames {
		csv, err := f.CSV()
		if err != nil {
			return err
		}
		if err := os.WriteFile(filepath.Join(dir, fmt.Sprintf("table_%d.csv", i+1)), []byte(csv), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func newClassifyCommand(getApp func() *app) *cobra.Command {
	var text string
	var multi bool
	cmd := &cobra.Command{
		Use:   "classify",
		Short: "Classify a text as spam, or a support ticket into labels with --multi",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			if multi {
				pred, report, err := classify.ClassifyMulti(cmd.Context(), a.extractor, text)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), pred, report)
			}
			pred, report, err := classify.Classify(cmd.Context(), a.extractor, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pred, report)
		}),
	}
	cmd.Flags().StringVar(&text, "text", "Hello there I'm a Nigerian prince and I want to give you money", "text to classify")
	cmd.Flags().BoolVar(&multi, "multi", false, "multi-label support ticket classification")
	return cmd
}

func newKnowledgeCommand(getApp func() *app) *cobra.Command {
	var file, graph, persist string
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "Build a knowledge graph one paragraph at a time",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			chunks := knowledge.Sample
			if file != "" {
				text, err := readInput(file, "")
				if err != nil {
					return err
				}
				chunks = paragraphs(text)
			}
			kg, reports, err := knowledge.Build(cmd.Context(), a.extractor, chunks)
			if err != nil {
				return err
			}
			if err := writeGraph(cmd, kg.Diagram(), graph); err != nil {
				return err
			}
			if persist != "" {
				store, err := a.graphStore(cmd.Context())
				if err != nil {
					return err
				}
				if err := kg.Save(cmd.Context(), store, persist); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), kg, reports...)
		}),
	}
	cmd.Flags().StringVar(&file, "file", "", "text file, one chunk per paragraph (default: built-in sample)")
	cmd.Flags().StringVar(&graph, "graph", "", "write the knowledge graph")
	cmd.Flags().StringVar(&persist, "persist", "", "store the graph in Neo4j under this name")
	return cmd
}

// paragraphs splits text on blank lines.
func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func newSearchCommand(getApp func() *app) *cobra.Command {
	var request string
	var execute bool
	cmd := &cobra.Command{
		Use:   "search",
		Short: "Split a request into typed searches",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			ms, report, err := search.Extract(cmd.Context(), a.extractor, request)
			if err != nil {
				return err
			}
			if !execute {
				return printJSON(cmd.OutOrStdout(), ms, report)
			}
			results, err := ms.Execute(cmd.Context(), search.NewBackends(search.SampleCorpus))
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), results, report)
		}),
	}
	cmd.Flags().StringVar(&request, "request", search.Sample, "what to search for")
	cmd.Flags().BoolVar(&execute, "execute", false, "run the searches against the built-in corpus")
	return cmd
}

func newCharacterCommand(getApp func() *app) *cobra.Command {
	var text string
	cmd := &cobra.Command{
		Use:   "character",
		Short: "Extract a validated character sheet",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			c, report, err := character.Extract(cmd.Context(), a.extractor, text)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), c, report)
		}),
	}
	cmd.Flags().StringVar(&text, "text", character.Sample, "character description")
	return cmd
}

func newSQLCommand(getApp func() *app) *cobra.Command {
	var request, dbSchema, out string
	cmd := &cobra.Command{
		Use:   "sql",
		Short: "Turn a request into a SELECT query",
		RunE: withApp(getApp, func(cmd *cobra.Command, a *app) error {
			q, report, err := sqlgen.Extract(cmd.Context(), a.extractor, request, dbSchema)
			if err != nil {
				return err
			}
			stmt, args, err := q.ToSQL()
			if err != nil {
				return err
			}
			if out != "" {
				if err := q.WriteFile(out); err != nil {
					return err
				}
			}
			return printJSON(cmd.OutOrStdout(), map[string]any{"query": q, "sql": stmt, "args": args}, report)
		}),
	}
	cmd.Flags().StringVar(&request, "request", sqlgen.Sample, "what to query")
	cmd.Flags().StringVar(&dbSchema, "schema", sqlgen.SampleSchema, "tables and columns available")
	cmd.Flags().StringVar(&out, "out", "", "write the statement to this .sql file")
	return cmd
}
