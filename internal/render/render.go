// Package render draws id-referencing records as directed graphs.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/emicklei/dot"
	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"

	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

type Format string

const (
	FormatDOT     Format = "dot"
	FormatMermaid Format = "mmd"
	FormatPNG     Format = "png"
	FormatSVG     Format = "svg"
	FormatJPG     Format = "jpg"
)

// Node is a vertex. When Fields is set the node is drawn as a record with the
// label as its header row.
type Node struct {
	ID     string
	Label  string
	Color  string
	Fields []string
}

type Edge struct {
	From  string
	To    string
	Label string
	Color string
}

type Diagram struct {
	Name string
	// LeftToRight lays the graph out horizontally instead of top to bottom.
	LeftToRight bool
	Nodes       []Node
	Edges       []Edge
}

// Dangling returns edge endpoints that are not declared as nodes, in first-seen order.
func (d Diagram) Dangling() []string {
	known := make(map[string]bool, len(d.Nodes))
	for _, n := range d.Nodes {
		known[n.ID] = true
	}
	var missing []string
	for _, e := range d.Edges {
		for _, id := range []string{e.From, e.To} {
			if !known[id] {
				known[id] = true
				missing = append(missing, id)
			}
		}
	}
	return missing
}

// Graph builds the DOT graph. Undeclared edge endpoints become dashed
// placeholder nodes so that broken references stay visible.
func Graph(d Diagram) *dot.Graph {
	g := dot.NewGraph(dot.Directed)
	if d.Name != "" {
		g.Label(d.Name)
	}
	if d.LeftToRight {
		g.Attr("rankdir", "LR")
	}

	for _, n := range d.Nodes {
		node := g.Node(n.ID)
		if len(n.Fields) > 0 {
			node.Attr("shape", "record").Attr("label", dot.Literal(recordLabel(labelOf(n), n.Fields)))
		} else {
			node.Label(labelOf(n))
		}
		if n.Color != "" {
			node.Attr("color", n.Color)
		}
	}
	for _, id := range d.Dangling() {
		g.Node(id).Attr("style", "dashed")
	}
	for _, e := range d.Edges {
		edge := g.Edge(g.Node(e.From), g.Node(e.To))
		if e.Label != "" {
			edge.Label(e.Label)
		}
		if e.Color != "" {
			edge.Attr("color", e.Color)
		}
	}
	return g
}

// Mermaid renders the diagram as a Mermaid flowchart.
func Mermaid(d Diagram) string {
	// The Mermaid writer only understands string labels, so shapes, colours
	// and styles stay out of this graph.
	g := dot.NewGraph(dot.Directed)
	for _, n := range d.Nodes {
		label := labelOf(n)
		if len(n.Fields) > 0 {
			label += ": " + strings.Join(n.Fields, ", ")
		}
		g.Node(n.ID).Label(label)
	}
	for _, e := range d.Edges {
		g.Edge(g.Node(e.From), g.Node(e.To), nonEmpty(e.Label)...)
	}
	orientation := dot.MermaidTopToBottom
	if d.LeftToRight {
		orientation = dot.MermaidLeftToRight
	}
	return dot.MermaidGraph(g, orientation)
}

// FormatOf picks the output format from a file extension.
func FormatOf(path string) (Format, error) {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")); ext {
	case "dot", "gv":
		return FormatDOT, nil
	case "mmd", "mermaid":
		return FormatMermaid, nil
	case "png":
		return FormatPNG, nil
	case "svg":
		return FormatSVG, nil
	case "jpg", "jpeg":
		return FormatJPG, nil
	default:
		return "", fmt.Errorf("unsupported graph format %q", ext)
	}
}

// Encode writes the diagram to w in the given format.
func Encode(ctx context.Context, d Diagram, format Format, w io.Writer) error {
	switch format {
	case FormatDOT:
		_, err := io.WriteString(w, Graph(d).String())
		return err
	case FormatMermaid:
		_, err := io.WriteString(w, Mermaid(d))
		return err
	case FormatPNG, FormatSVG, FormatJPG:
		return rasterize(ctx, Graph(d), graphviz.Format(format), w)
	default:
		return fmt.Errorf("unsupported graph format %q", format)
	}
}

// Write renders the diagram into path, choosing the format by extension.
func Write(ctx context.Context, d Diagram, path string) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := Encode(ctx, d, format, &buf); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("render %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("render %s: %w", path, err)
	}

	logx.Info().
		Str("component", "render").
		Str("path", path).
		Str("format", string(format)).
		Int("nodes", len(d.Nodes)).
		Int("edges", len(d.Edges)).
		Msg("graph written")
	return nil
}

func rasterize(ctx context.Context, g *dot.Graph, format graphviz.Format, w io.Writer) error {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return fmt.Errorf("graphviz: %w", err)
	}
	defer gv.Close()

	parsed, err := cgraph.ParseBytes([]byte(g.String()))
	if err != nil {
		return fmt.Errorf("graphviz parse: %w", err)
	}
	defer parsed.Close()

	if err := gv.Render(ctx, parsed, format, w); err != nil {
		return fmt.Errorf("graphviz render: %w", err)
	}
	return nil
}

func labelOf(n Node) string {
	if n.Label != "" {
		return n.Label
	}
	return n.ID
}

func nonEmpty(label string) []string {
	if label == "" {
		return nil
	}
	return []string{label}
}

var recordEscaper = strings.NewReplacer(
	`\`, `\\`, `{`, `\{`, `}`, `\}`, `|`, `\|`, `<`, `\<`, `>`, `\>`, `"`, `\"`,
)

// recordLabel returns a quoted record label with left-justified field rows.
func recordLabel(title string, fields []string) string {
	var b strings.Builder
	b.WriteString(`"{`)
	b.WriteString(recordEscaper.Replace(title))
	b.WriteString("|")
	for _, f := range fields {
		b.WriteString(recordEscaper.Replace(f))
		b.WriteString(`\l`)
	}
	b.WriteString(`}"`)
	return b.String()
}
