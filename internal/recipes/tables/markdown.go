package tables

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

var ErrNoTable = errors.New("no markdown table found")

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// Frame is a parsed table: a header row and data rows of equal width.
type Frame struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// ParseMarkdown parses the first table in src.
func ParseMarkdown(src string) (*Frame, error) {
	frames, err := ParseAll(src)
	if err != nil {
		return nil, err
	}
	return frames[0], nil
}

// ParseAll parses every GFM table in src, in document order.
func ParseAll(src string) ([]*Frame, error) {
	source := []byte(src)
	doc := md.Parser().Parse(text.NewReader(source))

	var frames []*Frame
	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		table, ok := n.(*extast.Table)
		if !ok {
			return ast.WalkContinue, nil
		}
		frames = append(frames, frameOf(table, source))
		return ast.WalkSkipChildren, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse markdown: %w", err)
	}
	if len(frames) == 0 {
		return nil, ErrNoTable
	}
	return frames, nil
}

func frameOf(table *extast.Table, source []byte) *Frame {
	f := &Frame{}
	for row := table.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, cellText(cell, source))
		}
		switch row.(type) {
		case *extast.TableHeader:
			f.Columns = cells
		case *extast.TableRow:
			f.Rows = append(f.Rows, cells)
		}
	}
	for i, r := range f.Rows {
		f.Rows[i] = fit(r, len(f.Columns))
	}
	return f
}

func cellText(n ast.Node, source []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Value(source))
			if t.SoftLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func fit(row []string, width int) []string {
	if len(row) >= width {
		return row[:width]
	}
	return append(row, make([]string, width-len(row))...)
}

// Column returns the values of the named column.
func (f *Frame) Column(name string) ([]string, bool) {
	for i, c := range f.Columns {
		if c == name {
			out := make([]string, len(f.Rows))
			for j, r := range f.Rows {
				out[j] = r[i]
			}
			return out, true
		}
	}
	return nil, false
}

// WriteCSV writes the header and rows as CSV.
func (f *Frame) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(f.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(f.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func (f *Frame) CSV() (string, error) {
	var buf bytes.Buffer
	if err := f.WriteCSV(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}
