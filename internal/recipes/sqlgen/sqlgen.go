// Package sqlgen turns a natural language request into a structured SELECT
// query and renders it as SQL.
package sqlgen

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/Chative-core-poc-v1/cookbook/internal/extract"
	"github.com/Chative-core-poc-v1/cookbook/internal/recipes"
	logx "github.com/Chative-core-poc-v1/cookbook/pkg/logger"
)

const Name = "sql_query"

const Sample = "Show me the ten most recent orders over $100 shipped to Canada or Mexico, newest first."

const SampleSchema = `orders(id, customer_id, total, status, ship_country, created_at)
customers(id, name, country, email)`

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

var operators = map[Operator]bool{
	OpEq: true, OpNotEq: true, OpGt: true, OpGtEq: true, OpLt: true, OpLtEq: true, OpLike: true, OpIn: true,
}

type Operator string

const (
	OpEq    Operator = "="
	OpNotEq Operator = "!="
	OpGt    Operator = ">"
	OpGtEq  Operator = ">="
	OpLt    Operator = "<"
	OpLtEq  Operator = "<="
	OpLike  Operator = "like"
	OpIn    Operator = "in"
)

type Filter struct {
	Column   string   `json:"column" validate:"required"`
	Operator Operator `json:"operator" validate:"required" jsonschema:"enum==,enum=!=,enum=>,enum=>=,enum=<,enum=<=,enum=like,enum=in"`
	Value    string   `json:"value" jsonschema_description:"Value compared against the column, ignored for in"`
	Values   []string `json:"values,omitempty" jsonschema_description:"Values for the in operator"`
}

type SQLQuery struct {
	Table      string   `json:"table" validate:"required"`
	Columns    []string `json:"columns" jsonschema_description:"Selected columns, empty for all"`
	Filters    []Filter `json:"filters,omitempty" validate:"dive"`
	OrderBy    string   `json:"order_by,omitempty"`
	Descending bool     `json:"descending,omitempty"`
	Limit      int      `json:"limit,omitempty" validate:"gte=0"`
}

// Validate checks identifiers and operators so the rendered SQL can only
// reference plain column and table names.
func (q *SQLQuery) Validate() error {
	names := []string{q.Table}
	for _, c := range q.Columns {
		if c != "*" {
			names = append(names, c)
		}
	}
	if q.OrderBy != "" {
		names = append(names, q.OrderBy)
	}
	for _, f := range q.Filters {
		names = append(names, f.Column)
	}
	for _, n := range names {
		if !identifier.MatchString(n) {
			return fmt.Errorf("%q is not a valid identifier", n)
		}
	}
	for _, f := range q.Filters {
		if !operators[f.Operator] {
			return fmt.Errorf("filter on %s: unsupported operator %q", f.Column, f.Operator)
		}
		if f.Operator == OpIn && len(f.Values) == 0 {
			return fmt.Errorf("filter on %s uses in without values", f.Column)
		}
	}
	return nil
}

// Builder converts the query into a squirrel select builder.
func (q *SQLQuery) Builder() sq.SelectBuilder {
	cols := q.Columns
	if len(cols) == 0 {
		cols = []string{"*"}
	}
	b := sq.Select(cols...).From(q.Table)
	for _, f := range q.Filters {
		b = b.Where(f.predicate())
	}
	if q.OrderBy != "" {
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		b = b.OrderBy(q.OrderBy + " " + dir)
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}
	return b
}

func (f Filter) predicate() sq.Sqlizer {
	switch f.Operator {
	case OpNotEq:
		return sq.NotEq{f.Column: f.Value}
	case OpGt:
		return sq.Gt{f.Column: f.Value}
	case OpGtEq:
		return sq.GtOrEq{f.Column: f.Value}
	case OpLt:
		return sq.Lt{f.Column: f.Value}
	case OpLtEq:
		return sq.LtOrEq{f.Column: f.Value}
	case OpLike:
		return sq.Like{f.Column: f.Value}
	case OpIn:
		return sq.Eq{f.Column: f.Values}
	default:
		return sq.Eq{f.Column: f.Value}
	}
}

// ToSQL returns the parameterised statement and its arguments.
func (q *SQLQuery) ToSQL() (string, []any, error) {
	return q.Builder().ToSql()
}

// Inline returns the statement with arguments substituted, for display only.
func (q *SQLQuery) Inline() string {
	return sq.DebugSqlizer(q.Builder())
}

// WriteFile writes a throwaway .sql file with the parameterised statement and
// its arguments as a comment.
func (q *SQLQuery) WriteFile(path string) error {
	if filepath.Ext(path) != ".sql" {
		return fmt.Errorf("sql file %s must have the .sql extension", path)
	}
	stmt, args, err := q.ToSQL()
	if err != nil {
		return fmt.Errorf("build sql: %w", err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "-- %s\n", q.Inline())
	for i, a := range args {
		fmt.Fprintf(&b, "-- arg %d = %v\n", i+1, a)
	}
	b.WriteString(stmt)
	b.WriteString(";\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write sql: %w", err)
	}
	logx.Info().Str("recipe", Name).Str("path", path).Msg("sql written")
	return nil
}

var sqlPrompt = recipes.NewPrompt(`You translate requests into a single SELECT query over the given tables.
Only use tables and columns from the schema. Use the in operator with values
for lists, and like with % wildcards for partial text matches.

Schema:
{{.Schema}}`, "{{.Request}}")

// Extract builds a query for request over the tables described in dbSchema.
func Extract(ctx context.Context, ex *extract.Extractor, request, dbSchema string) (*SQLQuery, *extract.Report, error) {
	if err := recipes.RequireText(Name, request); err != nil {
		return nil, nil, err
	}
	var out SQLQuery
	report, err := ex.Extract(ctx, extract.Request{
		Name:        Name,
		Description: "A SELECT query over one table",
		Prompt:      sqlPrompt,
		Vars:        map[string]any{"Request": request, "Schema": dbSchema},
		Validate: func() error {
			_, _, err := out.ToSQL()
			return err
		},
	}, &out)
	if err != nil {
		return nil, report, err
	}
	return &out, report, nil
}
