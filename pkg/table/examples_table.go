// Package table implements examples tables: the tabular data attached to
// scenarios and step parameters.
package table

import (
	"errors"
	"fmt"
	"iter"
	"reflect"
	"strings"
	"unicode/utf8"
)

const (
	DefaultHeaderSeparator    = "|"
	DefaultValueSeparator     = "|"
	DefaultIgnorableSeparator = "|--"
)

var (
	// ErrMalformedTable is returned for rows that are not delimited by the
	// separators, rows whose cell count differs from the header, or
	// duplicate headers.
	ErrMalformedTable = errors.New("malformed examples table")

	// ErrColumnNotFound is returned when a row has no such column.
	ErrColumnNotFound = errors.New("column not found")

	// ErrUnknownTransformer is returned for a transformer name nobody registered.
	ErrUnknownTransformer = errors.New("unknown table transformer")
)

// ValueConverter converts a cell value to a target type.
type ValueConverter interface {
	Convert(value string, target reflect.Type) (any, error)
}

// Data is the raw structure transformers consume and produce.
type Data struct {
	Headers []string
	Rows    [][]string
}

// ExamplesTable holds headers and rows. Every row has exactly one value per
// header.
type ExamplesTable struct {
	headers    []string
	rows       [][]string
	index      map[string]int
	settings   settings
	source     string
	properties []map[string]string
}

// Empty returns a table without headers and rows.
func Empty() *ExamplesTable {
	return &ExamplesTable{index: map[string]int{}, settings: defaultSettings()}
}

// New builds a table from headers and rows.
func New(headers []string, rows [][]string, opts ...Option) (*ExamplesTable, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return build(Data{Headers: headers, Rows: rows}, s, "", nil)
}

func build(data Data, s settings, source string, props []map[string]string) (*ExamplesTable, error) {
	index := make(map[string]int, len(data.Headers))
	headers := make([]string, len(data.Headers))
	for i, h := range data.Headers {
		if _, dup := index[h]; dup {
			return nil, fmt.Errorf("%w: duplicate header %q", ErrMalformedTable, h)
		}
		index[h] = i
		headers[i] = h
	}

	if err := checkShape(data); err != nil {
		return nil, err
	}
	rows := make([][]string, len(data.Rows))
	for i, row := range data.Rows {
		rows[i] = append([]string(nil), row...)
	}

	return &ExamplesTable{
		headers:    headers,
		rows:       rows,
		index:      index,
		settings:   s,
		source:     source,
		properties: props,
	}, nil
}

// Headers returns the column names in order.
func (t *ExamplesTable) Headers() []string {
	return append([]string(nil), t.headers...)
}

// RowCount returns the number of data rows, excluding the header.
func (t *ExamplesTable) RowCount() int {
	return len(t.rows)
}

// IsEmpty reports whether the table has no data rows.
func (t *ExamplesTable) IsEmpty() bool {
	return len(t.rows) == 0
}

// Row returns row i as a header to value map.
func (t *ExamplesTable) Row(i int) map[string]string {
	row := make(map[string]string, len(t.headers))
	for j, h := range t.headers {
		row[h] = t.rows[i][j]
	}
	return row
}

// Rows returns every row as a header to value map.
func (t *ExamplesTable) Rows() []map[string]string {
	rows := make([]map[string]string, len(t.rows))
	for i := range t.rows {
		rows[i] = t.Row(i)
	}
	return rows
}

// Values returns the cells of row i in header order.
func (t *ExamplesTable) Values(i int) []string {
	return append([]string(nil), t.rows[i]...)
}

// All iterates over the rows as header to value maps.
func (t *ExamplesTable) All() iter.Seq2[int, map[string]string] {
	return func(yield func(int, map[string]string) bool) {
		for i := range t.rows {
			if !yield(i, t.Row(i)) {
				return
			}
		}
	}
}

// Column returns every value of a column.
func (t *ExamplesTable) Column(name string) ([]string, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
	}
	values := make([]string, len(t.rows))
	for i, row := range t.rows {
		values[i] = row[j]
	}
	return values, nil
}

// RowsAsParameters wraps every row for typed access.
func (t *ExamplesTable) RowsAsParameters() []Parameters {
	params := make([]Parameters, len(t.rows))
	for i := range t.rows {
		params[i] = Parameters{values: t.Row(i), headers: t.headers, converter: t.settings.converter}
	}
	return params
}

// RowAsParameters wraps row i for typed access.
func (t *ExamplesTable) RowAsParameters(i int) Parameters {
	return Parameters{values: t.Row(i), headers: t.headers, converter: t.settings.converter}
}

// HeaderSeparator returns the separator used between header cells.
func (t *ExamplesTable) HeaderSeparator() string { return t.settings.headerSeparator }

// ValueSeparator returns the separator used between row cells.
func (t *ExamplesTable) ValueSeparator() string { return t.settings.valueSeparator }

// Properties returns the inline property blocks the table was declared with.
func (t *ExamplesTable) Properties() []map[string]string {
	return t.properties
}

// Data returns a copy of the raw structure.
func (t *ExamplesTable) Data() Data {
	rows := make([][]string, len(t.rows))
	for i, row := range t.rows {
		rows[i] = append([]string(nil), row...)
	}
	return Data{Headers: t.Headers(), Rows: rows}
}

// String returns the text of the table. A parsed, untransformed table
// returns its source text; any other table is written with its separators,
// one line per row.
func (t *ExamplesTable) String() string {
	if t.source != "" {
		return t.source
	}
	if len(t.headers) == 0 {
		return ""
	}

	widths := make([]int, len(t.headers))
	if t.settings.aligned {
		for j, h := range t.headers {
			widths[j] = utf8.RuneCountInString(h)
			for _, row := range t.rows {
				widths[j] = max(widths[j], utf8.RuneCountInString(row[j]))
			}
		}
	}

	var b strings.Builder
	writeLine(&b, t.headers, widths, t.settings.headerSeparator)
	for _, row := range t.rows {
		b.WriteString("\n")
		writeLine(&b, row, widths, t.settings.valueSeparator)
	}
	return b.String()
}

func writeLine(b *strings.Builder, cells []string, widths []int, sep string) {
	b.WriteString(sep)
	for j, c := range cells {
		b.WriteString(c)
		if pad := widths[j] - utf8.RuneCountInString(c); pad > 0 {
			b.WriteString(strings.Repeat(" ", pad))
		}
		b.WriteString(sep)
	}
}
