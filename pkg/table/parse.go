package table

import (
	"fmt"
	"strconv"
	"strings"
)

type settings struct {
	headerSeparator    string
	valueSeparator     string
	ignorableSeparator string
	trim               bool
	transformers       *Transformers
	stages             []map[string]string
	converter          ValueConverter
	aligned            bool
}

func defaultSettings() settings {
	return settings{
		headerSeparator:    DefaultHeaderSeparator,
		valueSeparator:     DefaultValueSeparator,
		ignorableSeparator: DefaultIgnorableSeparator,
		trim:               true,
	}
}

// Option configures parsing and typed access.
type Option func(*settings)

// WithSeparators sets the header and value separators.
func WithSeparators(header, value string) Option {
	return func(s *settings) {
		s.headerSeparator = header
		s.valueSeparator = value
	}
}

// WithIgnorableSeparator sets the prefix that marks comment rows.
func WithIgnorableSeparator(sep string) Option {
	return func(s *settings) {
		s.ignorableSeparator = sep
	}
}

// WithTrim controls whether cell values are trimmed.
func WithTrim(trim bool) Option {
	return func(s *settings) {
		s.trim = trim
	}
}

// WithTransformers sets the registry used to resolve transformer names.
func WithTransformers(t *Transformers) Option {
	return func(s *settings) {
		s.transformers = t
	}
}

// WithTransformer appends a transformer stage that runs before any stage
// declared inline in the table text.
func WithTransformer(name string, props map[string]string) Option {
	return func(s *settings) {
		stage := map[string]string{"transformer": name}
		for k, v := range props {
			stage[k] = v
		}
		s.stages = append(s.stages, stage)
	}
}

// WithConverter sets the converter backing Parameters.ValueAs.
func WithConverter(c ValueConverter) Option {
	return func(s *settings) {
		s.converter = c
	}
}

// Parse reads table text. Leading "{key=value, ...}" lines declare
// properties; a "transformer" property adds a transformation stage. Blank
// lines and rows starting with the ignorable separator are skipped.
func Parse(text string, opts ...Option) (*ExamplesTable, error) {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}

	source := strings.TrimSpace(text)
	if source == "" {
		t := Empty()
		t.settings = s
		return t, nil
	}

	lines := splitLines(source)
	var declared []map[string]string
	for len(lines) > 0 {
		line := strings.TrimSpace(lines[0])
		if !strings.HasPrefix(line, "{") || !strings.HasSuffix(line, "}") {
			break
		}
		props, err := parseProperties(line[1 : len(line)-1])
		if err != nil {
			return nil, err
		}
		applyProperties(&s, props)
		declared = append(declared, props)
		lines = lines[1:]
	}

	var data Data
	headerRead := false
	for n, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, s.ignorableSeparator) {
			continue
		}
		sep := s.valueSeparator
		if !headerRead {
			sep = s.headerSeparator
		}
		cells, err := splitRow(line, sep, s.trim)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n+1, err)
		}
		if !headerRead {
			data.Headers = cells
			headerRead = true
			continue
		}
		data.Rows = append(data.Rows, cells)
	}

	stages := append(append([]map[string]string(nil), s.stages...), transformerStages(declared)...)
	if len(stages) > 0 {
		if err := checkShape(data); err != nil {
			return nil, err
		}
		transformed, err := s.registry().apply(data, stages)
		if err != nil {
			return nil, err
		}
		for _, stage := range stages {
			if stage["transformer"] == Formatting {
				s.aligned = true
			}
		}
		return build(transformed, s, "", declared)
	}
	return build(data, s, source, declared)
}

func checkShape(data Data) error {
	for i, row := range data.Rows {
		if len(row) != len(data.Headers) {
			return fmt.Errorf("%w: row %d has %d values, header has %d", ErrMalformedTable, i+1, len(row), len(data.Headers))
		}
	}
	return nil
}

func (s settings) registry() *Transformers {
	if s.transformers != nil {
		return s.transformers
	}
	return NewTransformers()
}

func applyProperties(s *settings, props map[string]string) {
	if v, ok := props["headerSeparator"]; ok {
		s.headerSeparator = v
	}
	if v, ok := props["valueSeparator"]; ok {
		s.valueSeparator = v
	}
	if v, ok := props["ignorableSeparator"]; ok {
		s.ignorableSeparator = v
	}
	if v, ok := props["trim"]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			s.trim = b
		}
	}
}

func transformerStages(declared []map[string]string) []map[string]string {
	var stages []map[string]string
	for _, props := range declared {
		if props["transformer"] != "" {
			stages = append(stages, props)
		}
	}
	return stages
}

// parseProperties reads "a=1, b=2". A comma inside a value is written "\,".
func parseProperties(body string) (map[string]string, error) {
	props := map[string]string{}
	var parts []string
	var current strings.Builder
	for i := 0; i < len(body); i++ {
		switch {
		case body[i] == '\\' && i+1 < len(body) && body[i+1] == ',':
			current.WriteByte(',')
			i++
		case body[i] == ',':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(body[i])
		}
	}
	parts = append(parts, current.String())

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			return nil, fmt.Errorf("%w: property %q has no value", ErrMalformedTable, part)
		}
		props[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return props, nil
}

// splitRow splits a line delimited by sep on both ends.
func splitRow(line, sep string, trim bool) ([]string, error) {
	if !strings.HasPrefix(line, sep) {
		return nil, fmt.Errorf("%w: row %q does not start with %q", ErrMalformedTable, line, sep)
	}
	if len(line) < 2*len(sep) || !strings.HasSuffix(line, sep) {
		return nil, fmt.Errorf("%w: row %q is not terminated by %q", ErrMalformedTable, line, sep)
	}
	cells := strings.Split(line[len(sep):len(line)-len(sep)], sep)
	if trim {
		for i := range cells {
			cells[i] = strings.TrimSpace(cells[i])
		}
	}
	return cells, nil
}

func splitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}
