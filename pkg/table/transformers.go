package table

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
)

// Built-in transformer names.
const (
	FromLandscape = "FROM_LANDSCAPE"
	Formatting    = "FORMATTING"
	Replacing     = "REPLACING"
	Distinct      = "DISTINCT"
	Sorting       = "SORTING"
	Filtering     = "FILTERING"
	Renaming      = "RENAMING"
)

// Transformer rewrites table data. props holds the properties of the stage
// that invoked it, including the "transformer" key itself.
type Transformer func(data Data, props map[string]string) (Data, error)

// Transformers is a registry of named transformers.
type Transformers struct {
	mu     sync.RWMutex
	byName map[string]Transformer
}

// NewTransformers returns a registry holding the built-in transformers.
func NewTransformers() *Transformers {
	return &Transformers{byName: map[string]Transformer{
		FromLandscape: fromLandscape,
		Formatting:    formatting,
		Replacing:     replacing,
		Distinct:      distinct,
		Sorting:       sorting,
		Filtering:     filtering,
		Renaming:      renaming,
	}}
}

// Register adds or replaces a transformer.
func (t *Transformers) Register(name string, transformer Transformer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.byName[name] = transformer
}

// Get returns the transformer registered under name.
func (t *Transformers) Get(name string) (Transformer, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	tr, ok := t.byName[name]
	return tr, ok
}

func (t *Transformers) apply(data Data, stages []map[string]string) (Data, error) {
	for _, props := range stages {
		name := props["transformer"]
		tr, ok := t.Get(name)
		if !ok {
			return Data{}, fmt.Errorf("%w: %s", ErrUnknownTransformer, name)
		}
		var err error
		if data, err = tr(data, props); err != nil {
			return Data{}, fmt.Errorf("transformer %s: %w", name, err)
		}
	}
	return data, nil
}

// fromLandscape turns rows into columns: the first cell of every line is a
// header and the remaining cells are that column's values.
func fromLandscape(data Data, _ map[string]string) (Data, error) {
	lines := append([][]string{data.Headers}, data.Rows...)
	if len(data.Headers) == 0 {
		return data, nil
	}

	out := Data{Headers: make([]string, len(lines))}
	for i, line := range lines {
		out.Headers[i] = line[0]
	}
	for j := 1; j < len(data.Headers); j++ {
		row := make([]string, len(lines))
		for i, line := range lines {
			row[i] = line[j]
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

// formatting keeps the data; the table is then written with aligned columns.
func formatting(data Data, _ map[string]string) (Data, error) {
	return data, nil
}

func replacing(data Data, props map[string]string) (Data, error) {
	from, ok := props["replacing"]
	if !ok || from == "" {
		return Data{}, fmt.Errorf("%w: missing replacing property", ErrMalformedTable)
	}
	to := props["replacement"]
	for _, row := range data.Rows {
		for j := range row {
			row[j] = strings.ReplaceAll(row[j], from, to)
		}
	}
	return data, nil
}

func distinct(data Data, props map[string]string) (Data, error) {
	columns, err := columnIndexes(data.Headers, props["byColumnNames"])
	if err != nil {
		return Data{}, err
	}

	seen := map[string]struct{}{}
	var rows [][]string
	for _, row := range data.Rows {
		key := make([]string, len(columns))
		for i, j := range columns {
			key[i] = row[j]
		}
		k := strings.Join(key, "\x00")
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		rows = append(rows, row)
	}
	data.Rows = rows
	return data, nil
}

// sorting orders rows by the ";" separated byColumns property, ascending
// unless order=DESCENDING.
func sorting(data Data, props map[string]string) (Data, error) {
	spec := props["byColumns"]
	if spec == "" {
		return Data{}, fmt.Errorf("%w: missing byColumns property", ErrMalformedTable)
	}
	columns, err := columnIndexes(data.Headers, spec)
	if err != nil {
		return Data{}, err
	}
	descending := strings.EqualFold(props["order"], "DESCENDING")

	sort.SliceStable(data.Rows, func(a, b int) bool {
		for _, j := range columns {
			x, y := data.Rows[a][j], data.Rows[b][j]
			if x == y {
				continue
			}
			if descending {
				return x > y
			}
			return x < y
		}
		return false
	})
	return data, nil
}

// filtering keeps rows whose byColumn value matches the "matching" regexp.
func filtering(data Data, props map[string]string) (Data, error) {
	columns, err := columnIndexes(data.Headers, props["byColumn"])
	if err != nil {
		return Data{}, err
	}
	re, err := regexp.Compile(props["matching"])
	if err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrMalformedTable, err)
	}

	var rows [][]string
	for _, row := range data.Rows {
		keep := true
		for _, j := range columns {
			if !re.MatchString(row[j]) {
				keep = false
				break
			}
		}
		if keep {
			rows = append(rows, row)
		}
	}
	data.Rows = rows
	return data, nil
}

func renaming(data Data, props map[string]string) (Data, error) {
	from, to := props["from"], props["to"]
	for i, h := range data.Headers {
		if h == from {
			data.Headers[i] = to
			return data, nil
		}
	}
	return Data{}, fmt.Errorf("%w: %s", ErrColumnNotFound, from)
}

// columnIndexes resolves ";" separated column names. An empty list selects
// every column.
func columnIndexes(headers []string, names string) ([]int, error) {
	if strings.TrimSpace(names) == "" {
		all := make([]int, len(headers))
		for i := range headers {
			all[i] = i
		}
		return all, nil
	}

	var indexes []int
	for _, name := range strings.Split(names, ";") {
		name = strings.TrimSpace(name)
		found := false
		for i, h := range headers {
			if h == name {
				indexes = append(indexes, i)
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
		}
	}
	return indexes, nil
}
