package model

import (
	"sort"
	"strings"
)

// Meta holds name/value properties declared with "@name value".
// A property without a value has the empty string as value.
type Meta struct {
	properties map[string]string
}

// NewMeta returns meta holding a copy of properties.
func NewMeta(properties map[string]string) Meta {
	copied := make(map[string]string, len(properties))
	for k, v := range properties {
		copied[k] = v
	}
	return Meta{properties: copied}
}

// ParseMeta reads properties from text. Every occurrence of prefix starts a
// property; the first word after it is the name and the rest is the value.
func ParseMeta(text, prefix string) Meta {
	props := map[string]string{}
	for _, chunk := range strings.Split(text, prefix) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}
		name, value, _ := strings.Cut(chunk, " ")
		props[strings.TrimSpace(name)] = strings.Join(strings.Fields(value), " ")
	}
	return Meta{properties: props}
}

// Property returns the value of a property, or "" when absent.
func (m Meta) Property(name string) string {
	return m.properties[name]
}

// Has reports whether the property is declared.
func (m Meta) Has(name string) bool {
	_, ok := m.properties[name]
	return ok
}

// Names returns the property names, sorted.
func (m Meta) Names() []string {
	names := make([]string, 0, len(m.properties))
	for k := range m.properties {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// IsEmpty reports whether no property is declared.
func (m Meta) IsEmpty() bool {
	return len(m.properties) == 0
}

// Properties returns a copy of the properties.
func (m Meta) Properties() map[string]string {
	return NewMeta(m.properties).properties
}

// InheritFrom returns meta holding the parent's properties overridden by
// this meta's own.
func (m Meta) InheritFrom(parent Meta) Meta {
	merged := NewMeta(parent.properties)
	for k, v := range m.properties {
		merged.properties[k] = v
	}
	return merged
}

// String writes the properties as "@name value" lines.
func (m Meta) String() string {
	var b strings.Builder
	for i, name := range m.Names() {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString("@" + name)
		if v := m.properties[name]; v != "" {
			b.WriteString(" " + v)
		}
	}
	return b.String()
}
