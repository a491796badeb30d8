package pattern

import "strings"

// Variants expands "{a|b}" alternatives into every template they describe,
// in declaration order. Braces without "|" are kept as written.
//
//	Variants("the item {costs|is worth} $price")
//	// ["the item costs $price", "the item is worth $price"]
func Variants(template string) []string {
	start := -1
	for i := 0; i < len(template); i++ {
		switch template[i] {
		case '{':
			start = i
		case '}':
			if start < 0 {
				continue
			}
			body := template[start+1 : i]
			if !strings.Contains(body, "|") {
				start = -1
				continue
			}
			head, tail := template[:start], template[i+1:]
			var out []string
			for _, option := range strings.Split(body, "|") {
				out = append(out, Variants(collapse(head+option+tail))...)
			}
			return out
		}
	}
	return []string{template}
}

// collapse removes the doubled spaces an empty option leaves behind.
func collapse(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
