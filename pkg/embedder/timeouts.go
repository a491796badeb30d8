package embedder

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/denizgursoy/behave/pkg/loader"
)

type timeoutRule struct {
	pattern string
	timeout time.Duration
}

// StoryTimeouts gives each story path its timeout.
type StoryTimeouts struct {
	rules    []timeoutRule
	fallback time.Duration
}

// ParseStoryTimeouts reads comma separated "pattern:timeout" entries and
// one entry without pattern, the default. Timeouts are seconds or Go
// durations such as "2m". The first matching pattern wins.
func ParseStoryTimeouts(text string) (StoryTimeouts, error) {
	if strings.TrimSpace(text) == "" {
		text = DefaultStoryTimeouts
	}
	var t StoryTimeouts
	for _, entry := range strings.Split(text, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		pattern, value := "", entry
		if i := strings.LastIndex(entry, ":"); i >= 0 {
			pattern, value = strings.TrimSpace(entry[:i]), entry[i+1:]
		}
		timeout, err := parseTimeout(value)
		if err != nil {
			return StoryTimeouts{}, fmt.Errorf("story timeout %q: %w", entry, err)
		}
		if pattern == "" {
			t.fallback = timeout
			continue
		}
		if err := loader.ValidatePatterns(pattern); err != nil {
			return StoryTimeouts{}, fmt.Errorf("story timeout %q: %w", entry, err)
		}
		t.rules = append(t.rules, timeoutRule{pattern: pattern, timeout: timeout})
	}
	if t.fallback == 0 {
		t.fallback, _ = parseTimeout(DefaultStoryTimeouts)
	}
	return t, nil
}

func parseTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if secs, err := strconv.Atoi(value); err == nil {
		if secs <= 0 {
			return 0, fmt.Errorf("timeout must be positive, got %d", secs)
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("timeout must be positive, got %s", d)
	}
	return d, nil
}

// For returns the timeout of a story path.
func (t StoryTimeouts) For(path string) time.Duration {
	for _, rule := range t.rules {
		if loader.Match(rule.pattern, path) {
			return rule.timeout
		}
	}
	return t.fallback
}
