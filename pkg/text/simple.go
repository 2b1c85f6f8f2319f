package text

import (
	"context"
	"regexp"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// addressTail matches the rest of a dotted address after a prefix
const addressTail = `(?:[0-9.]*[0-9])?`

// SimpleTextReplacer implements TextReplacer using basic string replacement
type SimpleTextReplacer struct {
	mu       sync.Mutex
	patterns map[string]*regexp.Regexp
}

// NewSimpleTextReplacer creates a new SimpleTextReplacer
func NewSimpleTextReplacer() *SimpleTextReplacer {
	return &SimpleTextReplacer{
		patterns: make(map[string]*regexp.Regexp),
	}
}

// ReplaceText implements TextReplacer.ReplaceText
func (r *SimpleTextReplacer) ReplaceText(ctx context.Context, path string, content string, rules []ReplacementRule) (*ReplacementResult, error) {
	logger := zerolog.Ctx(ctx)

	result := &ReplacementResult{
		OriginalContent: content,
	}

	current := content
	for i, rule := range rules {
		// Skip empty rules
		if rule.FromText == "" {
			continue
		}

		if !rule.AppliesTo(path) {
			logger.Trace().Str("path", path).Str("glob", rule.FileFilterGlob).Msg("rule filtered out")
			continue
		}

		var count int
		switch rule.Kind {
		case KindLiteral, "":
			count = strings.Count(current, rule.FromText)
			if count > 0 {
				current = strings.ReplaceAll(current, rule.FromText, rule.ToText)
			}
		case KindPrefix:
			current, count = replaceAddresses(current, r.pattern(rule.FromText), rule.ToText)
		case KindMarker:
			count = len(findAddresses(current, r.pattern(rule.FromText)))
		default:
			return nil, errors.Errorf("rule %d: unknown kind %q", i, rule.Kind)
		}

		if count == 0 {
			continue
		}

		result.Matches = append(result.Matches, RuleMatch{Rule: rule, Count: count})
		if rule.Kind == KindMarker {
			result.MarkerCount += count
		} else {
			result.ReplacementCount += count
		}
	}

	// A rule may replace text with itself, so compare instead of counting
	result.ModifiedContent = current
	result.WasModified = current != content
	return result, nil
}

// ValidateRules implements TextReplacer.ValidateRules
func (r *SimpleTextReplacer) ValidateRules(rules []ReplacementRule) error {
	for i, rule := range rules {
		if rule.FromText == "" {
			return errors.Errorf("rule %d: from_text is required", i)
		}
		switch rule.Kind {
		case KindLiteral, KindPrefix, KindMarker, "":
		default:
			return errors.Errorf("rule %d: unknown kind %q", i, rule.Kind)
		}
		if rule.FileFilterGlob != "" && !doublestar.ValidatePattern(rule.FileFilterGlob) {
			return errors.Errorf("rule %d: invalid file_filter_glob %q", i, rule.FileFilterGlob)
		}
	}
	return nil
}

func (r *SimpleTextReplacer) pattern(prefix string) *regexp.Regexp {
	r.mu.Lock()
	defer r.mu.Unlock()

	if re, ok := r.patterns[prefix]; ok {
		return re
	}
	re := regexp.MustCompile(regexp.QuoteMeta(prefix) + addressTail)
	r.patterns[prefix] = re
	return re
}

// findAddresses returns match locations whose preceding byte does not
// continue an address, so "10.1.2.3" never matches inside "110.1.2.3".
func findAddresses(s string, re *regexp.Regexp) [][]int {
	var out [][]int
	for _, loc := range re.FindAllStringIndex(s, -1) {
		if loc[0] > 0 && isAddressByte(s[loc[0]-1]) {
			continue
		}
		out = append(out, loc)
	}
	return out
}

func replaceAddresses(s string, re *regexp.Regexp, repl string) (string, int) {
	locs := findAddresses(s, re)
	if len(locs) == 0 {
		return s, 0
	}

	var b strings.Builder
	b.Grow(len(s))
	last := 0
	for _, loc := range locs {
		b.WriteString(s[last:loc[0]])
		b.WriteString(repl)
		last = loc[1]
	}
	b.WriteString(s[last:])
	return b.String(), len(locs)
}

func isAddressByte(c byte) bool {
	return c == '.' || (c >= '0' && c <= '9')
}
