package textutil

import (
	"fmt"
	"regexp"
	"strings"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// ExtractObjectBetween pulls a `{...}` block out of a script body: the
// first `{` after `prefix` opens the block, and the block is closed by
// the last `}` before the first occurrence of `trailer` that follows
// the opening brace. this is intentionally not a brace-counting parser,
// vendor scripts embed unbalanced braces inside string literals.
func ExtractObjectBetween(s, prefix, trailer string) (string, error) {
	p := strings.Index(s, prefix)
	if p < 0 {
		return "", fmt.Errorf("prefix marker %q not found", prefix)
	}
	rest := p + len(prefix)

	open := strings.IndexByte(s[rest:], '{')
	if open < 0 {
		return "", fmt.Errorf("no opening brace after marker %q", prefix)
	}
	open += rest

	end := strings.Index(s[open:], trailer)
	if end < 0 {
		return "", fmt.Errorf("trailing marker %q not found", trailer)
	}
	end += open

	closing := strings.LastIndexByte(s[open:end], '}')
	if closing < 0 {
		return "", fmt.Errorf("no closing brace before marker %q", trailer)
	}
	closing += open

	return s[open : closing+1], nil
}
