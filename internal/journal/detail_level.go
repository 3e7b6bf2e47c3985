// detail_level.go holds the detail_level parameter shared by the stack
// and journal tools.
//
//   - summary: labels and titles only
//   - standard: default, truncated plan snippets and scan diagnostics
//   - full: complete plan text
package journal

import "fmt"

// Detail level constants.
const (
	DetailSummary  = "summary"
	DetailStandard = "standard"
	DetailFull     = "full"
)

// DetailLevelValues returns the enum values for MCP tool definitions.
func DetailLevelValues() []string {
	return []string{DetailSummary, DetailStandard, DetailFull}
}

// ParseDetailLevel normalizes a detail_level string, defaulting to
// "standard" for empty or unrecognized values.
func ParseDetailLevel(s string) string {
	switch s {
	case DetailSummary, DetailFull:
		return s
	default:
		return DetailStandard
	}
}

// SnippetLength is the plan excerpt length used at standard detail.
const SnippetLength = 300

// NavigationHint returns a one-line footer when results are capped by a
// limit, or "" when everything fits.
func NavigationHint(showing, total int, hint string) string {
	if total <= 0 || showing >= total {
		return ""
	}
	if hint != "" {
		return fmt.Sprintf("\n📊 Showing %d of %d. %s", showing, total, hint)
	}
	return fmt.Sprintf("\n📊 Showing %d of %d.", showing, total)
}

// EstimateTokens approximates the token count of text with the chars/4
// heuristic. Non-empty text is at least 1 token.
func EstimateTokens(text string) int {
	n := len(text)
	if n == 0 {
		return 0
	}
	if n/4 == 0 {
		return 1
	}
	return n / 4
}

// TokenFooter returns a one-line footer with the estimated token count
// of a tool response.
func TokenFooter(text string) string {
	return fmt.Sprintf("\n📏 ~%d tokens", EstimateTokens(text))
}
