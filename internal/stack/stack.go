// Package stack infers a project's technology stack from its dependency
// manifests, language-specific build files, the first lines of its source
// files and a few well-known marker files.
//
// The detector is a set of probe functions (manifests, secondary manifests,
// sources, markers) whose findings are merged into one TechStack. Probes are
// plain functions, not interfaces: each collects one kind of evidence.
package stack

import (
	"slices"
	"strings"
)

// Category identifies which TechStack list a label belongs to.
type Category int

const (
	Frameworks Category = iota
	Databases
	OtherTools
)

// String returns the lower-case category name used in reports.
func (c Category) String() string {
	switch c {
	case Frameworks:
		return "frameworks"
	case Databases:
		return "databases"
	case OtherTools:
		return "other_tools"
	default:
		return "unknown"
	}
}

// TechStack is the categorized, deduplicated result of a scan.
// Entries are canonical labels ("React.js"), never raw dependency keys.
// A TechStack is treated as immutable once built: accessors and helpers
// return copies.
type TechStack struct {
	Frameworks []string `json:"frameworks"`
	Databases  []string `json:"databases"`
	OtherTools []string `json:"other_tools"`
}

// Normalize returns a copy with every category deduplicated. The first
// occurrence of a label wins, so display order is preserved.
func (s TechStack) Normalize() TechStack {
	return TechStack{
		Frameworks: unique(s.Frameworks),
		Databases:  unique(s.Databases),
		OtherTools: unique(s.OtherTools),
	}
}

// Clone returns a deep copy.
func (s TechStack) Clone() TechStack {
	return TechStack{
		Frameworks: slices.Clone(s.Frameworks),
		Databases:  slices.Clone(s.Databases),
		OtherTools: slices.Clone(s.OtherTools),
	}
}

// Equal reports whether both stacks hold the same labels in the same order.
// A nil category equals an empty one.
func (s TechStack) Equal(other TechStack) bool {
	return slices.Equal(s.Frameworks, other.Frameworks) &&
		slices.Equal(s.Databases, other.Databases) &&
		slices.Equal(s.OtherTools, other.OtherTools)
}

// IsEmpty reports whether nothing was detected.
func (s TechStack) IsEmpty() bool {
	return len(s.Frameworks) == 0 && len(s.Databases) == 0 && len(s.OtherTools) == 0
}

// Labels returns the labels of one category.
func (s TechStack) Labels(c Category) []string {
	switch c {
	case Frameworks:
		return slices.Clone(s.Frameworks)
	case Databases:
		return slices.Clone(s.Databases)
	case OtherTools:
		return slices.Clone(s.OtherTools)
	default:
		return nil
	}
}

// Summary renders the stack as three markdown bullet lines. Empty
// categories read "Unknown" for frameworks and "None" otherwise.
func (s TechStack) Summary() string {
	var b strings.Builder
	b.WriteString("- **Frameworks:** " + joinOr(s.Frameworks, "Unknown") + "\n")
	b.WriteString("- **Databases:** " + joinOr(s.Databases, "None") + "\n")
	b.WriteString("- **Other Tools:** " + joinOr(s.OtherTools, "None") + "\n")
	return b.String()
}

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// unique returns items without duplicates or empty strings, preserving order.
func unique(items []string) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	return out
}

// builder accumulates findings into ordered, deduplicated categories.
type builder struct {
	lists [3][]string
	seen  [3]map[string]bool
}

func (b *builder) add(c Category, label string) {
	if c < Frameworks || c > OtherTools || label == "" {
		return
	}
	if b.seen[c] == nil {
		b.seen[c] = map[string]bool{}
	}
	if b.seen[c][label] {
		return
	}
	b.seen[c][label] = true
	b.lists[c] = append(b.lists[c], label)
}

func (b *builder) addAll(findings []finding) {
	for _, f := range findings {
		b.add(f.category, f.label)
	}
}

func (b *builder) stack() TechStack {
	return TechStack{
		Frameworks: append([]string{}, b.lists[Frameworks]...),
		Databases:  append([]string{}, b.lists[Databases]...),
		OtherTools: append([]string{}, b.lists[OtherTools]...),
	}
}
