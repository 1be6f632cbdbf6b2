package linkgraph

import (
	"errors"
	"fmt"
	"regexp"

	mapset "github.com/deckarep/golang-set/v2"
)

// ErrEmptyPattern is returned by [CompilePattern] for an empty source.
var ErrEmptyPattern = errors.New("pattern must not be empty")

// Pattern is a regular expression searched for anywhere in a raw name. A
// plain label such as "//a:root" is a valid pattern and matches by substring.
type Pattern struct {
	src string
	re  *regexp.Regexp
}

// CompilePattern compiles src.
func CompilePattern(src string) (Pattern, error) {
	if src == "" {
		return Pattern{}, ErrEmptyPattern
	}
	re, err := regexp.Compile(src)
	if err != nil {
		return Pattern{}, fmt.Errorf("pattern %q: %w", src, err)
	}
	return Pattern{src: src, re: re}, nil
}

// MustCompilePattern is like CompilePattern but panics on error.
func MustCompilePattern(src string) Pattern {
	p, err := CompilePattern(src)
	if err != nil {
		panic(err)
	}
	return p
}

// CompilePatterns compiles every source in order.
func CompilePatterns(srcs []string) ([]Pattern, error) {
	out := make([]Pattern, 0, len(srcs))
	for _, s := range srcs {
		p, err := CompilePattern(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}

// Match reports whether the pattern occurs in rawName.
func (p Pattern) Match(rawName string) bool {
	return p.re != nil && p.re.MatchString(rawName)
}

// String returns the pattern source.
func (p Pattern) String() string { return p.src }

// MatchAny reports whether any of patterns matches rawName.
func MatchAny(patterns []Pattern, rawName string) bool {
	for _, p := range patterns {
		if p.Match(rawName) {
			return true
		}
	}
	return false
}

// Blocklist holds the patterns of targets that are never merged.
type Blocklist struct {
	patterns []Pattern
}

// NewBlocklist compiles a blocklist.
func NewBlocklist(srcs []string) (*Blocklist, error) {
	ps, err := CompilePatterns(srcs)
	if err != nil {
		return nil, err
	}
	return &Blocklist{patterns: ps}, nil
}

// Patterns returns the compiled patterns.
func (b *Blocklist) Patterns() []Pattern {
	if b == nil {
		return nil
	}
	return b.patterns
}

// Matches reports whether rawName matches a blocklist pattern. A nil
// blocklist matches nothing.
func (b *Blocklist) Matches(rawName string) bool {
	return b != nil && MatchAny(b.patterns, rawName)
}

// Excludes reports whether n must stay its own output: it is either flagged
// as not mergeable or blocklisted.
func (b *Blocklist) Excludes(n *LinkableNode) bool {
	return !n.Mergeable || b.Matches(n.RawName)
}

// Hits returns the targets of g excluded by the blocklist or by their
// Mergeable flag.
func (b *Blocklist) Hits(g *Graph) mapset.Set[Target] {
	hits := mapset.NewThreadUnsafeSet[Target]()
	for _, t := range g.Targets() {
		n, _ := g.Node(t)
		if b.Excludes(n) {
			hits.Add(t)
		}
	}
	return hits
}
