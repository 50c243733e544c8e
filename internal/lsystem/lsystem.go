package lsystem

import (
	"fmt"
	"iter"
	"math"
	"sort"
	"strings"
	"unicode/utf8"
)

// Rule maps one symbol to its replacement.
type Rule struct {
	Symbol      rune
	Replacement string
}

func (r Rule) String() string {
	return fmt.Sprintf("%c -> %s", r.Symbol, r.Replacement)
}

// Grammar is an axiom plus a production table.
type Grammar struct {
	axiom string
	rules map[rune]string
}

// New builds a grammar. When several rules share a symbol the last one wins.
func New(axiom string, rules []Rule) *Grammar {
	g := &Grammar{
		axiom: axiom,
		rules: make(map[rune]string, len(rules)),
	}
	for _, r := range rules {
		g.rules[r.Symbol] = r.Replacement
	}
	return g
}

// FromMap builds a grammar from a rule table. The table is copied.
func FromMap(axiom string, rules map[rune]string) *Grammar {
	g := &Grammar{
		axiom: axiom,
		rules: make(map[rune]string, len(rules)),
	}
	for k, v := range rules {
		g.rules[k] = v
	}
	return g
}

// Generate expands axiom with rules for n rounds.
func Generate(axiom string, rules map[rune]string, n int) string {
	return FromMap(axiom, rules).Generate(n)
}

func (g *Grammar) Axiom() string { return g.axiom }

// Replacement returns the rule for symbol, if any.
func (g *Grammar) Replacement(symbol rune) (string, bool) {
	s, ok := g.rules[symbol]
	return s, ok
}

// Rules returns the productions sorted by symbol.
func (g *Grammar) Rules() []Rule {
	out := make([]Rule, 0, len(g.rules))
	for k, v := range g.rules {
		out = append(out, Rule{Symbol: k, Replacement: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// Generate returns the string after n rewriting rounds. n <= 0 returns the
// axiom unchanged.
func (g *Grammar) Generate(n int) string {
	s := g.axiom
	for i := 0; i < n; i++ {
		s = g.rewrite(s)
	}
	return s
}

func (g *Grammar) rewrite(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 2)
	for _, c := range s {
		if rep, ok := g.rules[c]; ok {
			b.WriteString(rep)
		} else {
			b.WriteRune(c)
		}
	}
	return b.String()
}

// Symbols streams the runes of Generate(n) in order without building the
// string. Memory use is proportional to n, not to the output length.
func (g *Grammar) Symbols(n int) iter.Seq[rune] {
	if n < 0 {
		n = 0
	}
	return func(yield func(rune) bool) {
		for _, c := range g.axiom {
			if !g.expand(c, n, yield) {
				return
			}
		}
	}
}

func (g *Grammar) expand(c rune, depth int, yield func(rune) bool) bool {
	if depth == 0 {
		return yield(c)
	}
	rep, ok := g.rules[c]
	if !ok {
		return yield(c)
	}
	for _, s := range rep {
		if !g.expand(s, depth-1, yield) {
			return false
		}
	}
	return true
}

// Length returns len([]rune(Generate(n))) without expanding. The result
// saturates at math.MaxInt64.
func (g *Grammar) Length(n int) int64 {
	return g.Count(n, func(rune) bool { return true })
}

// Count returns how many symbols of Generate(n) satisfy match.
func (g *Grammar) Count(n int, match func(rune) bool) int64 {
	if n < 0 {
		n = 0
	}

	// counts[c] holds the number of matching symbols c expands to after the
	// current number of rounds.
	counts := make(map[rune]int64)
	for _, c := range g.alphabet() {
		if match(c) {
			counts[c] = 1
		} else {
			counts[c] = 0
		}
	}

	for i := 0; i < n; i++ {
		next := make(map[rune]int64, len(counts))
		for c, cur := range counts {
			rep, ok := g.rules[c]
			if !ok {
				next[c] = cur
				continue
			}
			var total int64
			for _, s := range rep {
				total = addSat(total, counts[s])
			}
			next[c] = total
		}
		counts = next
	}

	var total int64
	for _, c := range g.axiom {
		total = addSat(total, counts[c])
	}
	return total
}

// alphabet lists every symbol reachable from the axiom or the rules.
func (g *Grammar) alphabet() []rune {
	seen := make(map[rune]bool)
	var out []rune
	add := func(s string) {
		for _, c := range s {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	add(g.axiom)
	for k, v := range g.rules {
		add(string(k))
		add(v)
	}
	return out
}

func addSat(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

// Generation summarizes one rewriting round.
type Generation struct {
	Round  int
	Length int64
	Draws  int64
}

// Stats reports the length and the number of symbols matching draw for
// rounds 0..n. Negative n is treated as 0.
func (g *Grammar) Stats(n int, draw func(rune) bool) []Generation {
	n = max(n, 0)
	out := make([]Generation, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, Generation{
			Round:  i,
			Length: g.Length(i),
			Draws:  g.Count(i, draw),
		})
	}
	return out
}

// ParseRule parses "F->FF", "F → FF" or "F=FF". Whitespace around both sides
// is ignored; the replacement may be empty.
func ParseRule(s string) (Rule, error) {
	for _, sep := range []string{"->", "→", "="} {
		lhs, rhs, ok := strings.Cut(s, sep)
		if !ok {
			continue
		}
		lhs = strings.TrimSpace(lhs)
		if utf8.RuneCountInString(lhs) != 1 {
			return Rule{}, fmt.Errorf("%w: %q: predecessor must be a single symbol", ErrMalformedRule, s)
		}
		sym, _ := utf8.DecodeRuneInString(lhs)
		return Rule{Symbol: sym, Replacement: strings.TrimSpace(rhs)}, nil
	}
	return Rule{}, fmt.Errorf("%w: %q: missing separator", ErrMalformedRule, s)
}

// ParseRules parses every entry with ParseRule.
func ParseRules(entries []string) ([]Rule, error) {
	rules := make([]Rule, 0, len(entries))
	for _, e := range entries {
		r, err := ParseRule(e)
		if err != nil {
			return nil, err
		}
		rules = append(rules, r)
	}
	return rules, nil
}
