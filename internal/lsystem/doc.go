// Package lsystem implements the string-rewriting half of an L-system.
//
// A [Grammar] pairs an axiom with single-symbol production rules. Each
// round rewrites every symbol of the current string in parallel: symbols with
// a rule are replaced, all others copy themselves. Rounds never observe their
// own output.
//
//	g := lsystem.New("A", []lsystem.Rule{{'A', "AB"}, {'B', "A"}})
//	g.Generate(4) // "ABAABABA"
//
// Output length grows geometrically with the round count. The engine itself
// imposes no cap; callers bound the iteration count, and can use
// [Grammar.Length] to learn the size of an expansion before paying for it.
// [Grammar.Symbols] streams an expansion without materializing it.
//
// Grammars are immutable after construction and safe for concurrent use.
package lsystem
