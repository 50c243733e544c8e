// Package turtle turns an L-system string into placement transforms.
//
// The interpreter walks the string with a cursor (position and heading) and a
// LIFO stack of saved cursors. Every draw symbol emits one transform: a
// translation to the cursor position composed with the rotation that takes
// the model's canonical up axis (+Y) onto the current heading. The cursor then
// advances one unit along the heading.
//
// # Alphabet
//
//	F   draw forward
//	+   turn by +angle around Z      -   turn by -angle around Z
//	&   pitch by -angle around X     ^   pitch by +angle around X
//	\   roll by +angle around Y      /   roll by -angle around Y
//	[   push cursor                  ]   pop cursor (no-op when empty)
//
// Symbols outside the alphabet are handled by the interpreter's [Policy]:
// [Strict] aborts with [ErrInvalidSymbol], [Lenient] skips them and logs each
// distinct symbol at debug level.
package turtle
