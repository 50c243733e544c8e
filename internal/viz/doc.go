// Package viz renders generated structures in the terminal.
//
// The package projects scene segments with a small orbit camera and draws
// them on a Braille canvas:
//
//   - [Canvas]: Braille-based dot canvas
//   - [Camera]: orbit camera shared with the image exporters
//   - [Preview]: one-shot text rendering of a scene
//   - [Model]: live editor built on Bubble Tea
//   - [App]: preset picker in front of the editor
//
// # Key Bindings
//
//	Tab   - Select parameter
//	↑/↓   - Adjust parameter and regenerate
//	P     - Next preset
//	X/Y   - Rotate camera
//	+/-   - Zoom
//	T     - Cycle color themes
//	?     - Show help overlay
//
// Every adjustment goes through a [session.Session], so a rejected
// configuration keeps the last good structure on screen.
package viz
