// Package scene assembles the generative pipeline into a placed scene.
//
// A regeneration runs in four stages:
//
//   - the configured grammar is expanded for the requested number of rounds
//   - the turtle walks the expansion and emits one transform per segment
//   - the transforms are rescaled so the structure reaches the target height
//   - the normalized structure is copied once per forest placement
//
// Normalization happens before placement. Placement only translates in the
// ground plane and rotates about the vertical axis, so it never changes the
// height of a structure.
//
// # Example
//
//	cfg := config.GetPreset("bush")
//	unit, _ := model.Builtin("cylinder")
//	sc, err := scene.Assemble(*cfg, unit, nil)
//	for _, seg := range sc.Segments() {
//		draw(seg.Start, seg.End)
//	}
package scene
