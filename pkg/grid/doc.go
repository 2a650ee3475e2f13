// Package grid generates the box layers of a Riemann staircase over the unit
// square. A layer is identified by a (level, previous level) pair; each box in
// it spans from the height of its ancestor cell at the previous level up to
// the height of its own cell corner.
package grid
