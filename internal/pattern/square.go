// Package pattern generates the pointer displacements that trace a square:
// right, down, left, up, repeating.
package pattern

import (
	"errors"
	"fmt"
	"math"
)

// DefaultStep is the side length of the square in HID units.
const DefaultStep = 5

// ErrInvalidStep is returned for a step size outside (0, math.MaxInt16].
var ErrInvalidStep = errors.New("pattern: invalid step size")

// Displacement is a relative pointer movement.
type Displacement struct {
	DX int16
	DY int16
}

// Square cycles through the four sides of a square. It is not safe for
// concurrent use.
type Square struct {
	directions [4]Displacement
	step       int
}

// New returns a Square with side length step.
func New(step int) (*Square, error) {
	if step <= 0 || step > math.MaxInt16 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStep, step)
	}
	s := int16(step)
	return &Square{
		directions: [4]Displacement{
			{DX: s, DY: 0},  // right
			{DX: 0, DY: s},  // down
			{DX: -s, DY: 0}, // left
			{DX: 0, DY: -s}, // up
		},
	}, nil
}

// Next returns the displacement for the current side and advances to the
// next one.
func (q *Square) Next() Displacement {
	d := q.directions[q.step]
	q.step = (q.step + 1) % len(q.directions)
	return d
}

// Reset restarts the cycle at the first side.
func (q *Square) Reset() {
	q.step = 0
}

// Step returns the index of the side Next will return.
func (q *Square) Step() int {
	return q.step
}
