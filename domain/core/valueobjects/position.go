package valueobjects

// Position is the 2D canvas placement of a note, with optional size
type Position struct {
	x      float64
	y      float64
	width  float64
	height float64
}

// NewPosition creates a position with default size
func NewPosition(x, y float64) Position {
	return Position{x: x, y: y, width: 200, height: 100}
}

// NewPositionWithSize creates a position with an explicit size
func NewPositionWithSize(x, y, width, height float64) Position {
	if width <= 0 {
		width = 200
	}
	if height <= 0 {
		height = 100
	}
	return Position{x: x, y: y, width: width, height: height}
}

// X returns the horizontal coordinate
func (p Position) X() float64 { return p.x }

// Y returns the vertical coordinate
func (p Position) Y() float64 { return p.y }

// Width returns the node width
func (p Position) Width() float64 { return p.width }

// Height returns the node height
func (p Position) Height() float64 { return p.height }

// Equals checks if two positions are equal
func (p Position) Equals(other Position) bool {
	return p == other
}
