package define

import (
	"fmt"
	"strings"
)

// Axis represents one of the three axes of a cube.
type Axis uint8

const (
	// X is the axis running east-west.
	X Axis = iota
	// Y is the vertical axis.
	Y
	// Z is the axis running north-south.
	Z
)

// Axes returns all axes in the order X, Y, Z.
func Axes() []Axis {
	return []Axis{X, Y, Z}
}

// String ...
func (a Axis) String() string {
	switch a {
	case X:
		return "x"
	case Y:
		return "y"
	case Z:
		return "z"
	}
	return fmt.Sprintf("axis(%d)", uint8(a))
}

// ParseAxis parses the name of an axis, case-insensitive.
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(s) {
	case "x":
		return X, nil
	case "y":
		return Y, nil
	case "z":
		return Z, nil
	}
	return 0, fmt.Errorf("unknown axis %q", s)
}
