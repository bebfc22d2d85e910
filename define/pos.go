package define

// Pos holds the position of a cell or block. The position is represented of an array with an x, y and z
// value.
type Pos [3]int

// X returns the X coordinate of the position.
func (p Pos) X() int {
	return p[0]
}

// Y returns the Y coordinate of the position.
func (p Pos) Y() int {
	return p[1]
}

// Z returns the Z coordinate of the position.
func (p Pos) Z() int {
	return p[2]
}

// Add adds two positions together and returns a new one with the combined values.
func (p Pos) Add(pos Pos) Pos {
	return Pos{p[0] + pos[0], p[1] + pos[1], p[2] + pos[2]}
}

// Subtract subtracts two positions together and returns a new one with the combined values.
func (p Pos) Subtract(pos Pos) Pos {
	return Pos{p[0] - pos[0], p[1] - pos[1], p[2] - pos[2]}
}

// Column returns the (x, z) column the position is located in.
func (p Pos) Column() Column {
	return Column{p[0], p[2]}
}

// Column is a vertical column of cells, addressed by its x and z value.
type Column [2]int

// X returns the X coordinate of the column.
func (c Column) X() int {
	return c[0]
}

// Z returns the Z coordinate of the column.
func (c Column) Z() int {
	return c[1]
}
