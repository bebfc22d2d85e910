package define

import (
	"fmt"
	"strconv"
	"strings"
)

// State is a material/state value held by a single cell. Two states are equal when both their name and
// meta are equal, which makes State usable as a map key.
type State struct {
	Name string
	Meta uint16
}

// Air is the empty state. Cells holding Air are considered unoccupied.
var Air = State{Name: "minecraft:air"}

// IsAir reports if the state is the empty sentinel. The zero State counts as air too.
func (s State) IsAir() bool {
	return s == Air || s == State{}
}

// String returns the canonical form of the state: the name, followed by the meta in brackets if it is
// not zero.
func (s State) String() string {
	if s.Meta == 0 {
		return s.Name
	}
	return s.Name + "[" + strconv.Itoa(int(s.Meta)) + "]"
}

// ParseState parses the canonical form produced by State.String.
func ParseState(s string) (State, error) {
	if s == "" {
		return State{}, fmt.Errorf("empty state")
	}
	open := strings.IndexByte(s, '[')
	if open == -1 {
		return State{Name: s}, nil
	}
	if !strings.HasSuffix(s, "]") || open == 0 {
		return State{}, fmt.Errorf("malformed state %q", s)
	}
	meta, err := strconv.ParseUint(s[open+1:len(s)-1], 10, 16)
	if err != nil {
		return State{}, fmt.Errorf("malformed meta in state %q: %w", s, err)
	}
	return State{Name: s[:open], Meta: uint16(meta)}, nil
}
