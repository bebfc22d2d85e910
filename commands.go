package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/fatih/color"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/loving2/Chisels-and-Bits/define"
	"github.com/loving2/Chisels-and-Bits/multistate"
)

type command struct {
	args []string
	help string
	run  func(a *app, args []string) error
}

var commands = map[string]command{
	"inspect": {args: []string{"x", "y", "z"}, help: "print the statistics of a block", run: inspect},
	"set":     {args: []string{"x", "y", "z", "cx", "cy", "cz", "state"}, help: "set a cell of a block", run: set},
	"clear":   {args: []string{"x", "y", "z", "cx", "cy", "cz"}, help: "clear a cell of a block", run: clearCell},
	"fill":    {args: []string{"x", "y", "z", "state"}, help: "fill a block with a state", run: fill},
	"rotate":  {args: []string{"x", "y", "z", "axis", "k"}, help: "rotate a block k quarter turns", run: rotate},
	"mirror":  {args: []string{"x", "y", "z", "axis"}, help: "mirror a block along an axis", run: mirror},
	"undo":    {help: "undo the last change", run: undo},
	"redo":    {help: "redo the last undone change", run: redo},
	"list":    {help: "list all subdivided blocks", run: list},
}

func parseInts(args []string) ([]int, error) {
	v := make([]int, len(args))
	for i, arg := range args {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", arg, err)
		}
		v[i] = n
	}
	return v, nil
}

func parsePos(args []string) (define.Pos, error) {
	v, err := parseInts(args[:3])
	if err != nil {
		return define.Pos{}, err
	}
	return define.Pos{v[0], v[1], v[2]}, nil
}

// cellTarget returns the world position of the centre of a cell of the block at pos.
func (a *app) cellTarget(pos define.Pos, args []string) (mgl64.Vec3, error) {
	v, err := parseInts(args)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	size := float64(a.cfg.BitsPerBlockSide)
	var target mgl64.Vec3
	for i := 0; i < 3; i++ {
		if v[i] < 0 || v[i] >= a.cfg.BitsPerBlockSide {
			return mgl64.Vec3{}, fmt.Errorf("cell coordinate %v out of range", v[i])
		}
		target[i] = float64(pos[i]) + (float64(v[i])+0.5)/size
	}
	return target, nil
}

func (a *app) parseMaterial(s string) (define.State, error) {
	state, err := define.ParseState(s)
	if err != nil {
		return state, err
	}
	if r := a.manager.Analyse(state); !r.Eligible {
		return state, fmt.Errorf("%v cannot be used: %v", state, r.Reason)
	}
	return state, nil
}

func inspect(a *app, args []string) error {
	pos, err := parsePos(args)
	if err != nil {
		return err
	}
	e, exists, err := a.mutator.Entity(pos)
	if err != nil {
		return err
	}
	if !exists {
		color.Yellow("Block %v is not subdivided", pos)
		return nil
	}
	stats := e.Statistics()
	id := e.Identifier()
	fmt.Printf("Block %v (%v cells per side, identifier %016x)\n", pos, e.Size(), id.Hash())
	fmt.Printf("  primary state:   %v\n", stats.PrimaryState())
	fmt.Printf("  used cells:      %v\n", stats.UsedCount())
	fmt.Printf("  fullness:        %.4f\n", stats.FullnessFactor())
	fmt.Printf("  slipperiness:    %.4f\n", stats.Slipperiness())
	fmt.Printf("  light emission:  %.4f\n", stats.LightEmissionFactor())
	fmt.Printf("  hardness:        %.4f\n", stats.RelativeHardness())
	fmt.Printf("  skylight passes: %v\n", stats.CanPropagateSkylight())
	fmt.Printf("  weak power:      %v\n", stats.ShouldCheckWeakPower())
	for _, sc := range sortedCounts(stats.StateCounts()) {
		fmt.Printf("  %-24v %v\n", sc.state, sc.count)
	}
	return nil
}

func set(a *app, args []string) error {
	pos, err := parsePos(args)
	if err != nil {
		return err
	}
	target, err := a.cellTarget(pos, args[3:6])
	if err != nil {
		return err
	}
	state, err := a.parseMaterial(args[6])
	if err != nil {
		return err
	}
	if err := a.mutator.SetAt(target, state); err != nil {
		return err
	}
	color.Green("Set %v in block %v", state, pos)
	return nil
}

func clearCell(a *app, args []string) error {
	pos, err := parsePos(args)
	if err != nil {
		return err
	}
	target, err := a.cellTarget(pos, args[3:6])
	if err != nil {
		return err
	}
	if err := a.mutator.ClearAt(target); err != nil {
		return err
	}
	color.Green("Cleared cell of block %v", pos)
	return nil
}

func fill(a *app, args []string) error {
	pos, err := parsePos(args)
	if err != nil {
		return err
	}
	state, err := a.parseMaterial(args[3])
	if err != nil {
		return err
	}
	if err := a.mutator.Update(pos, func(e *multistate.BlockEntity) error {
		e.InitializeWith(state)
		return nil
	}); err != nil {
		return err
	}
	color.Green("Filled block %v with %v", pos, state)
	return nil
}

func rotate(a *app, args []string) error {
	pos, err := parsePos(args)
	if err != nil {
		return err
	}
	axis, err := define.ParseAxis(args[3])
	if err != nil {
		return err
	}
	k, err := strconv.Atoi(args[4])
	if err != nil {
		return fmt.Errorf("parse %q: %w", args[4], err)
	}
	if err := a.mutator.Update(pos, func(e *multistate.BlockEntity) error {
		e.Rotate(axis, k)
		return nil
	}); err != nil {
		return err
	}
	color.Green("Rotated block %v %v times around %v", pos, k, axis)
	return nil
}

func mirror(a *app, args []string) error {
	pos, err := parsePos(args)
	if err != nil {
		return err
	}
	axis, err := define.ParseAxis(args[3])
	if err != nil {
		return err
	}
	if err := a.mutator.Update(pos, func(e *multistate.BlockEntity) error {
		e.Mirror(axis)
		return nil
	}); err != nil {
		return err
	}
	color.Green("Mirrored block %v along %v", pos, axis)
	return nil
}

func undo(a *app, _ []string) error {
	c, err := a.tracker.Undo(a.mutator.Resolve)
	if err != nil {
		return err
	}
	color.Green("Undid change %v of block %v", c.Sequence, c.Pos)
	return nil
}

func redo(a *app, _ []string) error {
	c, err := a.tracker.Redo(a.mutator.Resolve)
	if err != nil {
		return err
	}
	color.Green("Redid change %v of block %v", c.Sequence, c.Pos)
	return nil
}

func list(a *app, _ []string) error {
	positions, err := a.provider.Positions()
	if err != nil {
		return err
	}
	for _, pos := range positions {
		fmt.Println(pos[0], pos[1], pos[2])
	}
	color.Green("%v subdivided blocks", len(positions))
	return nil
}

type stateCount struct {
	state define.State
	count int
}

func sortedCounts(counts map[define.State]int) []stateCount {
	s := make([]stateCount, 0, len(counts))
	for state, n := range counts {
		s = append(s, stateCount{state: state, count: n})
	}
	sort.Slice(s, func(i, j int) bool {
		if s[i].count != s[j].count {
			return s[i].count > s[j].count
		}
		return s[i].state.String() < s[j].state.String()
	})
	return s
}
