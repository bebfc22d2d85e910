package multistate

import "github.com/loving2/Chisels-and-Bits/define"

// Statistics is a read-only view of the statistics of a block entity.
type Statistics interface {
	PrimaryState() define.State
	StateCounts() map[define.State]int
	UsedCount() int
	LightSum() int
	ShouldCheckWeakPower() bool
	FullnessFactor() float32
	Slipperiness() float32
	LightEmissionFactor() float32
	RelativeHardness() float32
	CanPropagateSkylight() bool
	ColumnLevels(c define.Column) []int
}

type statisticsView struct {
	e *BlockEntity
}

func (v statisticsView) PrimaryState() define.State {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.PrimaryState()
}

func (v statisticsView) StateCounts() map[define.State]int {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.StateCounts()
}

func (v statisticsView) UsedCount() int {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.UsedCount()
}

func (v statisticsView) LightSum() int {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.LightSum()
}

func (v statisticsView) ShouldCheckWeakPower() bool {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.ShouldCheckWeakPower()
}

func (v statisticsView) FullnessFactor() float32 {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.FullnessFactor()
}

func (v statisticsView) Slipperiness() float32 {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.Slipperiness()
}

func (v statisticsView) LightEmissionFactor() float32 {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.LightEmissionFactor()
}

func (v statisticsView) RelativeHardness() float32 {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.RelativeHardness()
}

func (v statisticsView) CanPropagateSkylight() bool {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.CanPropagateSkylight()
}

func (v statisticsView) ColumnLevels(c define.Column) []int {
	v.e.mu.RLock()
	defer v.e.mu.RUnlock()
	return v.e.stats.ColumnLevels(c)
}
