package registry

import (
	"errors"
	"fmt"

	"github.com/banshee-data/vesseltrace/internal/vessel/geometry"
	"github.com/banshee-data/vesseltrace/internal/vessel/stats"
)

// BranchID identifies a branch. Ids start at 1.
type BranchID int

const (
	// NoParent marks a root branch.
	NoParent BranchID = 0
	// OverlayID tags diagnostic areas that belong to no branch.
	OverlayID BranchID = -1
)

var (
	ErrDepthOutOfRange = errors.New("registry: depth out of range")
	ErrUnknownBranch   = errors.New("registry: unknown branch")
)

// Branch is one tracked vessel segment.
type Branch struct {
	ID        BranchID
	Parent    BranchID
	Reverse   bool
	Target    geometry.Point
	Length    int
	Radius    *stats.RunningAverage
	Intensity *stats.NestedAverage
}

// Area is one cross-section contour owned by a branch at some depth.
type Area struct {
	Branch    BranchID
	Contour   geometry.Contour
	Predicted bool
}

// Label is a diagnostic text anchored at a pixel of a depth level.
type Label struct {
	Depth int
	At    geometry.Point
	Text  string
}

// Registry owns branches and depth levels. It is not safe for concurrent
// use.
type Registry struct {
	nestedLimit int
	branches    []*Branch // index id-1; nil marks a removed or unused id
	levels      [][]Area
	overlay     [][]Area
	labels      []Label
	lastID      BranchID
}

// New returns an empty registry with depth levels 0..depth-1. nestedLimit
// sizes the intensity window of root branches.
func New(depth, nestedLimit int) *Registry {
	return &Registry{
		nestedLimit: nestedLimit,
		levels:      make([][]Area, depth),
		overlay:     make([][]Area, depth),
	}
}

// Derive returns an empty registry of the same depth that keeps every live
// id as an empty branch and the id high-water mark, so ids minted later
// never collide with ids of r.
func (r *Registry) Derive() *Registry {
	out := New(len(r.levels), r.nestedLimit)
	out.lastID = r.lastID
	out.branches = make([]*Branch, len(r.branches))
	for i, b := range r.branches {
		if b == nil {
			continue
		}
		out.branches[i] = &Branch{
			ID:        b.ID,
			Parent:    b.Parent,
			Reverse:   b.Reverse,
			Target:    b.Target,
			Radius:    &stats.RunningAverage{},
			Intensity: stats.NewNestedAverage(r.nestedLimit),
		}
	}
	return out
}

// Depth returns the number of depth levels.
func (r *Registry) Depth() int {
	return len(r.levels)
}

// NestedLimit returns the intensity window capacity of root branches.
func (r *Registry) NestedLimit() int {
	return r.nestedLimit
}

// LastID returns the highest id ever issued.
func (r *Registry) LastID() BranchID {
	return r.lastID
}

// NewBranch issues the next id. The intensity window is a deep copy of the
// parent's unless the branch is a root or runs in reverse, which start
// empty.
func (r *Registry) NewBranch(parent BranchID, reverse bool) *Branch {
	r.lastID++
	b := &Branch{
		ID:      r.lastID,
		Parent:  parent,
		Reverse: reverse,
		Radius:  &stats.RunningAverage{},
	}
	if p := r.Branch(parent); p != nil && !reverse {
		b.Intensity = p.Intensity.Copy()
	} else {
		b.Intensity = stats.NewNestedAverage(r.nestedLimit)
	}
	r.grow(b.ID)
	r.branches[b.ID-1] = b
	return b
}

func (r *Registry) grow(id BranchID) {
	if n := int(id) - len(r.branches); n > 0 {
		r.branches = append(r.branches, make([]*Branch, n)...)
	}
}

// RaiseLastID lifts the id high-water mark to at least id.
func (r *Registry) RaiseLastID(id BranchID) {
	r.lastID = max(r.lastID, id)
}

// Restore installs an empty branch under a known id, raising the high-water
// mark when needed. It is used when reloading a stored registry.
func (r *Registry) Restore(id, parent BranchID, reverse bool) (*Branch, error) {
	if id <= 0 {
		return nil, fmt.Errorf("restore branch %d: %w", id, ErrUnknownBranch)
	}
	r.grow(id)
	b := &Branch{
		ID:        id,
		Parent:    parent,
		Reverse:   reverse,
		Radius:    &stats.RunningAverage{},
		Intensity: stats.NewNestedAverage(r.nestedLimit),
	}
	r.branches[id-1] = b
	r.lastID = max(r.lastID, id)
	return b, nil
}

// Branch returns the live branch with the given id, or nil.
func (r *Registry) Branch(id BranchID) *Branch {
	if id <= 0 || int(id) > len(r.branches) {
		return nil
	}
	return r.branches[id-1]
}

// Target returns the branch's current target pixel.
func (r *Registry) Target(id BranchID) (geometry.Point, bool) {
	b := r.Branch(id)
	if b == nil {
		return geometry.NoPoint, false
	}
	return b.Target, true
}

// SetTarget updates the branch's target pixel.
func (r *Registry) SetTarget(id BranchID, p geometry.Point) bool {
	b := r.Branch(id)
	if b == nil {
		return false
	}
	b.Target = p
	return true
}

// Live returns the ids of all live branches in ascending order.
func (r *Registry) Live() []BranchID {
	var ids []BranchID
	for _, b := range r.branches {
		if b != nil {
			ids = append(ids, b.ID)
		}
	}
	return ids
}

func (r *Registry) checkDepth(depth int) error {
	if depth < 0 || depth >= len(r.levels) {
		return fmt.Errorf("depth %d of %d: %w", depth, len(r.levels), ErrDepthOutOfRange)
	}
	return nil
}

// AddArea appends a contour for the branch at depth and increments the
// branch length.
func (r *Registry) AddArea(depth int, id BranchID, c geometry.Contour, predicted bool) error {
	if err := r.checkDepth(depth); err != nil {
		return err
	}
	b := r.Branch(id)
	if b == nil {
		return fmt.Errorf("add area for branch %d: %w", id, ErrUnknownBranch)
	}
	r.levels[depth] = append(r.levels[depth], Area{Branch: id, Contour: c, Predicted: predicted})
	b.Length++
	return nil
}

// RemoveArea drops the branch's first area at depth and decrements its
// length. It reports whether an area was removed.
func (r *Registry) RemoveArea(depth int, id BranchID) bool {
	if r.checkDepth(depth) != nil {
		return false
	}
	level := r.levels[depth]
	for i, a := range level {
		if a.Branch != id {
			continue
		}
		r.levels[depth] = append(level[:i:i], level[i+1:]...)
		if b := r.Branch(id); b != nil {
			b.Length--
		}
		return true
	}
	return false
}

// RemoveBranch purges every area of the branch and retires its id.
func (r *Registry) RemoveBranch(id BranchID) bool {
	if r.Branch(id) == nil {
		return false
	}
	for d, level := range r.levels {
		kept := level[:0:0]
		for _, a := range level {
			if a.Branch != id {
				kept = append(kept, a)
			}
		}
		r.levels[d] = kept
	}
	r.branches[id-1] = nil
	return true
}

// AreasAt returns the areas registered at depth. The slice must not be
// modified by the caller.
func (r *Registry) AreasAt(depth int) []Area {
	if r.checkDepth(depth) != nil {
		return nil
	}
	return r.levels[depth]
}

// AreaOf returns the branch's first area at depth.
func (r *Registry) AreaOf(depth int, id BranchID) (Area, bool) {
	for _, a := range r.AreasAt(depth) {
		if a.Branch == id {
			return a, true
		}
	}
	return Area{}, false
}

// Trajectory scans from the deepest level towards 0 and returns the
// branch's consecutive areas, stopping at the first gap after the branch
// has appeared. offset is the depth of the first returned area; areas[i]
// lies at depth offset-i.
func (r *Registry) Trajectory(id BranchID) (areas []Area, offset int) {
	for d := len(r.levels) - 1; d >= 0; d-- {
		a, ok := r.AreaOf(d, id)
		if len(areas) == 0 {
			offset = d
		}
		if ok {
			areas = append(areas, a)
		} else if len(areas) > 0 {
			break
		}
	}
	if len(areas) == 0 {
		return nil, 0
	}
	return areas, offset
}

// StartDepth returns the deepest level holding an area of the branch, or
// -1 when it owns none.
func (r *Registry) StartDepth(id BranchID) int {
	for d := len(r.levels) - 1; d >= 0; d-- {
		if _, ok := r.AreaOf(d, id); ok {
			return d
		}
	}
	return -1
}

// LastArea returns the branch's area at the shallowest level, which for a
// tracer walking towards depth 0 is the most recent commit.
func (r *Registry) LastArea(id BranchID) (Area, bool) {
	for d := range r.levels {
		if a, ok := r.AreaOf(d, id); ok {
			return a, true
		}
	}
	return Area{}, false
}

// AddOverlay records a diagnostic contour at depth.
func (r *Registry) AddOverlay(depth int, c geometry.Contour) {
	if r.checkDepth(depth) != nil {
		return
	}
	r.overlay[depth] = append(r.overlay[depth], Area{Branch: OverlayID, Contour: c})
}

// Overlay returns the diagnostic contours at depth.
func (r *Registry) Overlay(depth int) []Area {
	if r.checkDepth(depth) != nil {
		return nil
	}
	return r.overlay[depth]
}

// AddLabel records a diagnostic text label.
func (r *Registry) AddLabel(depth int, at geometry.Point, text string) {
	r.labels = append(r.labels, Label{Depth: depth, At: at, Text: text})
}

// Labels returns every recorded label in insertion order.
func (r *Registry) Labels() []Label {
	return r.labels
}
