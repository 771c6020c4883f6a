package trace

import "github.com/banshee-data/vesseltrace/internal/vessel/registry"

// Observer receives engine lifecycle events. Calls happen on the goroutine
// running the engine.
type Observer interface {
	BranchCreated(id, parent registry.BranchID, depth int)
	BranchHalted(id registry.BranchID, length int, deleted bool)
	AreaCommitted(id registry.BranchID, depth int, predicted bool)
	SplitTriggered(parent, child registry.BranchID, depth int)
	SplitResolved(parent, child registry.BranchID, confirmed bool)
	DepthCompleted(depth, active int)
}

type nopObserver struct{}

func (nopObserver) BranchCreated(registry.BranchID, registry.BranchID, int) {}
func (nopObserver) BranchHalted(registry.BranchID, int, bool) {}
func (nopObserver) AreaCommitted(registry.BranchID, int, bool) {}
func (nopObserver) SplitTriggered(registry.BranchID, registry.BranchID, int) {}
func (nopObserver) SplitResolved(registry.BranchID, registry.BranchID, bool) {}
func (nopObserver) DepthCompleted(int, int) {}

// Stats counts engine events over the engine's lifetime.
type Stats struct {
	BranchesCreated int
	BranchesHalted  int
	BranchesDeleted int
	AreasCommitted  int
	SplitsTriggered int
	SplitsConfirmed int
	SplitsRejected  int
}
