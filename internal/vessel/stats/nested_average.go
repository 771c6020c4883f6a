package stats

// DefaultNestedLimit is the window capacity used for branch intensity
// baselines.
const DefaultNestedLimit = 10

// NestedAverage is a fixed-capacity sliding-window mean. Once more than
// limit values are retained the oldest one is evicted on every Add, so the
// window holds at most limit+1 values.
type NestedAverage struct {
	limit   int
	values  []float64
	average float64
}

// NewNestedAverage returns an empty window. A non-positive limit selects
// DefaultNestedLimit.
func NewNestedAverage(limit int) *NestedAverage {
	if limit <= 0 {
		limit = DefaultNestedLimit
	}
	return &NestedAverage{limit: limit}
}

// Add appends x, evicting the oldest retained value when the window is
// already past capacity, and recomputes the mean of the retained window.
func (n *NestedAverage) Add(x float64) {
	if len(n.values) > n.limit {
		n.values = append(n.values[:0], n.values[1:]...)
	}
	n.values = append(n.values, x)

	var sum float64
	for _, v := range n.values {
		sum += v
	}
	n.average = sum / float64(len(n.values))
}

// Average returns the mean of the retained window, or 0 when empty.
func (n *NestedAverage) Average() float64 {
	return n.average
}

// Last returns the most recently added value (0 when empty).
func (n *NestedAverage) Last() float64 {
	if len(n.values) == 0 {
		return 0
	}
	return n.values[len(n.values)-1]
}

// Len returns the number of retained values.
func (n *NestedAverage) Len() int {
	return len(n.values)
}

// Limit returns the configured capacity.
func (n *NestedAverage) Limit() int {
	return n.limit
}

// Values returns a copy of the retained window, oldest first.
func (n *NestedAverage) Values() []float64 {
	out := make([]float64, len(n.values))
	copy(out, n.values)
	return out
}

// Copy returns a deep clone that shares no storage with n. Forked branches
// must always receive a copy so they never alias their parent's history.
func (n *NestedAverage) Copy() *NestedAverage {
	c := &NestedAverage{limit: n.limit, average: n.average}
	c.values = make([]float64, len(n.values), n.limit+1)
	copy(c.values, n.values)
	return c
}
