// Package progress classifies query stream events into per-stage
// retrieval status and derives an overall completion percentage.
package progress

import (
	"strings"

	"github.com/arkelov/docq/internal/stream"
)

// Status is the lifecycle state of one retrieval stage. It only ever
// moves forward: waiting → running → completed.
type Status int

const (
	Waiting Status = iota
	Running
	Completed
)

func (s Status) String() string {
	switch s {
	case Running:
		return "running"
	case Completed:
		return "completed"
	default:
		return "waiting"
	}
}

// progressSuffix marks an in-progress event for a stage, e.g.
// "vectorProgress" vs. the bare completion event "vector".
const progressSuffix = "Progress"

// DefaultStages is the stage set reported by the current backend. The
// aggregator works against whatever set it is given; nothing assumes
// this particular size.
var DefaultStages = []string{"graph", "vector", "fulltext"}

// Weights is the percentage policy: how much a completed and a running
// stage each contribute, as a fraction of one stage's share.
type Weights struct {
	Completed float64
	Running   float64
}

// DefaultWeights counts a running stage as half done.
var DefaultWeights = Weights{Completed: 1, Running: 0.5}

// Stage is a snapshot of one stage's status. Count is the stage's result
// count, set once its completion event arrives.
type Stage struct {
	Name   string
	Status Status
	Count  *int
}

// Aggregator folds stream events into per-stage status and an ordered
// log of progress messages. One aggregator serves exactly one query; a
// new query must start from a fresh instance.
type Aggregator struct {
	order    []string
	stages   map[string]*Stage
	weights  Weights
	done     bool
	messages []string
}

// New creates an aggregator for the given stage set and weight policy.
// Nil stages and zero weights fall back to the defaults.
func New(stages []string, weights Weights) *Aggregator {
	if stages == nil {
		stages = DefaultStages
	}
	if weights == (Weights{}) {
		weights = DefaultWeights
	}
	a := &Aggregator{
		order:   append([]string(nil), stages...),
		stages:  make(map[string]*Stage, len(stages)),
		weights: weights,
	}
	for _, name := range stages {
		a.stages[name] = &Stage{Name: name}
	}
	return a
}

// Observe folds one event into the aggregate.
//
// "<stage>Progress" moves the stage from waiting to running and is a
// no-op once the stage is running or completed. A bare "<stage>" event
// marks it completed and records the result count. Events for unknown
// stages are ignored for tracking but their messages still join the log.
// The result record marks the whole aggregate done.
func (a *Aggregator) Observe(ev stream.Event) {
	if ev.IsResult() {
		a.done = true
		return
	}

	if ev.Message != "" {
		a.messages = append(a.messages, ev.Message)
	}

	name := strings.TrimSuffix(ev.Type, progressSuffix)
	st, ok := a.stages[name]
	if !ok {
		return
	}

	if strings.HasSuffix(ev.Type, progressSuffix) {
		if st.Status == Waiting {
			st.Status = Running
		}
		return
	}

	st.Status = Completed
	if n, ok := ev.Count(); ok {
		st.Count = &n
	}
}

// Percent returns the overall completion percentage against the actual
// tracked stage count. It reaches exactly 100 once the result record has
// been observed, and saturates there.
func (a *Aggregator) Percent() float64 {
	if a.done {
		return 100
	}
	n := len(a.order)
	if n == 0 {
		return 0
	}

	var completed, running int
	for _, st := range a.stages {
		switch st.Status {
		case Completed:
			completed++
		case Running:
			running++
		}
	}

	p := (float64(completed)*a.weights.Completed + float64(running)*a.weights.Running) / float64(n) * 100
	if p > 100 {
		p = 100
	}
	return p
}

// Done reports whether the result record has been observed.
func (a *Aggregator) Done() bool {
	return a.done
}

// Stages returns a snapshot of all stages in configured order.
func (a *Aggregator) Stages() []Stage {
	out := make([]Stage, 0, len(a.order))
	for _, name := range a.order {
		st := a.stages[name]
		snap := Stage{Name: st.Name, Status: st.Status}
		if st.Count != nil {
			n := *st.Count
			snap.Count = &n
		}
		out = append(out, snap)
	}
	return out
}

// Messages returns the ordered log of progress messages.
func (a *Aggregator) Messages() []string {
	return append([]string(nil), a.messages...)
}

// Latest returns the most recent progress message, for "current
// activity" display. Empty when nothing has been reported yet.
func (a *Aggregator) Latest() string {
	if len(a.messages) == 0 {
		return ""
	}
	return a.messages[len(a.messages)-1]
}
