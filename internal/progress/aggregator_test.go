package progress

import (
	"encoding/json"
	"testing"

	"github.com/arkelov/docq/internal/stream"
)

func ev(typ string) stream.Event {
	return stream.Event{Type: typ}
}

func evCount(typ string, n int) stream.Event {
	data, _ := json.Marshal(n)
	return stream.Event{Type: typ, Data: data}
}

func TestAggregator_AllCompletedIsFullPercent(t *testing.T) {
	a := New(nil, Weights{})
	for _, name := range DefaultStages {
		a.Observe(evCount(name, 1))
	}
	if got := a.Percent(); got != 100 {
		t.Errorf("Percent() = %v, want 100", got)
	}
}

func TestAggregator_RunningCountsHalf(t *testing.T) {
	a := New([]string{"graph", "vector"}, Weights{})

	a.Observe(ev("graphProgress"))
	if got := a.Percent(); got != 25 {
		t.Errorf("one of two running: Percent() = %v, want 25", got)
	}

	a.Observe(evCount("graph", 4))
	a.Observe(ev("vectorProgress"))
	if got := a.Percent(); got != 75 {
		t.Errorf("one completed + one running: Percent() = %v, want 75", got)
	}
}

func TestAggregator_UnknownStageLeavesTrackingUnchanged(t *testing.T) {
	a := New(nil, Weights{})
	a.Observe(stream.Event{Type: "rerankProgress", Message: "reranking"})

	if got := a.Percent(); got != 0 {
		t.Errorf("Percent() = %v, want 0 after unknown stage", got)
	}
	for _, st := range a.Stages() {
		if st.Status != Waiting {
			t.Errorf("stage %s = %v, want waiting", st.Name, st.Status)
		}
	}
	// The message is still worth showing.
	if got := a.Latest(); got != "reranking" {
		t.Errorf("Latest() = %q, want %q", got, "reranking")
	}
}

func TestAggregator_ForwardOnlyTransitions(t *testing.T) {
	a := New(nil, Weights{})

	a.Observe(ev("vectorProgress"))
	a.Observe(evCount("vector", 7))
	// A stray progress event after completion must not regress the stage.
	a.Observe(ev("vectorProgress"))

	var vector Stage
	for _, st := range a.Stages() {
		if st.Name == "vector" {
			vector = st
		}
	}
	if vector.Status != Completed {
		t.Errorf("vector status = %v, want completed", vector.Status)
	}
	if vector.Count == nil || *vector.Count != 7 {
		t.Errorf("vector count = %v, want 7", vector.Count)
	}
}

func TestAggregator_ResultMarksDoneAndSaturates(t *testing.T) {
	a := New(nil, Weights{})
	a.Observe(ev("graphProgress"))
	a.Observe(stream.Event{Type: stream.TypeResult, Answer: "done"})

	if !a.Done() {
		t.Error("Done() = false after result record")
	}
	if got := a.Percent(); got != 100 {
		t.Errorf("Percent() = %v, want 100 after result record", got)
	}
}

func TestAggregator_MessagesAccumulateInOrder(t *testing.T) {
	a := New(nil, Weights{})
	a.Observe(stream.Event{Type: "graphProgress", Message: "walking graph"})
	a.Observe(stream.Event{Type: "vectorProgress", Message: "searching vectors"})
	a.Observe(evCount("vector", 3)) // no message

	msgs := a.Messages()
	if len(msgs) != 2 || msgs[0] != "walking graph" || msgs[1] != "searching vectors" {
		t.Errorf("Messages() = %v", msgs)
	}
	if got := a.Latest(); got != "searching vectors" {
		t.Errorf("Latest() = %q", got)
	}
}

func TestAggregator_CustomWeightsAndStages(t *testing.T) {
	a := New([]string{"vector"}, Weights{Completed: 1, Running: 0.25})

	a.Observe(ev("vectorProgress"))
	if got := a.Percent(); got != 25 {
		t.Errorf("Percent() = %v, want 25", got)
	}
	a.Observe(evCount("vector", 1))
	if got := a.Percent(); got != 100 {
		t.Errorf("Percent() = %v, want 100", got)
	}
}

func TestAggregator_StagesReturnsSnapshot(t *testing.T) {
	a := New(nil, Weights{})
	snap := a.Stages()
	snap[0].Status = Completed

	if a.Stages()[0].Status != Waiting {
		t.Error("mutating the snapshot leaked into the aggregator")
	}
}
