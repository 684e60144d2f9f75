package sim

import (
	"container/heap"

	"github.com/sirupsen/logrus"
)

// eventHeap implements heap.Interface ordering events by (timestamp,
// insertion order) so equal-timestamp events execute FIFO.
// See canonical Golang example: https://pkg.go.dev/container/heap#example-package-IntHeap
type eventHeap struct {
	events []Event
	seq    []int64
}

func (h eventHeap) Len() int { return len(h.events) }
func (h eventHeap) Less(i, j int) bool {
	if h.events[i].Timestamp() != h.events[j].Timestamp() {
		return h.events[i].Timestamp() < h.events[j].Timestamp()
	}
	return h.seq[i] < h.seq[j]
}
func (h eventHeap) Swap(i, j int) {
	h.events[i], h.events[j] = h.events[j], h.events[i]
	h.seq[i], h.seq[j] = h.seq[j], h.seq[i]
}
func (h *eventHeap) Push(x any) {
	h.events = append(h.events, x.(Event))
	h.seq = append(h.seq, 0) // overwritten by Engine.Schedule before heap.Push
}
func (h *eventHeap) Pop() any {
	old := h.events
	n := len(old)
	item := old[n-1]
	h.events = old[:n-1]
	h.seq = h.seq[:n-1]
	return item
}

// maxRunUntilIterations bounds run_until's micro-step loop so a malformed
// event graph (bug) cannot spin the engine forever; spec §4.1/§4.5.
const maxRunUntilIterations = 1_000_000

// EventListener observes the processed events of the tag it is registered
// for with On. Entities register interest at construction (per the central event
// listener design note) instead of a reflective listener chain.
type EventListener func(ev Event)

// Engine owns the simulated clock and the future-event heap. It is
// single-threaded and cooperative: exactly one event processed at a time,
// deterministic given a seed (spec §5).
type Engine struct {
	Clock                 int64
	MinTimeBetweenEvents   int64
	heap                   eventHeap
	nextSeq                int64
	listeners              map[EventTag][]EventListener
	afterEventListeners    []func(ev Event)
	unfinishedWorkCheckers []func() bool
}

// NewEngine creates an Engine with the given min-time-between-events floor.
func NewEngine(minTimeBetweenEvents int64) *Engine {
	return &Engine{
		MinTimeBetweenEvents: minTimeBetweenEvents,
		heap:                 eventHeap{},
		listeners:            make(map[EventTag][]EventListener),
	}
}

// On registers a listener invoked whenever an event with the given tag is
// executed, after its own Execute logic.
func (eng *Engine) On(tag EventTag, fn EventListener) {
	eng.listeners[tag] = append(eng.listeners[tag], fn)
}

// OnAfterEvent registers a listener invoked after every event regardless of
// tag — used for the keep-alive injection hook.
func (eng *Engine) OnAfterEvent(fn func(ev Event)) {
	eng.afterEventListeners = append(eng.afterEventListeners, fn)
}

// RegisterUnfinishedWorkChecker lets a collaborator (the broker) report
// whether it still has unfinished work, so IsRunning reflects more than
// just pending events.
func (eng *Engine) RegisterUnfinishedWorkChecker(fn func() bool) {
	eng.unfinishedWorkCheckers = append(eng.unfinishedWorkCheckers, fn)
}

// Schedule enqueues ev. Callers computing a delay for a newly-derived event
// (e.g. the driver's keep-alive tick) should floor it at
// MinTimeBetweenEvents themselves; Schedule does not silently rewrite
// caller-supplied timestamps.
func (eng *Engine) Schedule(ev Event) {
	heap.Push(&eng.heap, ev)
	eng.heap.seq[len(eng.heap.seq)-1] = eng.nextSeq
	eng.nextSeq++
}

// Send is a convenience wrapper matching spec §4.1's send(src, dst, delay,
// tag, payload) contract: it schedules ev at eng.Clock+delay by requiring
// the caller to have already stamped ev with that timestamp via its
// constructor. Kept as a thin alias so call sites read declaratively.
func (eng *Engine) Send(ev Event) {
	eng.Schedule(ev)
}

func (eng *Engine) dispatchTag(ev Event) {
	for _, fn := range eng.listeners[ev.Tag()] {
		fn(ev)
	}
}

// Pending returns the number of events still queued.
func (eng *Engine) Pending() int {
	return eng.heap.Len()
}

// IsRunning is true iff there is at least one pending event, or a
// registered collaborator reports unfinished work (spec §4.1).
func (eng *Engine) IsRunning() bool {
	if eng.heap.Len() > 0 {
		return true
	}
	for _, fn := range eng.unfinishedWorkCheckers {
		if fn() {
			return true
		}
	}
	return false
}

// RunUntil processes every event with timestamp <= targetTime, then returns
// the new clock value: targetTime, unless the clock was already past it
// (the clock never moves backwards). An iteration budget guards
// against a runaway event graph; if hit, RunUntil logs a warning and
// returns early rather than spinning (spec §4.1/§4.5).
func (eng *Engine) RunUntil(targetTime int64) int64 {
	iterations := 0
	for eng.heap.Len() > 0 && eng.heap.events[0].Timestamp() <= targetTime {
		if iterations >= maxRunUntilIterations {
			logrus.Warnf("engine: RunUntil hit iteration cap (%d) before reaching target %d; breaking", maxRunUntilIterations, targetTime)
			break
		}
		ev := heap.Pop(&eng.heap).(Event)
		eng.Clock = ev.Timestamp()
		ev.Execute(eng)
		for _, fn := range eng.afterEventListeners {
			fn(ev)
		}
		// Keep-alive injection point: during the final stretch (exactly one
		// event left), collaborators may schedule a NoneEvent to let
		// in-flight work finish instead of prematurely ending the run.
		iterations++
	}
	if eng.Clock < targetTime {
		eng.Clock = targetTime
	}
	return eng.Clock
}
