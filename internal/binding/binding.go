package binding

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"supermarket-dashboard/internal/charts"
	"supermarket-dashboard/internal/models"
)

type State int32

const (
	StateIdle State = iota
	StateRecomputing
)

func (s State) String() string {
	if s == StateRecomputing {
		return "recomputing"
	}
	return "idle"
}

var ErrStopped = errors.New("binding stopped")

// Recomputer turns a filter selection into the five charts.
type Recomputer interface {
	Recompute(ctx context.Context, sel models.FilterSelection) charts.ChartSet
}

// Sink receives every applied chart set. It must not block.
type Sink func(charts.ChartSet)

type filterChanged struct {
	seq uint64
	sel models.FilterSelection
}

// Binding owns one session's current charts. A single loop in Run processes
// filter changes one at a time; pending changes collapse to the newest.
type Binding struct {
	recomputer Recomputer
	logger     *slog.Logger

	events  chan filterChanged
	stopped chan struct{}

	mu       sync.Mutex
	state    State
	current  charts.ChartSet
	applied  bool
	nextSeq  uint64
	pending  *filterChanged
	sinks    map[int]Sink
	nextSink int
	changed  chan struct{}
}

func New(recomputer Recomputer, logger *slog.Logger) *Binding {
	if logger == nil {
		logger = slog.Default()
	}
	return &Binding{
		recomputer: recomputer,
		logger:     logger,
		events:     make(chan filterChanged, 1),
		stopped:    make(chan struct{}),
		sinks:      make(map[int]Sink),
		changed:    make(chan struct{}),
	}
}

// Dispatch records a filter change and returns its sequence number.
// It never blocks on an in-flight recomputation.
func (b *Binding) Dispatch(sel models.FilterSelection) (uint64, error) {
	b.mu.Lock()
	select {
	case <-b.stopped:
		b.mu.Unlock()
		return 0, ErrStopped
	default:
	}
	b.nextSeq++
	ev := filterChanged{seq: b.nextSeq, sel: sel}
	b.pending = &ev
	b.mu.Unlock()

	select {
	case b.events <- ev:
	default:
		// loop already has a wake-up queued; it will read b.pending
	}
	return ev.seq, nil
}

// Run processes filter changes until ctx is done.
func (b *Binding) Run(ctx context.Context) error {
	defer close(b.stopped)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-b.events:
		}

		b.mu.Lock()
		ev := b.pending
		b.pending = nil
		if ev == nil {
			b.mu.Unlock()
			continue
		}
		b.state = StateRecomputing
		b.mu.Unlock()

		set := b.recomputer.Recompute(ctx, ev.sel)
		if err := ctx.Err(); err != nil {
			// a cut-short recomputation is never applied
			return err
		}
		set.Seq = ev.seq
		b.apply(set)
	}
}

func (b *Binding) apply(set charts.ChartSet) {
	b.mu.Lock()
	b.current = set
	b.applied = true
	b.state = StateIdle
	sinks := make([]Sink, 0, len(b.sinks))
	for _, s := range b.sinks {
		sinks = append(sinks, s)
	}
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()

	b.logger.Debug("charts applied", "seq", set.Seq, "sinks", len(sinks))
	for _, s := range sinks {
		s(set)
	}
}

// Subscribe registers a display sink and returns its cancel function.
func (b *Binding) Subscribe(sink Sink) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextSink
	b.nextSink++
	b.sinks[id] = sink
	return func() {
		b.mu.Lock()
		delete(b.sinks, id)
		b.mu.Unlock()
	}
}

// Current returns the last applied chart set, if any.
func (b *Binding) Current() (charts.ChartSet, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current, b.applied
}

func (b *Binding) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Await blocks until a chart set with sequence number >= seq has been applied.
func (b *Binding) Await(ctx context.Context, seq uint64) (charts.ChartSet, error) {
	for {
		b.mu.Lock()
		if b.applied && b.current.Seq >= seq {
			set := b.current
			b.mu.Unlock()
			return set, nil
		}
		changed := b.changed
		b.mu.Unlock()

		select {
		case <-ctx.Done():
			return charts.ChartSet{}, ctx.Err()
		case <-b.stopped:
			return charts.ChartSet{}, ErrStopped
		case <-changed:
		}
	}
}
