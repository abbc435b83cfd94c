package binding

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supermarket-dashboard/internal/charts"
	"supermarket-dashboard/internal/models"
)

// stubRecomputer records every selection it sees. When gate is set, each call
// blocks until the test sends on it.
type stubRecomputer struct {
	mu      sync.Mutex
	seen    []models.FilterSelection
	calls   atomic.Int32
	gate    chan struct{}
	entered chan struct{}
}

func (s *stubRecomputer) Recompute(ctx context.Context, sel models.FilterSelection) charts.ChartSet {
	s.calls.Add(1)
	if s.entered != nil {
		s.entered <- struct{}{}
	}
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
		}
	}
	s.mu.Lock()
	s.seen = append(s.seen, sel)
	s.mu.Unlock()
	return charts.ChartSet{Selection: sel}
}

func (s *stubRecomputer) selections() []models.FilterSelection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.FilterSelection(nil), s.seen...)
}

func selection(cities ...string) models.FilterSelection {
	return models.FilterSelection{Cities: cities, Metric: models.MetricRevenue}
}

func startBinding(t *testing.T, rc Recomputer) *Binding {
	t.Helper()
	b := New(rc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return b
}

func awaitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestBinding_DispatchAndAwait(t *testing.T) {
	rc := &stubRecomputer{}
	b := startBinding(t, rc)

	_, ok := b.Current()
	assert.False(t, ok)

	seq, err := b.Dispatch(selection("A"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), seq)

	set, err := b.Await(awaitCtx(t), seq)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), set.Seq)
	assert.Equal(t, []string{"A"}, set.Selection.Cities)

	current, ok := b.Current()
	assert.True(t, ok)
	assert.Equal(t, set, current)
	assert.Equal(t, StateIdle, b.State())
}

func TestBinding_CoalescesToLatest(t *testing.T) {
	rc := &stubRecomputer{gate: make(chan struct{}), entered: make(chan struct{}, 4)}
	b := startBinding(t, rc)

	_, err := b.Dispatch(selection("first"))
	require.NoError(t, err)
	<-rc.entered
	assert.Equal(t, StateRecomputing, b.State())

	// These arrive while "first" is in flight; only the newest should run.
	for _, c := range []string{"second", "third", "fourth"} {
		_, err := b.Dispatch(selection(c))
		require.NoError(t, err)
	}

	rc.gate <- struct{}{}
	<-rc.entered
	rc.gate <- struct{}{}

	set, err := b.Await(awaitCtx(t), 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(4), set.Seq)
	assert.Equal(t, []string{"fourth"}, set.Selection.Cities)

	seen := rc.selections()
	require.Len(t, seen, 2)
	assert.Equal(t, []string{"first"}, seen[0].Cities)
	assert.Equal(t, []string{"fourth"}, seen[1].Cities)
	assert.Equal(t, int32(2), rc.calls.Load())
}

func TestBinding_AwaitOlderSeqReturnsNewer(t *testing.T) {
	b := startBinding(t, &stubRecomputer{})

	_, err := b.Dispatch(selection("A"))
	require.NoError(t, err)
	seq, err := b.Dispatch(selection("B"))
	require.NoError(t, err)

	_, err = b.Await(awaitCtx(t), seq)
	require.NoError(t, err)

	set, err := b.Await(awaitCtx(t), 1)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, set.Seq, uint64(1))
}

func TestBinding_SinksReceiveEveryApply(t *testing.T) {
	b := startBinding(t, &stubRecomputer{})

	var (
		mu  sync.Mutex
		got []uint64
	)
	cancel := b.Subscribe(func(set charts.ChartSet) {
		mu.Lock()
		got = append(got, set.Seq)
		mu.Unlock()
	})

	seq, err := b.Dispatch(selection("A"))
	require.NoError(t, err)
	_, err = b.Await(awaitCtx(t), seq)
	require.NoError(t, err)

	cancel()

	seq, err = b.Dispatch(selection("B"))
	require.NoError(t, err)
	_, err = b.Await(awaitCtx(t), seq)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []uint64{1}, got)
}

func TestBinding_AwaitHonorsContext(t *testing.T) {
	rc := &stubRecomputer{gate: make(chan struct{})}
	b := startBinding(t, rc)

	seq, err := b.Dispatch(selection("A"))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err = b.Await(ctx, seq)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBinding_AwaitStoppedMidRecompute(t *testing.T) {
	rc := &stubRecomputer{gate: make(chan struct{}), entered: make(chan struct{}, 1)}
	b := New(rc, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = b.Run(ctx)
	}()

	seq, err := b.Dispatch(selection("A"))
	require.NoError(t, err)
	<-rc.entered

	cancel()
	<-done

	_, err = b.Await(awaitCtx(t), seq)
	assert.ErrorIs(t, err, ErrStopped)
	_, applied := b.Current()
	assert.False(t, applied, "an interrupted recomputation must not be applied")
}

func TestBinding_StoppedRejectsDispatch(t *testing.T) {
	b := New(&stubRecomputer{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	_, err := b.Dispatch(selection("A"))
	assert.ErrorIs(t, err, ErrStopped)

	_, err = b.Await(context.Background(), 1)
	assert.ErrorIs(t, err, ErrStopped)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", StateIdle.String())
	assert.Equal(t, "recomputing", StateRecomputing.String())
}
