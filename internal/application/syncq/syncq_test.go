package syncq_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/AgroDiligencia-api/internal/application/syncq"
)

// ── Debouncer ─────────────────────────────────────────────────────────────────

func TestDebouncer_RafagaEjecutaUnaVez(t *testing.T) {
	var calls int32
	d := syncq.NewDebouncer(60*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	for i := 0; i < 10; i++ {
		d.Trigger()
		time.Sleep(time.Millisecond)
	}

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&calls) == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls), "no debe disparar dos veces")
	assert.False(t, d.Pending())
}

func TestDebouncer_FlushEjecutaInmediato(t *testing.T) {
	var calls int32
	d := syncq.NewDebouncer(time.Hour, func() { atomic.AddInt32(&calls, 1) })

	assert.False(t, d.Flush(), "sin nada agendado no ejecuta")
	d.Trigger()
	assert.True(t, d.Flush())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.False(t, d.Pending())
}

func TestDebouncer_StopCancela(t *testing.T) {
	var calls int32
	d := syncq.NewDebouncer(10*time.Millisecond, func() { atomic.AddInt32(&calls, 1) })

	d.Trigger()
	d.Stop()
	d.Trigger()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

// ── Queue + Tracker ───────────────────────────────────────────────────────────

func TestQueue_FalloMarcaPendingSync(t *testing.T) {
	tracker := syncq.NewTracker()
	q := syncq.NewQueue(tracker, zerolog.Nop(), time.Second)
	defer q.Close()

	var attempts int32
	q.Enqueue(syncq.Task{Kind: "lien", EntityID: "l1", Op: "delete", Run: func(ctx context.Context) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("conexión rechazada")
	}})
	q.Drain()

	require.Len(t, tracker.Pending(), 1)
	e := tracker.Pending()[0]
	assert.Equal(t, "lien", e.Kind)
	assert.Equal(t, syncq.StatePendingSync, e.State)
	assert.Equal(t, "conexión rechazada", e.Error)
	assert.Equal(t, syncq.StatePendingSync, tracker.State("lien", "l1"))
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "sin reintento automático")
}

func TestQueue_RetryPendingManual(t *testing.T) {
	tracker := syncq.NewTracker()
	q := syncq.NewQueue(tracker, zerolog.Nop(), time.Second)
	defer q.Close()

	var fail atomic.Bool
	fail.Store(true)
	q.Enqueue(syncq.Task{Kind: "item", EntityID: "i1", Op: "update", Run: func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("timeout")
		}
		return nil
	}})
	q.Drain()
	require.Equal(t, syncq.StatePendingSync, tracker.State("item", "i1"))

	fail.Store(false)
	assert.Equal(t, 1, q.RetryPending())
	q.Drain()
	assert.Equal(t, syncq.StateSynced, tracker.State("item", "i1"))
	assert.Empty(t, tracker.Pending())
}

func TestQueue_RetryPendingPorTipo(t *testing.T) {
	tracker := syncq.NewTracker()
	q := syncq.NewQueue(tracker, zerolog.Nop(), time.Second)
	defer q.Close()

	var fail atomic.Bool
	fail.Store(true)
	run := func(ctx context.Context) error {
		if fail.Load() {
			return errors.New("timeout")
		}
		return nil
	}
	q.Enqueue(syncq.Task{Kind: "item", EntityID: "i1", Op: "update", Run: run})
	q.Enqueue(syncq.Task{Kind: "contract", EntityID: "c1", Op: "update", Run: run})
	q.Drain()
	require.Len(t, tracker.Pending(), 2)

	fail.Store(false)
	assert.Equal(t, 1, q.RetryPending("item", "lien"))
	q.Drain()
	assert.Equal(t, syncq.StateSynced, tracker.State("item", "i1"))
	assert.Equal(t, syncq.StatePendingSync, tracker.State("contract", "c1"), "otro tipo no se reintenta")

	assert.Equal(t, 1, q.RetryPending("contract"))
	q.Drain()
	assert.Empty(t, tracker.Pending())
}

func TestQueue_OrdenFIFO(t *testing.T) {
	q := syncq.NewQueue(syncq.NewTracker(), zerolog.Nop(), time.Second)
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		q.Enqueue(syncq.Task{Kind: "x", EntityID: "e", Run: func(ctx context.Context) error {
			order = append(order, i)
			return nil
		}})
	}
	q.Close()
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestQueue_CerradaDescartaYMarca(t *testing.T) {
	tracker := syncq.NewTracker()
	q := syncq.NewQueue(tracker, zerolog.Nop(), time.Second)
	q.Close()

	q.Enqueue(syncq.Task{Kind: "party", EntityID: "p1", Op: "update", Run: func(ctx context.Context) error { return nil }})
	assert.Equal(t, syncq.StatePendingSync, tracker.State("party", "p1"))
}
