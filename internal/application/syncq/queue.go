package syncq

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var errQueueClosed = errors.New("syncq: cola cerrada")

// Task escritura remota diferida. Run se intenta una sola vez.
type Task struct {
	Kind     string
	EntityID string
	Op       string
	Run      func(ctx context.Context) error
}

// Queue ejecuta las tareas en una única goroutine, en orden de llegada
// (un update nunca adelanta al create de la misma entidad).
type Queue struct {
	tracker *Tracker
	log     zerolog.Logger
	timeout time.Duration

	tasks    chan Task
	inflight sync.WaitGroup
	done     chan struct{}
	closeMu  sync.Mutex
	closed   bool
}

// NewQueue arranca el worker. timeout limita cada llamada remota.
func NewQueue(tracker *Tracker, log zerolog.Logger, timeout time.Duration) *Queue {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	q := &Queue{
		tracker: tracker,
		log:     log,
		timeout: timeout,
		tasks:   make(chan Task, 256),
		done:    make(chan struct{}),
	}
	go q.loop()
	return q
}

// Tracker devuelve el registro de fallos asociado.
func (q *Queue) Tracker() *Tracker { return q.tracker }

// Enqueue agenda la tarea. Tras Close las tareas se descartan con un warning.
func (q *Queue) Enqueue(t Task) {
	q.closeMu.Lock()
	defer q.closeMu.Unlock()
	if q.closed {
		q.log.Warn().Str("kind", t.Kind).Str("id", t.EntityID).Str("op", t.Op).Msg("cola cerrada, escritura descartada")
		q.tracker.MarkPending(t.Kind, t.EntityID, t.Op, StatePendingSync, errQueueClosed, &t)
		return
	}
	q.inflight.Add(1)
	q.tasks <- t
}

// Drain espera a que todas las tareas agendadas terminen.
func (q *Queue) Drain() {
	q.inflight.Wait()
}

// RetryPending vuelve a agendar las escrituras fallidas de los tipos indicados (todos si
// no se indica ninguno) y devuelve cuántas. No hay reintento automático: solo se llama
// por acción explícita del usuario.
func (q *Queue) RetryPending(kinds ...string) int {
	retries := q.tracker.takeRetries(kinds)
	for _, t := range retries {
		q.Enqueue(t)
	}
	return len(retries)
}

// Close drena la cola y detiene el worker.
func (q *Queue) Close() {
	q.closeMu.Lock()
	if q.closed {
		q.closeMu.Unlock()
		return
	}
	q.closed = true
	q.closeMu.Unlock()

	q.inflight.Wait()
	close(q.tasks)
	<-q.done
}

func (q *Queue) loop() {
	defer close(q.done)
	for t := range q.tasks {
		q.run(t)
		q.inflight.Done()
	}
}

func (q *Queue) run(t Task) {
	ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
	defer cancel()

	if err := t.Run(ctx); err != nil {
		q.log.Warn().Err(err).
			Str("kind", t.Kind).Str("id", t.EntityID).Str("op", t.Op).
			Msg("escritura remota fallida, entidad marcada pending-sync")
		task := t
		q.tracker.MarkPending(t.Kind, t.EntityID, t.Op, StatePendingSync, err, &task)
		return
	}
	q.tracker.MarkSynced(t.Kind, t.EntityID)
}
