// Package syncq sostiene la escritura optimista: el estado en memoria cambia primero y
// la llamada al almacén remoto corre en segundo plano. Un fallo no revierte nada; marca
// la entidad como pending-sync para que sea observable y reintentable a mano.
package syncq

import (
	"slices"
	"sort"
	"sync"
	"time"
)

// State estado de sincronización de una entidad con el almacén remoto.
type State string

const (
	StateSynced      State = "synced"
	StatePendingSync State = "pending-sync"
	StateLocal       State = "local" // creada con ID local porque el almacén falló
)

// Entry entidad con escritura remota fallida.
type Entry struct {
	Kind     string    `json:"kind"`
	EntityID string    `json:"entity_id"`
	Op       string    `json:"op"`
	State    State     `json:"state"`
	Error    string    `json:"error"`
	At       time.Time `json:"at"`

	retry *Task
}

type entryKey struct{ kind, id string }

// Tracker registro concurrente de entidades no sincronizadas.
type Tracker struct {
	mu      sync.RWMutex
	entries map[entryKey]Entry
	now     func() time.Time
}

// NewTracker construye un tracker vacío.
func NewTracker() *Tracker {
	return &Tracker{entries: map[entryKey]Entry{}, now: time.Now}
}

// MarkPending registra el fallo de op sobre la entidad. retry puede ser nil.
func (t *Tracker) MarkPending(kind, id, op string, state State, err error, retry *Task) {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[entryKey{kind, id}] = Entry{
		Kind: kind, EntityID: id, Op: op, State: state, Error: msg, At: t.now(), retry: retry,
	}
}

// MarkSynced elimina la entidad del registro.
func (t *Tracker) MarkSynced(kind, id string) {
	t.mu.Lock()
	delete(t.entries, entryKey{kind, id})
	t.mu.Unlock()
}

// State devuelve el estado de la entidad (synced si no hay fallos registrados).
func (t *Tracker) State(kind, id string) State {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if e, ok := t.entries[entryKey{kind, id}]; ok {
		return e.State
	}
	return StateSynced
}

// Pending lista las entidades no sincronizadas, más antiguas primero.
func (t *Tracker) Pending() []Entry {
	t.mu.RLock()
	out := make([]Entry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	t.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if out[i].At.Equal(out[j].At) {
			return out[i].EntityID < out[j].EntityID
		}
		return out[i].At.Before(out[j].At)
	})
	return out
}

// takeRetries retira del registro las entradas reintentables de kinds (todas si está
// vacío) y devuelve sus tareas.
func (t *Tracker) takeRetries(kinds []string) []Task {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Task
	for k, e := range t.entries {
		if e.retry == nil || (len(kinds) > 0 && !slices.Contains(kinds, e.Kind)) {
			continue
		}
		out = append(out, *e.retry)
		delete(t.entries, k)
	}
	return out
}
