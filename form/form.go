// Package form holds the clinical form being edited by one client.
package form

import (
	"sync"

	"github.com/ariebrainware/ai-maama/model"
)

// Listener receives the form snapshot after every change.
type Listener func(model.ClinicalRecord)

// Form is the editable ClinicalRecord. It is safe for concurrent use.
type Form struct {
	mu        sync.RWMutex
	record    model.ClinicalRecord
	listeners map[int]Listener
	nextID    int
}

// New returns an empty form.
func New() *Form {
	return &Form{listeners: make(map[int]Listener)}
}

// SetField overwrites one field with a raw value. Values are not validated
// here; unknown field names return *model.InvalidFieldError and leave the
// form unchanged.
func (f *Form) SetField(name, value string) error {
	f.mu.Lock()
	next, err := f.record.With(name, value)
	if err != nil {
		f.mu.Unlock()
		return err
	}
	f.record = next
	snap, listeners := f.record, f.listenersLocked()
	f.mu.Unlock()

	notify(listeners, snap)
	return nil
}

// MustSetField is SetField for programmatic callers; an unknown field panics.
func (f *Form) MustSetField(name, value string) {
	if err := f.SetField(name, value); err != nil {
		panic(err)
	}
}

// SetFields applies several edits at once. If any name is unknown nothing is applied.
func (f *Form) SetFields(values map[string]string) error {
	f.mu.Lock()
	next := f.record
	for name, value := range values {
		var err error
		if next, err = next.With(name, value); err != nil {
			f.mu.Unlock()
			return err
		}
	}
	f.record = next
	snap, listeners := f.record, f.listenersLocked()
	f.mu.Unlock()

	notify(listeners, snap)
	return nil
}

// Reset clears every field.
func (f *Form) Reset() {
	f.mu.Lock()
	f.record = model.ClinicalRecord{}
	snap, listeners := f.record, f.listenersLocked()
	f.mu.Unlock()

	notify(listeners, snap)
}

// Snapshot returns a copy of the current record. Later edits never affect it.
func (f *Form) Snapshot() model.ClinicalRecord {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.record
}

// Subscribe registers l for change notifications and returns a func that removes it.
func (f *Form) Subscribe(l Listener) (unsubscribe func()) {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = l
	f.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	}
}

func (f *Form) listenersLocked() []Listener {
	out := make([]Listener, 0, len(f.listeners))
	for _, l := range f.listeners {
		out = append(out, l)
	}
	return out
}

func notify(listeners []Listener, snap model.ClinicalRecord) {
	for _, l := range listeners {
		l(snap)
	}
}
