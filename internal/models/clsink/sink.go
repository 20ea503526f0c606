// Package clsink écrit les visites: dans les logs (développement), dans
// Google Sheets (production) et optionnellement dans une archive SQL.
package clsink

import (
	"context"
	"errors"
	"strings"

	"resumetracker/internal/models/clvisit"
)

// Sink reçoit une ligne par visite, en append uniquement
type Sink interface {
	Name() string
	Append(ctx context.Context, rec clvisit.Record) error
}

// Reader relit les lignes, en-tête compris
type Reader interface {
	Rows(ctx context.Context) ([][]any, error)
}

// Multi écrit dans chaque sink, une erreur n'empêche pas les suivants
type Multi struct {
	sinks []Sink
}

func NewMulti(sinks ...Sink) *Multi {
	m := &Multi{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

func (m *Multi) Name() string {
	names := make([]string, 0, len(m.sinks))
	for _, s := range m.sinks {
		names = append(names, s.Name())
	}
	return strings.Join(names, "+")
}

func (m *Multi) Append(ctx context.Context, rec clvisit.Record) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Append(ctx, rec); err != nil {
			errs = append(errs, &AppendError{Sink: s.Name(), Err: err})
		}
	}
	return errors.Join(errs...)
}

// AppendError précise quel sink a échoué
type AppendError struct {
	Sink string
	Err  error
}

func (e *AppendError) Error() string {
	return e.Sink + ": " + e.Err.Error()
}

func (e *AppendError) Unwrap() error {
	return e.Err
}
