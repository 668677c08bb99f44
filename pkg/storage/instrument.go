package storage

import (
	"context"
	"errors"

	"github.com/rhuss/simple-translate/pkg/debug"
	"github.com/rhuss/simple-translate/pkg/observability"
)

// Instrument wraps store so every operation is counted in
// simple_translate_history_operations_total under the given store name.
func Instrument(store HistoryStore, name string) HistoryStore {
	return &instrumented{store: store, name: name}
}

type instrumented struct {
	store HistoryStore
	name  string
}

func (s *instrumented) observe(op string, err error) {
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound):
		status = "not_found"
	case errors.Is(err, ErrConflict):
		status = "conflict"
	default:
		status = "error"
	}
	observability.HistoryOperationsTotal.WithLabelValues(s.name, op, status).Inc()
	debug.Log("storage", "history operation", "store", s.name, "op", op, "status", status)
}

func (s *instrumented) Save(ctx context.Context, rec *Record) error {
	err := s.store.Save(ctx, rec)
	s.observe("save", err)
	return err
}

func (s *instrumented) Get(ctx context.Context, id string) (*Record, error) {
	rec, err := s.store.Get(ctx, id)
	s.observe("get", err)
	return rec, err
}

func (s *instrumented) List(ctx context.Context, opts ListOptions) (*RecordList, error) {
	list, err := s.store.List(ctx, opts)
	s.observe("list", err)
	return list, err
}

func (s *instrumented) Delete(ctx context.Context, id string) error {
	err := s.store.Delete(ctx, id)
	s.observe("delete", err)
	return err
}

func (s *instrumented) HealthCheck(ctx context.Context) error {
	return s.store.HealthCheck(ctx)
}

func (s *instrumented) Close() error {
	return s.store.Close()
}
