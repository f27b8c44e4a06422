package enrich

import (
	"context"

	"hotel_enricher/internal/domain"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
)

type Result struct {
	Action   Action
	RowID    int64 // existing id on update, new id on insert
	Affected int64 // update only
	Fields   int   // schema fields written, identifier excluded
}

// Reconciler persists an accumulator with exactly one insert or update.
type Reconciler struct {
	schema *Schema
	store  domain.AttributeStore
}

func NewReconciler(s *Schema, st domain.AttributeStore) *Reconciler {
	return &Reconciler{schema: s, store: st}
}

func (r *Reconciler) Reconcile(ctx context.Context, uuid string, acc domain.AttributeRecord) (Result, error) {
	id, err := r.store.FindIDByUUID(ctx, uuid)
	if err != nil {
		return Result{}, &domain.PersistError{Op: "lookup", UUID: uuid, Err: err}
	}

	if id != 0 {
		// identifier is immutable once created, never part of an update
		fields := r.schema.FilterValid(acc, false)
		res := Result{Action: ActionUpdate, RowID: id, Fields: len(fields)}
		if len(fields) == 0 {
			return res, nil
		}
		n, err := r.store.Update(ctx, id, fields)
		if err != nil {
			return res, &domain.PersistError{Op: "update", UUID: uuid, Err: err}
		}
		res.Affected = n
		return res, nil
	}

	rec := r.schema.FilterValid(acc, false)
	res := Result{Action: ActionInsert, Fields: len(rec)}
	if uuid != "" {
		u := uuid
		rec[domain.IDField] = &u
	}
	if len(rec) == 0 {
		return res, &domain.PersistError{Op: "insert", UUID: uuid, Err: domain.ErrNoFields}
	}
	newID, err := r.store.Insert(ctx, rec)
	if err != nil {
		return res, &domain.PersistError{Op: "insert", UUID: uuid, Err: err}
	}
	res.RowID = newID
	return res, nil
}
