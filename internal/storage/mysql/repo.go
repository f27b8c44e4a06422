package mysql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"hotel_enricher/internal/domain"
)

var identRe = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

func valStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

type Repo struct {
	db      *sql.DB
	columns []string            // attribute columns in schema order, identifier excluded
	allowed map[string]struct{} // columns + identifier
}

// New returns a repo whose attribute columns are exactly columns.
// Column names must be plain lowercase identifiers.
func New(db *sql.DB, columns []string) (*Repo, error) {
	r := &Repo{db: db, allowed: map[string]struct{}{domain.IDField: {}}}
	for _, c := range columns {
		if !identRe.MatchString(c) || c == domain.IDField {
			return nil, fmt.Errorf("mysql: invalid attribute column %q", c)
		}
		r.columns = append(r.columns, c)
		r.allowed[c] = struct{}{}
	}
	return r, nil
}

// ---- EntitySource ----

func (r *Repo) ListActiveHotels(ctx context.Context) ([]domain.Hotel, error) {
	rows, err := r.db.QueryContext(ctx, listActiveHotelsSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Hotel
	for rows.Next() {
		h, err := scanHotel(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repo) GetHotelByUUID(ctx context.Context, uuid string) (domain.Hotel, error) {
	h, err := scanHotel(r.db.QueryRowContext(ctx, getHotelByUUIDSQL, uuid))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Hotel{}, domain.ErrNotFound
	}
	return h, err
}

type scanner interface{ Scan(dest ...any) error }

func scanHotel(s scanner) (domain.Hotel, error) {
	var (
		id   int64
		h    domain.Hotel
		name sql.NullString
	)
	if err := s.Scan(&id, &h.UUID, &name); err != nil {
		return domain.Hotel{}, err
	}
	h.ID = &id
	h.Name = name.String
	return h, nil
}

// ---- AttributeStore ----

func (r *Repo) FindByUUID(ctx context.Context, uuid string) (domain.AttributeRecord, error) {
	cols := append([]string{domain.IDField}, r.columns...)
	q := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?", quoteAll(cols), attributesTable, quote(domain.IDField))

	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	if err := r.db.QueryRowContext(ctx, q, uuid).Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rec := make(domain.AttributeRecord, len(cols))
	for i, c := range cols {
		if vals[i].Valid {
			s := vals[i].String
			rec[c] = &s
		} else {
			rec[c] = nil
		}
	}
	return rec, nil
}

func (r *Repo) FindIDByUUID(ctx context.Context, uuid string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, findAttributeIDSQL, uuid).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return id, err
}

func (r *Repo) Insert(ctx context.Context, rec domain.AttributeRecord) (int64, error) {
	q, args, err := r.buildInsert(rec)
	if err != nil {
		return 0, err
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (r *Repo) Update(ctx context.Context, id int64, fields domain.AttributeRecord) (int64, error) {
	q, args, err := r.buildUpdate(id, fields)
	if err != nil {
		return 0, err
	}
	if q == "" {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *Repo) buildInsert(rec domain.AttributeRecord) (string, []any, error) {
	keys, err := r.sortedKeys(rec)
	if err != nil {
		return "", nil, err
	}
	if len(keys) == 0 {
		return "", nil, domain.ErrNoFields
	}
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, valStr(rec[k]))
	}
	q := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		attributesTable, quoteAll(keys), strings.TrimSuffix(strings.Repeat("?,", len(keys)), ","))
	return q, args, nil
}

// buildUpdate returns "" when there is nothing to set.
func (r *Repo) buildUpdate(id int64, fields domain.AttributeRecord) (string, []any, error) {
	if _, ok := fields[domain.IDField]; ok {
		return "", nil, fmt.Errorf("mysql: %s is immutable", domain.IDField)
	}
	keys, err := r.sortedKeys(fields)
	if err != nil {
		return "", nil, err
	}
	if len(keys) == 0 {
		return "", nil, nil
	}
	sets := make([]string, 0, len(keys)+1)
	args := make([]any, 0, len(keys)+1)
	for _, k := range keys {
		sets = append(sets, quote(k)+" = ?")
		args = append(args, valStr(fields[k]))
	}
	sets = append(sets, "updated_at = CURRENT_TIMESTAMP")
	args = append(args, id)
	q := fmt.Sprintf("UPDATE %s SET %s WHERE id = ?", attributesTable, strings.Join(sets, ", "))
	return q, args, nil
}

// sortedKeys rejects columns the table does not have; order is deterministic.
func (r *Repo) sortedKeys(rec domain.AttributeRecord) ([]string, error) {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		if _, ok := r.allowed[k]; !ok {
			return nil, fmt.Errorf("mysql: unknown attribute column %q", k)
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func quote(c string) string { return "`" + c + "`" }

func quoteAll(cols []string) string {
	q := make([]string, len(cols))
	for i, c := range cols {
		q[i] = quote(c)
	}
	return strings.Join(q, ", ")
}

// ---- FAQStore ----

// ReplaceFAQs swaps a hotel's FAQ set in one transaction.
func (r *Repo) ReplaceFAQs(ctx context.Context, uuid string, qas []domain.QA) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, deleteFAQsSQL, uuid); err != nil {
		return err
	}
	if len(qas) > 0 {
		values := make([]string, 0, len(qas))
		args := make([]any, 0, len(qas)*4)
		for i, qa := range qas {
			values = append(values, "(?,?,?,?)")
			args = append(args, uuid, i, qa.Question, qa.Answer)
		}
		if _, err := tx.ExecContext(ctx, insertFAQsPrefix+strings.Join(values, ","), args...); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (r *Repo) ListFAQs(ctx context.Context, uuid string) ([]domain.QA, error) {
	rows, err := r.db.QueryContext(ctx, listFAQsSQL, uuid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.QA
	for rows.Next() {
		var qa domain.QA
		if err := rows.Scan(&qa.Question, &qa.Answer); err != nil {
			return nil, err
		}
		out = append(out, qa)
	}
	return out, rows.Err()
}
