package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	qb "github.com/riskibarqy/guildsync/internal/platform/querybuilder"
)

func isNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// withTx runs fn in one transaction. op names the unit of work in errors.
func withTx(ctx context.Context, db *sqlx.DB, op string, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx %s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit %s tx: %w", op, err)
	}
	return nil
}

func deleteWhere(ctx context.Context, tx *sqlx.Tx, table string, conditions ...qb.Condition) error {
	builder := qb.DeleteFrom(table)
	if len(conditions) == 0 {
		builder.AllRows()
	} else {
		builder.Where(conditions...)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build delete %s query: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete %s: %w", table, err)
	}
	return nil
}

// insertModels writes all rows in one statement. An empty set is a no-op.
func insertModels[T any](ctx context.Context, tx *sqlx.Tx, table string, models []T) error {
	if len(models) == 0 {
		return nil
	}
	query, args, err := qb.InsertModels(table, models, "")
	if err != nil {
		return fmt.Errorf("build insert %s query: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("insert %s rows=%d: %w", table, len(models), err)
	}
	return nil
}

// insertReturningID inserts model and returns the generated id. suffix may
// carry an ON CONFLICT clause; RETURNING id is appended.
func insertReturningID(ctx context.Context, q sqlx.QueryerContext, table string, model any, suffix string) (int64, error) {
	query, args, err := qb.InsertModel(table, model, strings.TrimSpace(suffix+" RETURNING id"))
	if err != nil {
		return 0, fmt.Errorf("build insert %s query: %w", table, err)
	}
	var id int64
	if err := q.QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert %s: %w", table, err)
	}
	return id, nil
}

// upsertModel inserts a single row with an ON CONFLICT suffix.
func upsertModel(ctx context.Context, ex sqlx.ExecerContext, table string, model any, suffix string) error {
	query, args, err := qb.InsertModel(table, model, suffix)
	if err != nil {
		return fmt.Errorf("build upsert %s query: %w", table, err)
	}
	if _, err := ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert %s: %w", table, err)
	}
	return nil
}

func nullableString(value string) *string {
	if value == "" {
		return nil
	}
	return &value
}

func nullTimeToPtr(value sql.NullTime) *time.Time {
	if !value.Valid {
		return nil
	}
	v := value.Time.UTC()
	return &v
}

func nullInt64ToPtr(value sql.NullInt64) *int64 {
	if !value.Valid {
		return nil
	}
	v := value.Int64
	return &v
}

func nullFloat64ToPtr(value sql.NullFloat64) *float64 {
	if !value.Valid {
		return nil
	}
	v := value.Float64
	return &v
}
