package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ericfisherdev/credvault/internal/domain/model"
	"github.com/ericfisherdev/credvault/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.KDFStore = (*KDFRepo)(nil)

// KDFRepo is the SQLite implementation of the KDFStore port interface. The
// vault holds at most one parameter row.
type KDFRepo struct {
	db *DB
}

// NewKDFRepo creates a new KDFRepo backed by the given DB.
func NewKDFRepo(db *DB) *KDFRepo {
	return &KDFRepo{db: db}
}

// Get returns the stored KDF parameters, or ok=false when the vault has none yet.
func (r *KDFRepo) Get(ctx context.Context) (model.KDFParams, bool, error) {
	return r.get(ctx, r.db.Reader)
}

// Init stores params if no parameters exist and returns whichever parameters
// are in effect afterwards. The first writer wins, so concurrent first runs
// agree on one salt.
func (r *KDFRepo) Init(ctx context.Context, params model.KDFParams) (model.KDFParams, error) {
	const query = `INSERT OR IGNORE INTO kdf_params (id, salt, time_cost, memory_kib, threads) VALUES (1, ?, ?, ?, ?)`

	if len(params.Salt) == 0 {
		return model.KDFParams{}, &driven.StoreError{Op: "init kdf", Err: errors.New("salt must not be empty")}
	}

	tx, err := r.db.Writer.BeginTx(ctx, nil)
	if err != nil {
		return model.KDFParams{}, &driven.StoreError{Op: "init kdf", Err: fmt.Errorf("begin transaction: %w", err)}
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, query, params.Salt, params.Time, params.Memory, params.Threads); err != nil {
		return model.KDFParams{}, &driven.StoreError{Op: "init kdf", Err: fmt.Errorf("insert kdf params: %w", err)}
	}

	stored, ok, err := r.get(ctx, tx)
	if err != nil {
		return model.KDFParams{}, err
	}
	if !ok {
		return model.KDFParams{}, &driven.StoreError{Op: "init kdf", Err: errors.New("kdf params missing after insert")}
	}

	if err := tx.Commit(); err != nil {
		return model.KDFParams{}, &driven.StoreError{Op: "init kdf", Err: fmt.Errorf("commit: %w", err)}
	}

	return stored, nil
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (r *KDFRepo) get(ctx context.Context, q queryRower) (model.KDFParams, bool, error) {
	const query = `SELECT salt, time_cost, memory_kib, threads FROM kdf_params WHERE id = 1`

	var params model.KDFParams
	err := q.QueryRowContext(ctx, query).Scan(&params.Salt, &params.Time, &params.Memory, &params.Threads)
	if errors.Is(err, sql.ErrNoRows) {
		return model.KDFParams{}, false, nil
	}
	if err != nil {
		return model.KDFParams{}, false, &driven.StoreError{Op: "get kdf", Err: fmt.Errorf("query kdf params: %w", err)}
	}

	return params, true, nil
}
