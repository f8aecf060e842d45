package sqlite

import (
	"context"
	"database/sql"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
)

type txKey struct{}

// Transactor открывает транзакцию SQLite и кладёт её в контекст для репозиториев.
type Transactor struct {
	db *DB
}

func NewTransactor(db *DB) *Transactor {
	return &Transactor{db: db}
}

func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "sqlite.Transactor.WithinTransaction"

	tx, err := t.db.db.BeginTx(ctx, nil)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return e.Wrap(op, err)
	}
	return nil
}

func txFromCtx(ctx context.Context) (*sql.Tx, error) {
	tx, ok := ctx.Value(txKey{}).(*sql.Tx)
	if !ok {
		return nil, e.ErrTransactionNotFound
	}
	return tx, nil
}
