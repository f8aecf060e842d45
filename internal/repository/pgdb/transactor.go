package pgdb

import (
	"context"

	"github.com/DRSN-tech/cartwhisper/pkg/e"
	"github.com/DRSN-tech/cartwhisper/pkg/tr"
	transaction "github.com/avito-tech/go-transaction-manager/drivers/pgxv5/v2"
	"github.com/jackc/pgx/v5"
)

// Transactor открывает транзакцию PostgreSQL и кладёт её в контекст для репозиториев.
type Transactor struct {
	db transaction.Transactional
}

func NewTransactor(db transaction.Transactional) *Transactor {
	return &Transactor{db: db}
}

// WithinTransaction выполняет fn в транзакции: коммит при успехе, откат при ошибке или панике.
func (t *Transactor) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	const op = "Transactor.WithinTransaction"

	ctx, tx, err := transaction.NewTransaction(ctx, pgx.TxOptions{}, t.db)
	if err != nil {
		return e.Wrap(op, err)
	}
	defer func() {
		if p := recover(); p != nil {
			if tx.IsActive() {
				_ = tx.Rollback(ctx)
			}
			panic(p)
		}
		if err != nil && tx.IsActive() {
			_ = tx.Rollback(ctx)
		}
	}()

	pgTx, ok := tx.Transaction().(pgx.Tx)
	if !ok {
		return e.Wrap(op, e.ErrTransactionNotFound)
	}

	if err = fn(tr.WithTx(ctx, pgTx)); err != nil {
		return err
	}

	if err = tx.Commit(ctx); err != nil {
		return e.Wrap(op, err)
	}

	return nil
}
