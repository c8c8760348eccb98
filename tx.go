package symbol

import "context"

// Tx is a transaction scope opened by DataContext.Begin.
type Tx struct {
	dc   *DataContext
	done bool
}

// Commit commits the transaction.
func (tx *Tx) Commit() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.dc.endTx(context.Background())
	return tx.dc.conn.Commit()
}

// Rollback aborts the transaction.
func (tx *Tx) Rollback() error {
	if tx.done {
		return ErrTxDone
	}
	tx.done = true
	defer tx.dc.endTx(context.Background())
	if err := tx.dc.conn.Rollback(); err != nil {
		return &RollbackError{Err: err}
	}
	return nil
}
