// Package store implements SQLite persistence for all PLOT entities. Stores
// share one *sql.DB; cross-row invariants (allocation aggregates, linked pot
// and repayment balances) are maintained inside transactions here.
package store

import "database/sql"

// querier is satisfied by both *sql.DB and *sql.Tx, letting helpers run
// either standalone or inside a caller's transaction.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}
