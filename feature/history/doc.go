// Package history keeps a ledger of export runs in a SQL database through
// gorm: one row per run, one per unit and one per failed asset. The ledger is
// optional; callers log recording failures and carry on.
package history
