// Package ledger keeps an audit trail of conversion runs in SQLite.
//
// Each run gets a row with its inputs, timing, final status and counts, and
// every subject processed during the run gets a row with its outcome. The
// ledger is history only: sequential numbers are always assigned from 1 by
// the pipeline and are never derived from earlier runs.
package ledger
