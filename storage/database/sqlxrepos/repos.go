// Package sqlxrepos implements the repository interfaces over sqlx and
// PostgreSQL. Each repository holds a default executor and accepts an
// optional per-call executor, so services can run calls inside their own
// transactions.
package sqlxrepos

import (
	"database/sql"

	"github.com/pkg/errors"

	"github.com/umarmughal824/micromasters-sub002/core"
)

func getExec(dflt core.DBExecutor, svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 {
		return svcExec[0]
	}
	return dflt
}

// trapNoRowsErr maps psql "no rows" err to the domain notFound error.
func trapNoRowsErr(err, notFound error, msg string) error {
	if err == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}
