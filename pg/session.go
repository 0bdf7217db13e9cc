package pg

import (
	"context"

	"github.com/hashicorp/go-multierror"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

// Queryer is the slice of pgx shared by *pgxpool.Pool, *pgx.Conn and
// pgx.Tx that the session needs.
type Queryer interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// Session executes built selects over a pgx connection source.
type Session struct {
	db Queryer
}

func NewSession(db Queryer) *Session {
	return &Session{db: db}
}

// Select runs the query and invokes scan once per row. Row errors and a
// scan failure are reported together.
func (s *Session) Select(ctx context.Context, sel Select, scan func(rows pgx.Rows) error) error {
	rows, err := s.db.Query(ctx, sel.SQL, sel.Params...)
	if err != nil {
		return errors.Wrap(err, "execute select")
	}
	defer rows.Close()

	var scanErr error
	for rows.Next() {
		if scanErr = scan(rows); scanErr != nil {
			break
		}
	}
	rows.Close()

	if rowsErr := rows.Err(); rowsErr != nil {
		if scanErr != nil {
			return multierror.Append(scanErr, rowsErr)
		}
		return errors.Wrap(rowsErr, "read rows")
	}
	return scanErr
}
