package repository

import (
	"errors"

	"github.com/lib/pq"

	"github.com/unclebandit/crowdfund-backend/internal/db"
)

const (
	pqForeignKeyViolation = "23503"
)

// querier lets the transactional helpers run against a *sql.Tx or *sql.DB.
type querier = db.Querier

func isPQCode(err error, code string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code
	}
	return false
}
