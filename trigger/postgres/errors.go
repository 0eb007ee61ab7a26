package postgres

import (
	"errors"

	"github.com/lib/pq" // also registers the PostgreSQL driver
)

const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
