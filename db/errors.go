package db

import (
	"errors"

	"github.com/lib/pq"
)

// 23505: bookings hit it on the idempotency key, payments on the booking id.
const uniqueViolationCode pq.ErrorCode = "23505"

func isErrorUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolationCode
}
