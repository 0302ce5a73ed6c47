package redshift

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgconn"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	sqlStateUniqueViolation = "23505"
	sqlStateUndefinedColumn = "42703"
)

// IsConnectionError reports whether the warehouse could not be reached at all,
// as opposed to rejecting a statement.
func IsConnectionError(err error) bool {
	if err == nil {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	return errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}

// IsLoadFormatError reports whether a COPY failed because the staged data does
// not match the declared columns or format. Redshift surfaces these as load
// errors pointing at stl_load_errors, or as undefined-column errors when the
// COPY column list names a column the table does not have.
func IsLoadFormatError(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == sqlStateUndefinedColumn {
		return true
	}

	message := err.Error()
	return strings.Contains(message, "stl_load_errors") || strings.Contains(message, "Load into table")
}

// IsConstraintViolation reports whether an insert hit a duplicate key.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}
