package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
)

// MySQL server error numbers the repositories react to.
const (
	errDupEntry        = 1062
	errRowIsReferenced = 1451
	errTooManyConns    = 1040
	errLockWaitTimeout = 1205
	errDeadlock        = 1213
)

func mysqlErrNumber(err error) uint16 {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number
	}
	return 0
}

func isDuplicateKey(err error) bool { return mysqlErrNumber(err) == errDupEntry }

func isRowReferenced(err error) bool { return mysqlErrNumber(err) == errRowIsReferenced }

// IsTransient reports whether err is a storage failure that may succeed
// when retried: deadline expiry, broken connections, lock wait timeouts
// and deadlocks.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) ||
		errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, mysql.ErrInvalidConn) ||
		errors.Is(err, sql.ErrConnDone) {
		return true
	}
	switch mysqlErrNumber(err) {
	case errLockWaitTimeout, errDeadlock, errTooManyConns:
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}
