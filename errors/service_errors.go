// errors/service_errors.go
package errors

import "errors"

var (
	ErrDatabaseOperation   = errors.New("database operation failed")
	ErrInternalServer      = errors.New("internal server error")
	ErrUnauthorized        = errors.New("unauthorized")
	ErrInvalidPagination   = errors.New("invalid pagination parameters")
	ErrInvalidAuditQuery   = errors.New("invalid audit query")
	ErrReconcileInProgress = errors.New("reconciliation already in progress")
)
