package gateway

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"syscall"

	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgconn"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

// Kind classifies a backend failure for the layers above the gateway.
type Kind string

const (
	KindNetwork      Kind = "network"
	KindUnauthorized Kind = "unauthorized"
	KindConstraint   Kind = "constraint"
	KindNotFound     Kind = "not_found"
	KindUnknown      Kind = "unknown"
)

// ErrInvalidCredentials is returned by an Authenticator when the email or
// password does not match.
var ErrInvalidCredentials = errors.New("Invalid email or password")

// Error is the typed failure returned by every Gateway operation.
type Error struct {
	Kind  Kind
	Op    string
	Table string
	Err   error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	target := e.Op
	if e.Table != "" {
		target = e.Op + " " + e.Table
	}
	if e.Err == nil {
		return fmt.Sprintf("gateway %s (%s)", target, e.Kind)
	}
	return fmt.Sprintf("gateway %s: %v (%s)", target, e.Err, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the kind carried by err, or KindUnknown for foreign errors.
// A nil error has no kind.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return gwErr.Kind
	}
	return KindUnknown
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

func wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	var gwErr *Error
	if errors.As(err, &gwErr) {
		return err
	}
	return &Error{Kind: classify(err), Op: op, Table: table, Err: err}
}

func classify(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return KindUnauthorized
	case errors.Is(err, gorm.ErrRecordNotFound),
		errors.Is(err, storage.ErrObjectNotExist),
		errors.Is(err, storage.ErrBucketNotExist):
		return KindNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey),
		errors.Is(err, gorm.ErrForeignKeyViolated),
		errors.Is(err, gorm.ErrCheckConstraintViolated):
		return KindConstraint
	case errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled),
		errors.Is(err, driver.ErrBadConn),
		errors.Is(err, syscall.ECONNREFUSED),
		errors.Is(err, syscall.ECONNRESET):
		return KindNetwork
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		code := strings.TrimSpace(pgErr.Code)
		switch {
		case strings.HasPrefix(code, "23"): // integrity_constraint_violation
			return KindConstraint
		case strings.HasPrefix(code, "28"), code == "42501": // invalid_authorization / insufficient_privilege
			return KindUnauthorized
		case strings.HasPrefix(code, "08"), code == "57P01": // connection_exception / admin_shutdown
			return KindNetwork
		}
		return KindUnknown
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return KindUnauthorized
		case http.StatusNotFound:
			return KindNotFound
		case http.StatusConflict, http.StatusPreconditionFailed:
			return KindConstraint
		case http.StatusRequestTimeout, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return KindNetwork
		}
		return KindUnknown
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindNetwork
	}
	return KindUnknown
}
