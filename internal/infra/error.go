package infra

import (
	"context"
	"errors"
	"log/slog"
	"net"

	"groupbuy/internal/pkg/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type RepositoryErrorKind string

// Infrastructure-specific error kinds
const (
	KindNotFound           RepositoryErrorKind = "NOT_FOUND"
	KindDBFailure          RepositoryErrorKind = "DB_FAILURE"
	KindDuplicateKey       RepositoryErrorKind = "DUPLICATE_KEY"
	KindForeignKeyViolated RepositoryErrorKind = "FOREIGN_KEY_VIOLATED"
	KindConstraintViolated RepositoryErrorKind = "CONSTRAINT_VIOLATED"
	KindConflict           RepositoryErrorKind = "CONFLICT"
	KindUnavailable        RepositoryErrorKind = "UNAVAILABLE"
)

const (
	pgErrCodeUniqueViolation      = "23505"
	pgErrCodeForeignKeyViolation  = "23503"
	pgErrCodeCheckViolation       = "23514"
	pgErrCodeSerializationFailure = "40001"
	pgErrCodeDeadlockDetected     = "40P01"
	pgErrCodeLockNotAvailable     = "55P03"
	pgErrClassConnection          = "08"
)

type RepositoryError struct {
	kind RepositoryErrorKind
	msg  string
	err  error // wrapped low-level error
}

func (e RepositoryError) Error() string {
	if e.err != nil {
		return string(e.kind) + ": " + e.msg + ": " + e.err.Error()
	}
	return string(e.kind) + ": " + e.msg
}

func (e RepositoryError) Unwrap() error {
	return e.err
}

func (e RepositoryError) RepoKind() RepositoryErrorKind {
	return e.kind
}

// Kind maps the storage failure onto the caller-facing taxonomy.
func (e RepositoryError) Kind() errs.Kind {
	switch e.kind {
	case KindNotFound:
		return errs.KindNotFound
	case KindConflict, KindUnavailable:
		return errs.KindTransient
	case KindDuplicateKey, KindConstraintViolated:
		return errs.KindStateConflict
	case KindForeignKeyViolated:
		return errs.KindValidation
	default:
		return errs.KindInternal
	}
}

// RepositoryErrorOf builds an error for stores that have no driver error to wrap.
func RepositoryErrorOf(kind RepositoryErrorKind, msg string) error {
	return RepositoryError{kind: kind, msg: msg}
}

// WrapRepoErr classifies err from the driver unless kind is given explicitly.
func WrapRepoErr(msg string, err error, kind ...RepositoryErrorKind) error {
	k := Classify(err)
	if len(kind) > 0 {
		k = kind[0]
	}

	if k != KindNotFound {
		attrs := []any{slog.String("kind", string(k))}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
		}
		slog.Error("Repository error: "+msg, attrs...)
	}

	if err != nil {
		err = errs.Wrap(err, msg)
	}

	return RepositoryError{kind: k, msg: msg, err: err}
}

func Classify(err error) RepositoryErrorKind {
	if err == nil {
		return KindDBFailure
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return KindNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgErrCodeUniqueViolation:
			return KindDuplicateKey
		case pgErr.Code == pgErrCodeForeignKeyViolation:
			return KindForeignKeyViolated
		case pgErr.Code == pgErrCodeCheckViolation:
			return KindConstraintViolated
		case pgErr.Code == pgErrCodeSerializationFailure,
			pgErr.Code == pgErrCodeDeadlockDetected,
			pgErr.Code == pgErrCodeLockNotAvailable:
			return KindConflict
		case len(pgErr.Code) >= 2 && pgErr.Code[:2] == pgErrClassConnection:
			return KindUnavailable
		}
		return KindDBFailure
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) || errors.Is(err, context.DeadlineExceeded) {
		return KindUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return KindUnavailable
	}
	return KindDBFailure
}

func IsKind(err error, kind RepositoryErrorKind) bool {
	var e RepositoryError
	if errors.As(err, &e) {
		return e.kind == kind
	}
	return false
}
