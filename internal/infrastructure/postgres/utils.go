package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/jhoicas/piano-stock-api/internal/domain"
)

const (
	codeUniqueViolation      = "23505"
	codeCheckViolation       = "23514"
	codeLockNotAvailable     = "55P03"
	codeDeadlockDetected     = "40P01"
	codeSerializationFailure = "40001"
)

// isUniqueViolation verifica si un error es una violación de constraint único (23505).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == codeUniqueViolation
	}
	return strings.Contains(err.Error(), codeUniqueViolation)
}

// isLockFailure lock_timeout vencido, deadlock o fallo de serialización.
func isLockFailure(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeLockNotAvailable, codeDeadlockDetected, codeSerializationFailure:
		return true
	}
	return false
}

// mapLockError traduce los fallos de bloqueo a domain.ErrConcurrencyTimeout (reintentable).
func mapLockError(err error) error {
	if err == nil || errors.Is(err, domain.ErrConcurrencyTimeout) || !isLockFailure(err) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrConcurrencyTimeout, err)
}

// constraintErrors restricciones CHECK que respaldan invariantes del dominio.
var constraintErrors = map[string]error{
	"stock_levels_reserved_le_on_hand":  domain.ErrInsufficientAvailableStock,
	"stock_levels_on_hand_check":        domain.ErrInsufficientStock,
	"stock_movements_stock_after_check": domain.ErrInsufficientStock,
}

// mapCheckViolation traduce una violación CHECK conocida a su error de dominio.
func mapCheckViolation(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != codeCheckViolation {
		return err
	}
	if target, ok := constraintErrors[pgErr.ConstraintName]; ok {
		return fmt.Errorf("%w: %v", target, err)
	}
	return err
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func stringOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// pageArgs normaliza limit/offset; limit <= 0 devuelve todo.
func pageArgs(limit, offset int) (any, int) {
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		return nil, offset
	}
	return limit, offset
}
