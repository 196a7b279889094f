package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// pgCode devuelve el SQLSTATE del error, o "" si no viene del servidor.
func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUndefinedTable verifica si el error es una tabla inexistente (42P01): esquema sin migrar.
func isUndefinedTable(err error) bool {
	return pgCode(err) == "42P01"
}

// isIntegrityViolation verifica violaciones de unicidad (23505), foreign key (23503) o check (23514).
func isIntegrityViolation(err error) bool {
	switch pgCode(err) {
	case "23505", "23503", "23514":
		return true
	}
	return false
}
