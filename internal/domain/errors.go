package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound        = errors.New("recurso no encontrado")
	ErrInvalidInput    = errors.New("entrada inválida")
	ErrUnknownKit      = errors.New("kit desconocido")
	ErrStoreCorruption = errors.New("estado persistido inconsistente")
)

// ValidationError registro de entrada mal formado. Se recupera localmente en la ingesta.
type ValidationError struct {
	Kind   string // material, kit, kit_line, service o request
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: campo %s inválido (%q): %s", e.Kind, e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

// Is permite errors.Is(err, ErrInvalidInput).
func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// NewValidationError construye un ValidationError.
func NewValidationError(kind, field, value, reason string) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Value: value, Reason: reason}
}

// NotFoundError búsqueda sin resultado. No es una condición fatal.
type NotFoundError struct {
	Resource string
	Code     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s no encontrado", e.Resource, e.Code)
}

// Is permite errors.Is(err, ErrNotFound).
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// NewNotFoundError construye un NotFoundError.
func NewNotFoundError(resource, code string) *NotFoundError {
	return &NotFoundError{Resource: resource, Code: code}
}

// UnknownKitError la solicitud de costeo referencia kits que no existen. Falla la solicitud completa.
type UnknownKitError struct {
	Missing []string
}

func (e *UnknownKitError) Error() string {
	return fmt.Sprintf("kits desconocidos: %s", strings.Join(e.Missing, ", "))
}

// Is permite errors.Is(err, ErrUnknownKit).
func (e *UnknownKitError) Is(target error) bool { return target == ErrUnknownKit }

// StoreCorruptionError el estado persistido no pasa el chequeo de consistencia al cargar.
type StoreCorruptionError struct {
	Table  string
	Key    string
	Reason string
}

func (e *StoreCorruptionError) Error() string {
	return fmt.Sprintf("tabla %s, clave %s: %s", e.Table, e.Key, e.Reason)
}

// Is permite errors.Is(err, ErrStoreCorruption).
func (e *StoreCorruptionError) Is(target error) bool { return target == ErrStoreCorruption }
