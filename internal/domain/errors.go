package domain

import "errors"

// Errores de dominio (sin dependencias externas).
// Los handlers HTTP los mapean a códigos de estado; los casos de uso los
// envuelven con %w agregando contexto (código de lote, cantidades, etc.).
var (
	ErrNotFound             = errors.New("recurso no encontrado")
	ErrValidation           = errors.New("entrada inválida")
	ErrInsufficientQuantity = errors.New("cantidad insuficiente")
	ErrBatchLocked          = errors.New("batch bloqueado")
	ErrInvalidState         = errors.New("estado inválido")
	ErrAllocationExhausted  = errors.New("asignador de códigos agotado")
	ErrIntegrityViolation   = errors.New("violación de integridad")
	ErrEmailAlreadyExists   = errors.New("el email ya está registrado")
	ErrUnauthorized         = errors.New("no autorizado")
)
