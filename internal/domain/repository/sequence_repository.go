package repository

// SequenceRepository define el puerto del asignador de códigos legibles.
// La reserva es el único punto de generación de secuencias del sistema.
type SequenceRepository interface {
	// MaxSuffix devuelve el mayor sufijo numérico ya reservado bajo un
	// prefijo (0 si no hay ninguno).
	MaxSuffix(prefix string) (int, error)
	// Reserve intenta reservar un código; devuelve false si otro llamador
	// lo reservó primero (el asignador reintenta con el siguiente candidato).
	Reserve(code string) (bool, error)
}
