package repo

// Lookup carrega o resultado de uma busca que pode não encontrar nada.
// "Não encontrado" é um resultado esperado, não um erro.
type Lookup[T any] struct {
	value T
	found bool
}

// Found embrulha um valor encontrado.
func Found[T any](value T) Lookup[T] {
	return Lookup[T]{value: value, found: true}
}

// NotFound devolve o resultado vazio.
func NotFound[T any]() Lookup[T] {
	return Lookup[T]{}
}

// Get devolve o valor e se ele existe.
func (l Lookup[T]) Get() (T, bool) {
	return l.value, l.found
}

// Found informa se houve resultado.
func (l Lookup[T]) Found() bool {
	return l.found
}
