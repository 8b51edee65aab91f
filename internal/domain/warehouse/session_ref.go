package warehouse

import (
	"fmt"
	"strconv"

	"github.com/jhoicas/Almacen-api/internal/domain"
)

// SessionKind clase de sesión de conferencia.
type SessionKind string

const (
	SessionReceiving SessionKind = "receiving"
	SessionShipping  SessionKind = "shipping"
)

// SessionRef identificador etiquetado de sesión. Reemplaza los ids con
// prefijo de letra ("R123" recepción, "S123" expedición) que históricamente
// viajaban como strings: el tipo lleva la clase, el string solo se usa en el
// borde de persistencia legada.
type SessionRef struct {
	Kind SessionKind
	ID   int64
}

// String forma legada con prefijo, usada como clave de correlación en los
// eventos de lectura.
func (r SessionRef) String() string {
	switch r.Kind {
	case SessionReceiving:
		return fmt.Sprintf("R%d", r.ID)
	case SessionShipping:
		return fmt.Sprintf("S%d", r.ID)
	}
	return strconv.FormatInt(r.ID, 10)
}

// ParseSessionRef interpreta la forma legada con prefijo.
func ParseSessionRef(s string) (SessionRef, error) {
	if len(s) < 2 {
		return SessionRef{}, domain.ErrInvalidInput
	}
	var kind SessionKind
	switch s[0] {
	case 'R':
		kind = SessionReceiving
	case 'S':
		kind = SessionShipping
	default:
		return SessionRef{}, domain.ErrInvalidInput
	}
	id, err := strconv.ParseInt(s[1:], 10, 64)
	if err != nil || id <= 0 {
		return SessionRef{}, domain.ErrInvalidInput
	}
	return SessionRef{Kind: kind, ID: id}, nil
}
