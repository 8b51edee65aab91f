package warehouse_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Almacen-api/internal/domain"
	"github.com/jhoicas/Almacen-api/internal/domain/warehouse"
)

func TestSessionRef_FormaLegadaConPrefijo(t *testing.T) {
	assert.Equal(t, "R123", warehouse.SessionRef{Kind: warehouse.SessionReceiving, ID: 123}.String())
	assert.Equal(t, "S45", warehouse.SessionRef{Kind: warehouse.SessionShipping, ID: 45}.String())
	// Clase desconocida degrada al id pelado en vez de inventar un prefijo.
	assert.Equal(t, "9", warehouse.SessionRef{Kind: "other", ID: 9}.String())
}

func TestParseSessionRef_IdaYVuelta(t *testing.T) {
	for _, ref := range []warehouse.SessionRef{
		{Kind: warehouse.SessionReceiving, ID: 1},
		{Kind: warehouse.SessionShipping, ID: 987654},
	} {
		parsed, err := warehouse.ParseSessionRef(ref.String())
		require.NoError(t, err)
		assert.Equal(t, ref, parsed)
	}
}

func TestParseSessionRef_EntradasInvalidas(t *testing.T) {
	for _, s := range []string{"", "R", "X5", "R0", "R-3", "Rabc", "123"} {
		_, err := warehouse.ParseSessionRef(s)
		assert.ErrorIs(t, err, domain.ErrInvalidInput, "entrada %q", s)
	}
}
