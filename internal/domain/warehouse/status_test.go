package warehouse_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Almacen-api/internal/domain/entity"
	"github.com/jhoicas/Almacen-api/internal/domain/warehouse"
)

func TestDeriveLocationStatus(t *testing.T) {
	tests := []struct {
		name     string
		total    string
		rule     string
		current  string
		expected string
	}{
		{"bloqueada se respeta aunque quede vacía", "0", entity.StorageRuleMulti, entity.LocationStatusBlocked, entity.LocationStatusBlocked},
		{"en conteo se respeta aunque tenga saldo", "50", entity.StorageRuleSingle, entity.LocationStatusCounting, entity.LocationStatusCounting},
		{"saldo cero libera", "0", entity.StorageRuleSingle, entity.LocationStatusOccupied, entity.LocationStatusFree},
		{"saldo negativo libera", "-3", entity.StorageRuleMulti, entity.LocationStatusAvailable, entity.LocationStatusFree},
		{"multi con saldo sigue disponible", "12.5", entity.StorageRuleMulti, entity.LocationStatusFree, entity.LocationStatusAvailable},
		{"single con saldo queda ocupada", "1", entity.StorageRuleSingle, entity.LocationStatusFree, entity.LocationStatusOccupied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := warehouse.DeriveLocationStatus(decimal.RequireFromString(tt.total), tt.rule, tt.current)
			assert.Equal(t, tt.expected, got)
		})
	}
}
