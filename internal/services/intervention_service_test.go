package services

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestBuildParts(t *testing.T) {
	service := &InterventionService{}

	parts, err := service.buildParts([]SparePartInput{
		{Name: "Ventilateur", UnitPrice: "24.90", Quantity: 2},
		{Name: "Vis", UnitPrice: "0.05"},
	}, 9)
	assert.NoError(t, err)

	if assert.Len(t, parts, 2) {
		assert.Equal(t, uint(9), parts[0].InterventionID)
		assert.True(t, parts[0].UnitPrice.Equal(decimal.RequireFromString("24.90")))
		// Quantity defaults to 1 when omitted
		assert.Equal(t, 1, parts[1].Quantity)
	}
}

func TestBuildParts_Invalid(t *testing.T) {
	service := &InterventionService{}

	_, err := service.buildParts([]SparePartInput{{Name: "", UnitPrice: "5.00"}}, 1)
	assert.True(t, IsValidation(err))

	_, err = service.buildParts([]SparePartInput{{Name: "Câble", UnitPrice: "cinq"}}, 1)
	assert.True(t, IsValidation(err))

	_, err = service.buildParts([]SparePartInput{{Name: "Câble", UnitPrice: "-1.00"}}, 1)
	assert.True(t, IsValidation(err))

	// A free part makes no sense on an invoice line, zero is rejected too.
	_, err = service.buildParts([]SparePartInput{{Name: "Câble", UnitPrice: "0"}}, 1)
	assert.True(t, IsValidation(err))

	_, err = service.buildParts([]SparePartInput{{Name: "Câble", UnitPrice: "0.00", Quantity: 3}}, 1)
	assert.True(t, IsValidation(err))

	_, err = service.buildParts([]SparePartInput{{Name: "Câble", UnitPrice: "1.00", Quantity: -2}}, 1)
	assert.True(t, IsValidation(err))
}
