package money_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/AgroDiligencia-api/pkg/money"
)

func TestFormatBRL_SeparadoresPtBR(t *testing.T) {
	assert.Equal(t, "R$ 1.234,56", money.FormatBRL(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "R$ 300.000,00", money.FormatBRL(decimal.NewFromInt(300000)))
	assert.Equal(t, "R$ 0,00", money.FormatBRL(decimal.Zero))
}

func TestFormatPercent(t *testing.T) {
	assert.Equal(t, "58%", money.FormatPercent(58))
}
