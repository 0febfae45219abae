package accounts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaxCondition(t *testing.T) {
	cases := map[string]TaxCondition{
		"Responsable Inscripto": TaxRegistered,
		"ri":                    TaxRegistered,
		"MONOTRIBUTO social":    TaxMonotributo,
		" mo ":                  TaxMonotributo,
		"Exento":                TaxExempt,
		"EX":                    TaxExempt,
		"Consumidor Final":      TaxFinalConsumer,
		"":                      TaxFinalConsumer,
		"cualquier cosa":        TaxFinalConsumer,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTaxCondition(in), "input %q", in)
	}
}

func TestPasswordRoundTrip(t *testing.T) {
	var p password
	require.NoError(t, p.Set("s3cret"))
	assert.NoError(t, p.Compare("s3cret"))
	assert.Error(t, p.Compare("wrong"))
}
