package token

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatUnits(t *testing.T) {
	half := new(big.Int).Div(ToWei(1), big.NewInt(2))

	cases := []struct {
		name   string
		amount *big.Int
		want   string
	}{
		{"zero", big.NewInt(0), "0 WORM"},
		{"nil", nil, "0 WORM"},
		{"whole", ToWei(1000000), "1,000,000 WORM"},
		{"fraction", new(big.Int).Add(ToWei(1000), half), "1,000.5 WORM"},
		{"one wei", big.NewInt(1), "0.000000000000000001 WORM"},
		{"negative", new(big.Int).Neg(ToWei(2)), "-2 WORM"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, FormatUnits(tc.amount, 18, "WORM"))
		})
	}
}

func TestTokenFormat(t *testing.T) {
	tok, err := NewWormies(tokenAddr, owner, ToWei(10), nil)
	require.NoError(t, err)
	assert.Equal(t, "10 WORM", tok.Format(tok.TotalSupply()))
}
