package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tradingdesk/internal/reason"
)

func TestNormalizeSymbol(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"nlsy", "NLSY", true},
		{"  vcld ", "VCLD", true},
		{"", "", false},
		{"TOOLONGX", "", false},
		{"AB1", "", false},
	}
	for _, tc := range tests {
		got, err := NormalizeSymbol(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, reason.UnknownInstrument, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide(" BUY ")
	require.NoError(t, err)
	assert.Equal(t, Buy, side)

	side, err = ParseSide("sell")
	require.NoError(t, err)
	assert.Equal(t, Sell, side)

	_, err = ParseSide("short")
	assert.Error(t, err)
}

func TestDollars(t *testing.T) {
	assert.Equal(t, "$50,000", dollars(50000))
	assert.Equal(t, "$1,234.56", dollars(1234.56))
	assert.Equal(t, "+$12.5", signedDollars(12.5))
	assert.Equal(t, "-$980", signedDollars(-980))
}

func TestFeedKeepsNewest(t *testing.T) {
	f := NewFeed(3, "a", "b")
	f.Add("c")
	f.Add("d")
	assert.Equal(t, []string{"b", "c", "d"}, f.Items())

	items := f.Items()
	items[0] = "mutated"
	assert.Equal(t, "b", f.Items()[0])
}
