package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	cases := []struct {
		in    string
		cents int64
		ok    bool
	}{
		{"123.45", 12345, true},
		{"0.01", 1, true},
		{"1000", 100000, true},
		{"7.5", 750, true},
		{" 42.00 ", 4200, true},
		{"92233720368547757.07", 9223372036854775707, true},
		{"-1.00", 0, false},
		{"+1.00", 0, false},
		{"1.234", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{".50", 0, false},
		// A sign inside the fraction is malformed, not a smaller amount.
		{"1.-5", 0, false},
		{"1.+5", 0, false},
		{"100.-9", 0, false},
		{"1.5a", 0, false},
		// Values whose cents would exceed int64.
		{"92233720368547758", 0, false},
		{"99999999999999999999", 0, false},
	}

	for _, tc := range cases {
		m, err := Parse(tc.in)
		if !tc.ok {
			assert.ErrorIs(t, err, ErrInvalidAmount, "input %q", tc.in)
			continue
		}
		require.NoError(t, err, "input %q", tc.in)
		assert.Equal(t, tc.cents, m.Cents(), "input %q", tc.in)
	}
}

func TestFromCentsRejectsNegative(t *testing.T) {
	_, err := FromCents(-1)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestSubNeverGoesNegative(t *testing.T) {
	a := MustFromCents(500)
	b := MustFromCents(700)

	_, err := a.Sub(b)
	require.ErrorIs(t, err, ErrNegativeResult)

	got, err := b.Sub(a)
	require.NoError(t, err)
	assert.Equal(t, int64(200), got.Cents())
}

func TestAddAndComparisons(t *testing.T) {
	a := MustFromCents(150)
	b := MustFromCents(50)

	assert.Equal(t, int64(200), a.Add(b).Cents())
	assert.True(t, a.GreaterThan(b))
	assert.True(t, b.LessThan(a))
	assert.True(t, a.IsPositive())
	assert.True(t, MustFromCents(0).IsZero())
}

func TestString(t *testing.T) {
	assert.Equal(t, "1234.56", MustFromCents(123456).String())
	assert.Equal(t, "0.05", MustFromCents(5).String())
	assert.Equal(t, "10.00", MustFromCents(1000).String())
}
