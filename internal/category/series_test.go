package category

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeries_PadsAndTruncates(t *testing.T) {
	short := NewSeries(decimal.NewFromInt(5))
	assert.True(t, short[0].Equal(decimal.NewFromInt(5)))
	for i := 1; i < Months; i++ {
		assert.True(t, short[i].IsZero(), "month %d should be zero", i)
	}

	values := make([]decimal.Decimal, 15)
	for i := range values {
		values[i] = decimal.NewFromInt(int64(i + 1))
	}
	long := NewSeries(values...)
	assert.Len(t, long, Months)
	assert.True(t, long[11].Equal(decimal.NewFromInt(12)))
}

func TestSeries_MarshalAsNumbers(t *testing.T) {
	s := SeriesFromInts(100, 0, 3)
	s[3] = decimal.RequireFromString("12.5")

	data, err := json.Marshal(s)
	require.NoError(t, err)
	assert.Equal(t, "[100,0,3,12.5,0,0,0,0,0,0,0,0]", string(data))
}

func TestSeries_UnmarshalRejectsWrongLength(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"short", "[1,2,3]"},
		{"long", "[1,2,3,4,5,6,7,8,9,10,11,12,13]"},
		{"empty", "[]"},
		{"null", "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var s Series
			err := json.Unmarshal([]byte(tt.input), &s)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrSeriesLength)
		})
	}
}

func TestSeries_UnmarshalRejectsNonNumbers(t *testing.T) {
	var s Series
	err := json.Unmarshal([]byte(`{"a":1}`), &s)
	require.Error(t, err)
}

func TestSeries_EqualAndTotal(t *testing.T) {
	a := SeriesFromInts(1, 2, 3)
	b := NewSeries(decimal.RequireFromString("1.00"), decimal.NewFromInt(2), decimal.NewFromInt(3))
	assert.True(t, a.Equal(b))
	assert.True(t, a.Total().Equal(decimal.NewFromInt(6)))

	b[11] = decimal.NewFromInt(1)
	assert.False(t, a.Equal(b))
}

func TestParseSeriesLenient(t *testing.T) {
	s, err := parseSeriesLenient([]byte("[7]"))
	require.NoError(t, err)
	assert.True(t, s[0].Equal(decimal.NewFromInt(7)))
	assert.True(t, s[11].IsZero())
}
