package category

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Months is the number of values in every Series.
const Months = 12

// ErrSeriesLength is returned when a stored series does not hold exactly Months values.
var ErrSeriesLength = errors.New("series must hold exactly 12 values")

// Series is a twelve-month sequence of amounts. Index 0 is January.
type Series [Months]decimal.Decimal

// NewSeries builds a Series from values, padding with zeros or truncating to 12.
func NewSeries(values ...decimal.Decimal) Series {
	var s Series
	copy(s[:], values)
	return s
}

// SeriesFromInts is a convenience for literal series in defaults and tests.
func SeriesFromInts(values ...int64) Series {
	var s Series
	for i := 0; i < len(values) && i < Months; i++ {
		s[i] = decimal.NewFromInt(values[i])
	}
	return s
}

// Equal reports whether both series hold the same amounts month by month.
func (s Series) Equal(other Series) bool {
	for i := range s {
		if !s[i].Equal(other[i]) {
			return false
		}
	}
	return true
}

// Total sums the twelve months.
func (s Series) Total() decimal.Decimal {
	total := decimal.Zero
	for _, v := range s {
		total = total.Add(v)
	}
	return total
}

// MarshalJSON encodes the series as a plain array of numbers.
func (s Series) MarshalJSON() ([]byte, error) {
	var b strings.Builder
	b.WriteByte('[')
	for i, v := range s {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.String())
	}
	b.WriteByte(']')
	return []byte(b.String()), nil
}

// UnmarshalJSON decodes a stored series. Anything other than 12 numbers is an error.
func (s *Series) UnmarshalJSON(data []byte) error {
	values, err := decodeValues(data)
	if err != nil {
		return err
	}
	if len(values) != Months {
		return fmt.Errorf("%w: got %d", ErrSeriesLength, len(values))
	}
	copy(s[:], values)
	return nil
}

// parseSeriesLenient decodes caller input, padding or truncating to 12 values.
func parseSeriesLenient(data []byte) (Series, error) {
	values, err := decodeValues(data)
	if err != nil {
		return Series{}, err
	}
	return NewSeries(values...), nil
}

func decodeValues(data []byte) ([]decimal.Decimal, error) {
	var values []decimal.Decimal
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decoding series: %w", err)
	}
	return values, nil
}
