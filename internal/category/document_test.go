package category

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestDescriptors(t *testing.T) {
	names := Names()
	assert.Len(t, names, 13)

	seen := make(map[string]bool)
	for _, d := range All() {
		assert.False(t, seen[d.Name], "duplicate category %s", d.Name)
		seen[d.Name] = true
		assert.NotEmpty(t, d.Fields, "%s has no fields", d.Name)
	}

	p, ok := Lookup(Projection)
	require.True(t, ok)
	assert.True(t, p.Composite)
	assert.True(t, p.Derived)
	assert.Len(t, p.Fields, 9)

	assert.False(t, IsCategory("clients"))
	assert.False(t, IsCategory("projection-backup"))
	assert.True(t, IsCategory(FaturamentoTotal))
}

func TestDefault_AllSeriesZero(t *testing.T) {
	for _, d := range All() {
		doc := d.Default(testNow)
		assert.Equal(t, d.Name, doc.Category)
		assert.Len(t, doc.Series, len(d.Fields))
		for field, s := range doc.Series {
			assert.True(t, s.Total().IsZero(), "%s.%s should be zero", d.Name, field)
		}
		assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
		assert.Equal(t, d.Composite, doc.MktComponents != nil)
		assert.Equal(t, d.Composite, doc.Growth != nil)
	}
}

func TestDefault_UnknownCategory(t *testing.T) {
	_, err := Default("clients", testNow)
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestBudgetDefaultShape(t *testing.T) {
	doc, err := Default(Budget, testNow)
	require.NoError(t, err)

	data, err := Encode(doc)
	require.NoError(t, err)
	contents := string(data)

	for _, field := range []string{`"previsto"`, `"medio"`, `"maximo"`, `"createdAt"`, `"updatedAt"`} {
		assert.Contains(t, contents, field)
	}
	assert.NotContains(t, contents, KeyGrowth)
	assert.True(t, strings.HasSuffix(contents, "\n"))
}

func TestEncodeDecode(t *testing.T) {
	doc, err := Default(Projection, testNow)
	require.NoError(t, err)
	doc.Series[FieldMkt] = SeriesFromInts(10, 20, 30)
	doc.MktComponents.Trafego = SeriesFromInts(1)
	doc.Growth.Medio = decimal.RequireFromString("0.05")
	doc.UpdatedAt = testNow.Add(time.Hour + time.Nanosecond)

	data, err := Encode(doc)
	require.NoError(t, err)

	got, err := Decode(Projection, data)
	require.NoError(t, err)
	assert.True(t, got.Series[FieldMkt].Equal(doc.Series[FieldMkt]))
	assert.True(t, got.MktComponents.Trafego.Equal(doc.MktComponents.Trafego))
	assert.True(t, got.Growth.Medio.Equal(decimal.RequireFromString("0.05")))
	assert.True(t, got.CreatedAt.Equal(doc.CreatedAt))
	assert.True(t, got.UpdatedAt.Equal(doc.UpdatedAt))

	again, err := Encode(got)
	require.NoError(t, err)
	assert.True(t, bytes.Equal(data, again), "encoding must be deterministic")
}

func TestEncode_GrowthAsNumbers(t *testing.T) {
	doc, err := Default(Projection, testNow)
	require.NoError(t, err)
	doc.Growth.Maximo = decimal.RequireFromString("0.2")

	data, err := Encode(doc)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"maximo": 0.2`)
}

func TestDecode_Errors(t *testing.T) {
	valid, err := Default(Mkt, testNow)
	require.NoError(t, err)
	good, err := Encode(valid)
	require.NoError(t, err)

	tests := []struct {
		name    string
		doc     string
		data    string
		wantErr error
	}{
		{"unknown category", "clients", string(good), ErrUnknownCategory},
		{"short series", Mkt, strings.Replace(string(good), `"maximo": [`, `"maximo": [1,`, 1), ErrSeriesLength},
		{"missing series", Mkt, `{"previsto":[0,0,0,0,0,0,0,0,0,0,0,0],"medio":[0,0,0,0,0,0,0,0,0,0,0,0],"createdAt":"2025-03-01T12:00:00Z","updatedAt":"2025-03-01T12:00:00Z"}`, ErrMissingField},
		{"unknown series", Mkt, strings.Replace(string(good), `"medio"`, `"media"`, 1), ErrUnknownField},
		{"growth on plain category", Mkt, strings.Replace(string(good), `"createdAt"`, `"growth": {"minimo":0,"medio":0,"maximo":0}, "createdAt"`, 1), ErrUnknownField},
		{"missing timestamps", Mkt, `{"previsto":[0,0,0,0,0,0,0,0,0,0,0,0],"medio":[0,0,0,0,0,0,0,0,0,0,0,0],"maximo":[0,0,0,0,0,0,0,0,0,0,0,0]}`, ErrMissingField},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.doc, []byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestDecode_CorruptJSON(t *testing.T) {
	_, err := Decode(Budget, []byte("{not json"))
	require.Error(t, err)
}

func TestDecode_ProjectionRequiresComposite(t *testing.T) {
	doc, err := Default(Projection, testNow)
	require.NoError(t, err)
	doc.Growth = nil
	data, err := Encode(doc)
	require.NoError(t, err)

	_, err = Decode(Projection, data)
	assert.ErrorIs(t, err, ErrMissingField)
}

func TestClone_IsDeep(t *testing.T) {
	doc, err := Default(Projection, testNow)
	require.NoError(t, err)
	c := doc.Clone()
	c.Series[FieldMkt] = SeriesFromInts(1)
	c.Growth.Minimo = decimal.NewFromInt(1)
	c.MktComponents.SocialMedia = SeriesFromInts(2)

	assert.True(t, doc.Series[FieldMkt].Total().IsZero())
	assert.True(t, doc.Growth.Minimo.IsZero())
	assert.True(t, doc.MktComponents.SocialMedia.Total().IsZero())
}
