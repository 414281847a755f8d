package category

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MktComponents splits the marketing forecast into its three channels.
type MktComponents struct {
	Trafego          Series `json:"trafego"`
	SocialMedia      Series `json:"socialMedia"`
	ProducaoConteudo Series `json:"producaoConteudo"`
}

// UnmarshalJSON requires all three channels to be present.
func (m *MktComponents) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding %s: %w", KeyMktComponents, err)
	}
	targets := map[string]*Series{
		"trafego":          &m.Trafego,
		"socialMedia":      &m.SocialMedia,
		"producaoConteudo": &m.ProducaoConteudo,
	}
	for key, dst := range targets {
		v, ok := raw[key]
		if !ok {
			return fmt.Errorf("%w: %s.%s", ErrMissingField, KeyMktComponents, key)
		}
		if err := dst.UnmarshalJSON(v); err != nil {
			return fmt.Errorf("%s.%s: %w", KeyMktComponents, key, err)
		}
	}
	return nil
}

// Growth holds the three growth-rate scenarios of the projection.
type Growth struct {
	Minimo decimal.Decimal `json:"minimo"`
	Medio  decimal.Decimal `json:"medio"`
	Maximo decimal.Decimal `json:"maximo"`
}

// MarshalJSON writes the scalars as numbers rather than quoted strings.
func (g Growth) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[string]json.Number{
		"minimo": json.Number(g.Minimo.String()),
		"medio":  json.Number(g.Medio.String()),
		"maximo": json.Number(g.Maximo.String()),
	})
}

// Document is one category's stored record.
type Document struct {
	Category      string
	Series        map[string]Series
	MktComponents *MktComponents
	Growth        *Growth
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Default returns the zero-filled shape of a category, stamped with now.
func Default(name string, now time.Time) (*Document, error) {
	d, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	return d.Default(now), nil
}

// Default returns the zero-filled shape of the described category.
func (d Descriptor) Default(now time.Time) *Document {
	now = now.UTC()
	doc := &Document{
		Category:  d.Name,
		Series:    make(map[string]Series, len(d.Fields)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, f := range d.Fields {
		doc.Series[f] = Series{}
	}
	if d.Composite {
		doc.MktComponents = &MktComponents{}
		doc.Growth = &Growth{}
	}
	return doc
}

// Clone returns a deep copy of the document.
func (doc *Document) Clone() *Document {
	out := *doc
	out.Series = make(map[string]Series, len(doc.Series))
	for k, v := range doc.Series {
		out.Series[k] = v
	}
	if doc.MktComponents != nil {
		mc := *doc.MktComponents
		out.MktComponents = &mc
	}
	if doc.Growth != nil {
		g := *doc.Growth
		out.Growth = &g
	}
	return &out
}

// Encode renders the document as pretty-printed JSON with sorted keys and a trailing newline.
func Encode(doc *Document) ([]byte, error) {
	fields := make(map[string]any, len(doc.Series)+4)
	for name, s := range doc.Series {
		fields[name] = s
	}
	if doc.MktComponents != nil {
		fields[KeyMktComponents] = doc.MktComponents
	}
	if doc.Growth != nil {
		fields[KeyGrowth] = doc.Growth
	}
	fields[KeyCreatedAt] = doc.CreatedAt.UTC().Format(time.RFC3339Nano)
	fields[KeyUpdatedAt] = doc.UpdatedAt.UTC().Format(time.RFC3339Nano)

	data, err := json.MarshalIndent(fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", doc.Category, err)
	}
	return append(data, '\n'), nil
}

// Decode parses stored content for the named category and checks it against the
// category's shape.
func Decode(name string, data []byte) (*Document, error) {
	d, ok := Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", name, err)
	}

	doc := &Document{Category: name, Series: make(map[string]Series, len(d.Fields))}
	for key, value := range raw {
		switch key {
		case KeyCreatedAt:
			t, err := parseTime(value)
			if err != nil {
				return nil, fmt.Errorf("decoding %s.%s: %w", name, key, err)
			}
			doc.CreatedAt = t
		case KeyUpdatedAt:
			t, err := parseTime(value)
			if err != nil {
				return nil, fmt.Errorf("decoding %s.%s: %w", name, key, err)
			}
			doc.UpdatedAt = t
		case KeyMktComponents:
			if !d.Composite {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, name, key)
			}
			var mc MktComponents
			if err := json.Unmarshal(value, &mc); err != nil {
				return nil, fmt.Errorf("decoding %s: %w", name, err)
			}
			doc.MktComponents = &mc
		case KeyGrowth:
			if !d.Composite {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, name, key)
			}
			var g Growth
			if err := json.Unmarshal(value, &g); err != nil {
				return nil, fmt.Errorf("decoding %s.%s: %w", name, key, err)
			}
			doc.Growth = &g
		default:
			if !d.HasField(key) {
				return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, name, key)
			}
			var s Series
			if err := json.Unmarshal(value, &s); err != nil {
				return nil, fmt.Errorf("decoding %s.%s: %w", name, key, err)
			}
			doc.Series[key] = s
		}
	}

	if err := doc.validate(d); err != nil {
		return nil, err
	}
	return doc, nil
}

func (doc *Document) validate(d Descriptor) error {
	for _, f := range d.Fields {
		if _, ok := doc.Series[f]; !ok {
			return fmt.Errorf("%w: %s.%s", ErrMissingField, d.Name, f)
		}
	}
	if d.Composite {
		if doc.MktComponents == nil {
			return fmt.Errorf("%w: %s.%s", ErrMissingField, d.Name, KeyMktComponents)
		}
		if doc.Growth == nil {
			return fmt.Errorf("%w: %s.%s", ErrMissingField, d.Name, KeyGrowth)
		}
	}
	if doc.CreatedAt.IsZero() {
		return fmt.Errorf("%w: %s.%s", ErrMissingField, d.Name, KeyCreatedAt)
	}
	if doc.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: %s.%s", ErrMissingField, d.Name, KeyUpdatedAt)
	}
	return nil
}

func parseTime(raw json.RawMessage) (time.Time, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
