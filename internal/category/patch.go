package category

import (
	"encoding/json"
	"fmt"
)

// Patch is a partial document. Every field present replaces the stored field in full.
type Patch struct {
	Series        map[string]Series
	MktComponents *MktComponents
	Growth        *Growth
}

// IsEmpty reports whether the patch carries no fields.
func (p Patch) IsEmpty() bool {
	return len(p.Series) == 0 && p.MktComponents == nil && p.Growth == nil
}

// ParsePatch decodes caller input. Series are padded or truncated to 12 values;
// createdAt and updatedAt are ignored.
func ParsePatch(data []byte) (Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Patch{}, fmt.Errorf("decoding patch: %w", err)
	}

	p := Patch{Series: make(map[string]Series)}
	for key, value := range raw {
		switch key {
		case KeyCreatedAt, KeyUpdatedAt:
		case KeyMktComponents:
			mc, err := parseMktComponents(value)
			if err != nil {
				return Patch{}, err
			}
			p.MktComponents = mc
		case KeyGrowth:
			var g Growth
			if err := json.Unmarshal(value, &g); err != nil {
				return Patch{}, fmt.Errorf("decoding patch %s: %w", key, err)
			}
			p.Growth = &g
		default:
			s, err := parseSeriesLenient(value)
			if err != nil {
				return Patch{}, fmt.Errorf("patch field %s: %w", key, err)
			}
			p.Series[key] = s
		}
	}
	return p, nil
}

func parseMktComponents(data []byte) (*MktComponents, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding patch %s: %w", KeyMktComponents, err)
	}
	var mc MktComponents
	targets := map[string]*Series{
		"trafego":          &mc.Trafego,
		"socialMedia":      &mc.SocialMedia,
		"producaoConteudo": &mc.ProducaoConteudo,
	}
	for key, value := range raw {
		dst, ok := targets[key]
		if !ok {
			return nil, fmt.Errorf("%w: %s.%s", ErrUnknownField, KeyMktComponents, key)
		}
		s, err := parseSeriesLenient(value)
		if err != nil {
			return nil, fmt.Errorf("patch field %s.%s: %w", KeyMktComponents, key, err)
		}
		*dst = s
	}
	return &mc, nil
}

// Validate checks that the patch only names fields the category carries and
// that callers may write.
func (p Patch) Validate(d Descriptor) error {
	for field := range p.Series {
		if !d.HasField(field) {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, d.Name, field)
		}
		if d.Derived {
			return fmt.Errorf("%w: %s.%s", ErrDerivedField, d.Name, field)
		}
	}
	if !d.Composite {
		if p.MktComponents != nil {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, d.Name, KeyMktComponents)
		}
		if p.Growth != nil {
			return fmt.Errorf("%w: %s.%s", ErrUnknownField, d.Name, KeyGrowth)
		}
	}
	return nil
}

// Merge returns a copy of doc with every field present in p replacing the stored one.
// Timestamps are left for the caller to stamp.
func (doc *Document) Merge(p Patch) *Document {
	out := doc.Clone()
	for field, s := range p.Series {
		out.Series[field] = s
	}
	if p.MktComponents != nil {
		mc := *p.MktComponents
		out.MktComponents = &mc
	}
	if p.Growth != nil {
		g := *p.Growth
		out.Growth = &g
	}
	return out
}
