package category

import "errors"

// Category names, as used for document names in storage.
const (
	Projection       = "projection"
	FixedExpenses    = "fixedExpenses"
	VariableExpenses = "variableExpenses"
	Mkt              = "mkt"
	Budget           = "budget"
	Investments      = "investments"
	FaturamentoReurb = "faturamentoReurb"
	FaturamentoGeo   = "faturamentoGeo"
	FaturamentoPlan  = "faturamentoPlan"
	FaturamentoReg   = "faturamentoReg"
	FaturamentoNn    = "faturamentoNn"
	FaturamentoTotal = "faturamentoTotal"
	Resultado        = "resultado"
)

// Scenario series carried by most categories.
const (
	FieldPrevisto = "previsto"
	FieldMedio    = "medio"
	FieldMedia    = "media"
	FieldMaximo   = "maximo"
)

// Series carried by the projection document.
const (
	FieldDespesasFixas     = "despesasFixas"
	FieldDespesasVariaveis = "despesasVariaveis"
	FieldInvestimentos     = "investimentos"
	FieldMkt               = "mkt"
	FieldFaturamentoReurb  = "faturamentoReurb"
	FieldFaturamentoGeo    = "faturamentoGeo"
	FieldFaturamentoPlan   = "faturamentoPlan"
	FieldFaturamentoReg    = "faturamentoReg"
	FieldFaturamentoNn     = "faturamentoNn"
)

// Non-series keys of an encoded document.
const (
	KeyMktComponents = "mktComponents"
	KeyGrowth        = "growth"
	KeyCreatedAt     = "createdAt"
	KeyUpdatedAt     = "updatedAt"
)

var (
	// ErrUnknownCategory is returned for a name outside the thirteen categories.
	ErrUnknownCategory = errors.New("unknown category")
	// ErrUnknownField is returned when a document or patch names a field the category does not carry.
	ErrUnknownField = errors.New("unknown field")
	// ErrMissingField is returned when a stored document lacks a field its category requires.
	ErrMissingField = errors.New("missing field")
	// ErrDerivedField is returned when a patch targets a series only synchronization may write.
	ErrDerivedField = errors.New("derived field")
)

// Descriptor describes the shape of one category document.
type Descriptor struct {
	Name   string
	Fields []string
	// Composite documents also carry mktComponents and growth.
	Composite bool
	// Derived series are recomputed from other categories and never patched directly.
	Derived bool
}

var (
	expenseFields  = []string{FieldPrevisto, FieldMedia, FieldMaximo}
	scenarioFields = []string{FieldPrevisto, FieldMedio, FieldMaximo}
)

var descriptors = []Descriptor{
	{
		Name: Projection,
		Fields: []string{
			FieldDespesasFixas,
			FieldDespesasVariaveis,
			FieldInvestimentos,
			FieldMkt,
			FieldFaturamentoReurb,
			FieldFaturamentoGeo,
			FieldFaturamentoPlan,
			FieldFaturamentoReg,
			FieldFaturamentoNn,
		},
		Composite: true,
		Derived:   true,
	},
	{Name: FixedExpenses, Fields: expenseFields},
	{Name: VariableExpenses, Fields: expenseFields},
	{Name: Mkt, Fields: scenarioFields},
	{Name: Budget, Fields: scenarioFields},
	{Name: Investments, Fields: expenseFields},
	{Name: FaturamentoReurb, Fields: scenarioFields},
	{Name: FaturamentoGeo, Fields: scenarioFields},
	{Name: FaturamentoPlan, Fields: scenarioFields},
	{Name: FaturamentoReg, Fields: scenarioFields},
	{Name: FaturamentoNn, Fields: scenarioFields},
	{Name: FaturamentoTotal, Fields: scenarioFields},
	{Name: Resultado, Fields: scenarioFields},
}

var byName = func() map[string]Descriptor {
	m := make(map[string]Descriptor, len(descriptors))
	for _, d := range descriptors {
		m[d.Name] = d
	}
	return m
}()

// All returns every category descriptor in a stable order.
func All() []Descriptor {
	out := make([]Descriptor, len(descriptors))
	copy(out, descriptors)
	return out
}

// Names returns every category name in a stable order.
func Names() []string {
	names := make([]string, len(descriptors))
	for i, d := range descriptors {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the descriptor for a category name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := byName[name]
	return d, ok
}

// IsCategory reports whether name is one of the thirteen category documents.
func IsCategory(name string) bool {
	_, ok := byName[name]
	return ok
}

// HasField reports whether the category carries the named series.
func (d Descriptor) HasField(field string) bool {
	for _, f := range d.Fields {
		if f == field {
			return true
		}
	}
	return false
}
