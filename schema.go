package validator

import (
	"math/big"
	"sort"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// A Schema represents compiled version of json-schema.
//
// Schemas form a graph: Ref and the applicator fields point to other
// nodes of the same Graph, possibly forming cycles.
type Schema struct {
	Location     string // absolute location
	DraftVersion int

	// Bool is non-nil for boolean schemas.
	Bool *bool

	// type agnostic validations
	Ref    *Schema
	Types  []string
	Const  *jsonvalue.Value
	Enum   []jsonvalue.Value
	Format string
	format *Format // nil unless format is asserted and known
	Not    *Schema
	AllOf  []*Schema
	AnyOf  []*Schema
	OneOf  []*Schema
	If     *Schema
	Then   *Schema
	Else   *Schema

	// object validations
	MinProperties        int // -1 if not specified.
	MaxProperties        int // -1 if not specified.
	Required             []string
	Properties           map[string]*Schema
	PatternProperties    []*PatternProperty // in schema order
	AdditionalProperties any                // nil or bool or *Schema.
	PropertyNames        *Schema
	DependentRequired    []*Dependency
	DependentSchemas     []*Dependency

	// array validations
	MinItems        int // -1 if not specified.
	MaxItems        int // -1 if not specified.
	UniqueItems     bool
	Items           any // nil or *Schema or []*Schema
	AdditionalItems any // nil or bool or *Schema.
	PrefixItems     []*Schema
	Items2020       *Schema // items keyword reintroduced in draft 2020-12
	Contains        *Schema
	MinContains     int // 1 if not specified
	MaxContains     int // -1 if not specified

	// string validations
	MinLength int // -1 if not specified.
	MaxLength int // -1 if not specified.
	Pattern   Regexp

	// number validators
	Minimum          *big.Rat
	ExclusiveMinimum *big.Rat
	Maximum          *big.Rat
	ExclusiveMaximum *big.Rat
	MultipleOf       *big.Rat

	// annotations
	Title       string
	Description string

	// keywords present, in evaluation order
	keywords []keyword
}

// PatternProperty is an entry of patternProperties.
type PatternProperty struct {
	Pattern Regexp
	Schema  *Schema
}

// Dependency is an entry of dependentRequired, dependentSchemas or
// dependencies. Exactly one of Required and Schema is set.
type Dependency struct {
	Keyword  string // keyword it came from
	Property string
	Required []string
	Schema   *Schema
}

func (s *Schema) String() string {
	return s.Location
}

func newSchema(up urlPtr) *Schema {
	// fill with default values
	return &Schema{
		Location:      up.String(),
		MinProperties: -1,
		MaxProperties: -1,
		MinItems:      -1,
		MaxItems:      -1,
		MinContains:   1,
		MaxContains:   -1,
		MinLength:     -1,
		MaxLength:     -1,
	}
}

// --

// Graph is the compiled form of a schema document together with every
// schema it reaches through references.
//
// A Graph is immutable once returned and safe for concurrent use.
type Graph struct {
	// Root is the schema that was compiled.
	Root *Schema

	nodes map[string]*Schema
}

// Lookup returns the compiled schema at absolute location loc,
// for example "file:///schemas/in-network.json#/definitions/rate".
func (g *Graph) Lookup(loc string) (*Schema, bool) {
	s, ok := g.nodes[loc]
	return s, ok
}

// Locations returns sorted locations of all schemas in g.
func (g *Graph) Locations() []string {
	locs := make([]string, 0, len(g.nodes))
	for loc := range g.nodes {
		locs = append(locs, loc)
	}
	sort.Strings(locs)
	return locs
}

// Len returns number of schemas in g.
func (g *Graph) Len() int {
	return len(g.nodes)
}
