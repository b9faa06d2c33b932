// Package jsonvalue is the in-memory document model used by the validator.
//
// A Value is an immutable tagged union of the six json types. Values are
// produced by Parse (or by the New* constructors for decoders of other
// formats) and never change afterwards, so a parsed document may be shared
// freely between goroutines.
package jsonvalue

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind tells the json type of a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindArray
	KindObject
)

// String returns the json-schema type name of k.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "boolean"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Value is a parsed json value.
//
// The zero Value is json null.
type Value struct {
	kind   Kind
	offset int
	b      bool
	s      string // string value, or literal text of number
	items  []Value
	obj    *object
}

// Member is a single name/value pair of a json object.
type Member struct {
	Key   string
	Value Value
}

type object struct {
	members []Member
	index   map[string]int // built only for larger objects
}

const indexThreshold = 8

func newObject(members []Member) (*object, string, bool) {
	o := &object{members: members}
	if len(members) > indexThreshold {
		o.index = make(map[string]int, len(members))
		for i, m := range members {
			if _, ok := o.index[m.Key]; ok {
				return nil, m.Key, false
			}
			o.index[m.Key] = i
		}
		return o, "", true
	}
	for i := 1; i < len(members); i++ {
		for j := 0; j < i; j++ {
			if members[i].Key == members[j].Key {
				return nil, members[i].Key, false
			}
		}
	}
	return o, "", true
}

func (o *object) get(key string) (Value, bool) {
	if o.index != nil {
		i, ok := o.index[key]
		if !ok {
			return Value{}, false
		}
		return o.members[i].Value, true
	}
	for _, m := range o.members {
		if m.Key == key {
			return m.Value, true
		}
	}
	return Value{}, false
}

// --

// NewNull returns json null.
func NewNull() Value {
	return Value{kind: KindNull}
}

// NewBool returns json true or false.
func NewBool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// NewString returns a json string.
func NewString(s string) Value {
	return Value{kind: KindString, s: s}
}

// NewNumber returns a json number whose literal text is lit.
// lit must follow the json number grammar.
func NewNumber(lit string) (Value, error) {
	if !validNumber(lit) {
		return Value{}, fmt.Errorf("jsonvalue: invalid number literal %q", lit)
	}
	return Value{kind: KindNumber, s: lit}, nil
}

// NewInt returns a json number for i.
func NewInt(i int64) Value {
	return Value{kind: KindNumber, s: strconv.FormatInt(i, 10)}
}

// NewArray returns a json array holding items.
// The slice is retained and must not be modified afterwards.
func NewArray(items []Value) Value {
	return Value{kind: KindArray, items: items}
}

// NewObject returns a json object holding members in the given order.
// Duplicate keys are rejected.
func NewObject(members []Member) (Value, error) {
	o, dup, ok := newObject(members)
	if !ok {
		return Value{}, fmt.Errorf("jsonvalue: duplicate key %q", dup)
	}
	return Value{kind: KindObject, obj: o}, nil
}

// --

func (v Value) Kind() Kind { return v.kind }

// Offset returns the byte offset in the parsed input where v starts.
// It is zero for values built with constructors.
func (v Value) Offset() int { return v.offset }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Bool returns the boolean value. It is false for non-boolean values.
func (v Value) Bool() bool { return v.kind == KindBool && v.b }

// Str returns the string value. It is empty for non-string values.
func (v Value) Str() string {
	if v.kind != KindString {
		return ""
	}
	return v.s
}

// Literal returns the literal text of a number.
func (v Value) Literal() string {
	if v.kind != KindNumber {
		return ""
	}
	return v.s
}

// Len returns number of items of an array, or members of an object.
func (v Value) Len() int {
	switch v.kind {
	case KindArray:
		return len(v.items)
	case KindObject:
		return len(v.obj.members)
	}
	return 0
}

// Items returns the items of an array. The returned slice must not be modified.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return v.items
}

// Index returns i-th item of an array.
func (v Value) Index(i int) Value {
	return v.items[i]
}

// Members returns the members of an object in document order.
// The returned slice must not be modified.
func (v Value) Members() []Member {
	if v.kind != KindObject {
		return nil
	}
	return v.obj.members
}

// Get returns the value of member key of an object.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindObject {
		return Value{}, false
	}
	return v.obj.get(key)
}

// Has tells whether object v has member key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Keys returns member names of an object in document order.
func (v Value) Keys() []string {
	members := v.Members()
	keys := make([]string, len(members))
	for i, m := range members {
		keys[i] = m.Key
	}
	return keys
}

// --

// exponents beyond this are approximated, to keep big.Rat allocations bounded.
const maxExactExponent = 400

// Rat returns the exact value of a number. ok is false for non-numbers.
func (v Value) Rat() (r *big.Rat, ok bool) {
	if v.kind != KindNumber {
		return nil, false
	}
	return ratFromLiteral(v.s), true
}

func ratFromLiteral(lit string) *big.Rat {
	if e := strings.IndexAny(lit, "eE"); e != -1 {
		exp, err := strconv.Atoi(lit[e+1:])
		if err != nil || exp > maxExactExponent || exp < -maxExactExponent {
			f, _ := strconv.ParseFloat(lit, 64)
			switch {
			case math.IsInf(f, 1):
				return new(big.Rat).SetFrac(new(big.Int).Exp(big.NewInt(10), big.NewInt(maxExactExponent), nil), big.NewInt(1))
			case math.IsInf(f, -1):
				return new(big.Rat).SetFrac(new(big.Int).Neg(new(big.Int).Exp(big.NewInt(10), big.NewInt(maxExactExponent), nil)), big.NewInt(1))
			}
			return new(big.Rat).SetFloat64(f)
		}
	}
	r, ok := new(big.Rat).SetString(lit)
	if !ok {
		f, _ := strconv.ParseFloat(lit, 64)
		return new(big.Rat).SetFloat64(f)
	}
	return r
}

// Float64 returns the number as float64, which may lose precision.
func (v Value) Float64() float64 {
	if v.kind != KindNumber {
		return 0
	}
	f, _ := strconv.ParseFloat(v.s, 64)
	return f
}

// IsInteger tells whether v is a number with zero fractional part.
// Both 1 and 1.0 are integers.
func (v Value) IsInteger() bool {
	if v.kind != KindNumber {
		return false
	}
	if !strings.ContainsAny(v.s, ".eE") {
		return true
	}
	return ratFromLiteral(v.s).IsInt()
}

// String returns compact json text of v.
func (v Value) String() string {
	return string(Marshal(v))
}

func validNumber(s string) bool {
	p := &parser{data: []byte(s)}
	if err := p.number(); err != nil {
		return false
	}
	return p.pos == len(s)
}
