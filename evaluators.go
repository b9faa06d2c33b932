package validator

import (
	"math"
	"math/big"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
	"github.com/CMSgov/price-transparency-guide-validator/kind"
)

func (vd *validator) evalRef() {
	s := vd.sch
	if err := vd.validateSelf(s.Ref, false); err != nil {
		vd.addErrorWith(&kind.Reference{Keyword: "$ref", URL: s.Ref.Location}, err)
	}
}

func (vd *validator) evalType() {
	for _, t := range vd.sch.Types {
		if hasType(vd.v, t) {
			return
		}
	}
	vd.addError(&kind.Type{Got: vd.v.Kind().String(), Want: vd.sch.Types})
}

func hasType(v jsonvalue.Value, t string) bool {
	switch t {
	case "integer":
		return v.IsInteger()
	default:
		return v.Kind().String() == t
	}
}

func (vd *validator) evalConst() {
	if !jsonvalue.Equal(vd.v, *vd.sch.Const) {
		vd.addError(&kind.Const{Got: vd.v, Want: *vd.sch.Const})
	}
}

func (vd *validator) evalEnum() {
	for _, item := range vd.sch.Enum {
		if jsonvalue.Equal(vd.v, item) {
			return
		}
	}
	vd.addError(&kind.Enum{Got: vd.v, Want: vd.sch.Enum})
}

func (vd *validator) evalFormat() {
	s := vd.sch
	if err := s.format.Validate(vd.v); err != nil {
		vd.addError(&kind.Format{Got: vd.v, Want: s.Format, Err: err})
	}
}

// --

func (vd *validator) evalNumber(kw keyword) {
	num, ok := vd.v.Rat()
	if !ok {
		return
	}
	s := vd.sch
	switch kw {
	case kwMinimum:
		if num.Cmp(s.Minimum) < 0 {
			vd.addError(&kind.Minimum{Got: num, Want: s.Minimum})
		}
	case kwMaximum:
		if num.Cmp(s.Maximum) > 0 {
			vd.addError(&kind.Maximum{Got: num, Want: s.Maximum})
		}
	case kwExclusiveMinimum:
		if num.Cmp(s.ExclusiveMinimum) <= 0 {
			vd.addError(&kind.ExclusiveMinimum{Got: num, Want: s.ExclusiveMinimum})
		}
	case kwExclusiveMaximum:
		if num.Cmp(s.ExclusiveMaximum) >= 0 {
			vd.addError(&kind.ExclusiveMaximum{Got: num, Want: s.ExclusiveMaximum})
		}
	case kwMultipleOf:
		if !isMultipleOf(num, s.MultipleOf) {
			vd.addError(&kind.MultipleOf{Got: num, Want: s.MultipleOf})
		}
	}
}

// multipleOfEpsilon is the tolerance of isMultipleOf, relative to the
// quotient. It is capped at multipleOfULPs units in the last place of the
// quotient, and quotients whose cap reaches multipleOfMaxTolerance are
// decided by the exact check alone.
const (
	multipleOfEpsilon      = 1e-12
	multipleOfULPs         = 4
	multipleOfMaxTolerance = 0.25
)

// isMultipleOf tells whether num/div is integral. The exact check decides
// for decimal literals; the tolerance accepts literals such as
// 0.30000000000000004 that carry binary floating point noise. A quotient
// that rounds to zero is never a multiple.
func isMultipleOf(num, div *big.Rat) bool {
	q := new(big.Rat).Quo(num, div)
	if q.IsInt() {
		return true
	}
	f, _ := q.Float64()
	r := math.Round(f)
	if r == 0 || math.IsInf(f, 0) {
		return false
	}
	abs := math.Abs(f)
	ulp := math.Nextafter(abs, math.Inf(1)) - abs
	tol := math.Min(multipleOfEpsilon*abs, multipleOfULPs*ulp)
	if tol >= multipleOfMaxTolerance {
		return false
	}
	rem, _ := new(big.Rat).Sub(q, new(big.Rat).SetFloat64(r)).Float64()
	return math.Abs(rem) <= tol
}

// --

func (vd *validator) evalString(kw keyword) {
	if vd.v.Kind() != jsonvalue.KindString {
		return
	}
	s, str := vd.sch, vd.v.Str()
	switch kw {
	case kwMinLength:
		if n := utf8.RuneCountInString(str); n < s.MinLength {
			vd.addError(&kind.MinLength{Got: n, Want: s.MinLength})
		}
	case kwMaxLength:
		if n := utf8.RuneCountInString(str); n > s.MaxLength {
			vd.addError(&kind.MaxLength{Got: n, Want: s.MaxLength})
		}
	case kwPattern:
		if !s.Pattern.MatchString(str) {
			vd.addError(&kind.Pattern{Got: str, Want: s.Pattern.String()})
		}
	}
}

// --

func (vd *validator) evalArraySize(kw keyword) {
	if vd.v.Kind() != jsonvalue.KindArray {
		return
	}
	s, n := vd.sch, vd.v.Len()
	switch kw {
	case kwMinItems:
		if n < s.MinItems {
			vd.addError(&kind.MinItems{Got: n, Want: s.MinItems})
		}
	case kwMaxItems:
		if n > s.MaxItems {
			vd.addError(&kind.MaxItems{Got: n, Want: s.MaxItems})
		}
	case kwUniqueItems:
		if i, j, ok := duplicates(vd.v.Items()); ok {
			vd.addError(&kind.UniqueItems{Duplicates: [2]int{i, j}})
		}
	}
}

// duplicates finds first pair of equal items.
func duplicates(items []jsonvalue.Value) (int, int, bool) {
	seen := make(map[string]int, len(items))
	for j, item := range items {
		key := canonicalKey(item)
		if i, ok := seen[key]; ok {
			return i, j, true
		}
		seen[key] = j
	}
	return 0, 0, false
}

// canonicalKey returns text that is same for values that are
// jsonvalue.Equal. Numbers are normalized, object members sorted.
func canonicalKey(v jsonvalue.Value) string {
	var sb strings.Builder
	writeCanonical(&sb, v)
	return sb.String()
}

func writeCanonical(sb *strings.Builder, v jsonvalue.Value) {
	switch v.Kind() {
	case jsonvalue.KindNumber:
		r, _ := v.Rat()
		sb.WriteString("n")
		sb.WriteString(r.RatString())
	case jsonvalue.KindArray:
		sb.WriteString("[")
		for i, item := range v.Items() {
			if i > 0 {
				sb.WriteByte(',')
			}
			writeCanonical(sb, item)
		}
		sb.WriteString("]")
	case jsonvalue.KindObject:
		members := append([]jsonvalue.Member(nil), v.Members()...)
		sort.Slice(members, func(i, j int) bool { return members[i].Key < members[j].Key })
		sb.WriteString("{")
		for i, m := range members {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strconv.Quote(m.Key))
			sb.WriteByte(':')
			writeCanonical(sb, m.Value)
		}
		sb.WriteString("}")
	default:
		sb.WriteString(v.String())
	}
}

func (vd *validator) evalItems() {
	if vd.v.Kind() != jsonvalue.KindArray {
		return
	}
	s, arr := vd.sch, vd.v.Items()

	var prefix []*Schema
	var rest *Schema
	restAllowed := true
	switch items := s.Items.(type) {
	case *Schema:
		rest = items
	case []*Schema:
		prefix = items
		switch additional := s.AdditionalItems.(type) {
		case bool:
			restAllowed = additional
		case *Schema:
			rest = additional
		}
	}
	if s.DraftVersion >= 2020 {
		prefix, rest = s.PrefixItems, s.Items2020
	}

	for i, item := range arr {
		var sch *Schema
		switch {
		case i < len(prefix):
			sch = prefix[i]
		case rest != nil:
			sch = rest
		case !restAllowed:
			vd.addError(&kind.AdditionalItems{Count: len(arr) - len(prefix)})
			return
		default:
			return
		}
		if err := vd.validateVal(sch, item, strconv.Itoa(i), false); err != nil {
			vd.addErr(err)
		}
		if vd.stop() {
			return
		}
	}
}

func (vd *validator) evalContains() {
	if vd.v.Kind() != jsonvalue.KindArray {
		return
	}
	s := vd.sch
	var matched []int
	for i, item := range vd.v.Items() {
		if err := vd.validateVal(s.Contains, item, strconv.Itoa(i), true); err == nil {
			matched = append(matched, i)
		}
		if vd.run.abort != nil {
			return
		}
	}
	if len(matched) < s.MinContains {
		if s.MinContains == 1 {
			vd.addError(&kind.Contains{})
		} else {
			vd.addError(&kind.MinContains{Got: matched, Want: s.MinContains})
		}
	}
	if s.MaxContains != -1 && len(matched) > s.MaxContains {
		vd.addError(&kind.MaxContains{Got: matched, Want: s.MaxContains})
	}
}

// --

func (vd *validator) evalObjectSize(kw keyword) {
	if vd.v.Kind() != jsonvalue.KindObject {
		return
	}
	s, obj := vd.sch, vd.v
	switch kw {
	case kwMinProperties:
		if n := obj.Len(); n < s.MinProperties {
			vd.addError(&kind.MinProperties{Got: n, Want: s.MinProperties})
		}
	case kwMaxProperties:
		if n := obj.Len(); n > s.MaxProperties {
			vd.addError(&kind.MaxProperties{Got: n, Want: s.MaxProperties})
		}
	case kwRequired:
		if missing := missingProps(obj, s.Required); len(missing) > 0 {
			vd.addError(&kind.Required{Missing: missing})
		}
	}
}

func missingProps(obj jsonvalue.Value, props []string) []string {
	var missing []string
	for _, p := range props {
		if !obj.Has(p) {
			missing = append(missing, p)
		}
	}
	return missing
}

func (vd *validator) evalProperties() {
	if vd.v.Kind() != jsonvalue.KindObject {
		return
	}
	s := vd.sch
	var additional []string
	for _, m := range vd.v.Members() {
		evaluated := false
		if sch, ok := s.Properties[m.Key]; ok {
			evaluated = true
			if err := vd.validateVal(sch, m.Value, m.Key, false); err != nil {
				vd.addErr(err)
			}
			if vd.stop() {
				return
			}
		}
		for _, pp := range s.PatternProperties {
			if !pp.Pattern.MatchString(m.Key) {
				continue
			}
			evaluated = true
			if err := vd.validateVal(pp.Schema, m.Value, m.Key, false); err != nil {
				vd.addErr(err)
			}
			if vd.stop() {
				return
			}
		}
		if evaluated {
			continue
		}
		switch ap := s.AdditionalProperties.(type) {
		case bool:
			if !ap {
				additional = append(additional, m.Key)
				if vd.failFast {
					vd.addError(&kind.AdditionalProperties{Properties: additional})
					return
				}
			}
		case *Schema:
			if err := vd.validateVal(ap, m.Value, m.Key, false); err != nil {
				vd.addErr(err)
			}
			if vd.stop() {
				return
			}
		}
	}
	if len(additional) > 0 {
		vd.addError(&kind.AdditionalProperties{Properties: additional})
	}
}

func (vd *validator) evalPropertyNames() {
	if vd.v.Kind() != jsonvalue.KindObject {
		return
	}
	s := vd.sch
	for _, key := range vd.v.Keys() {
		if err := vd.validateVal(s.PropertyNames, jsonvalue.NewString(key), key, false); err != nil {
			vd.addErrorWith(&kind.PropertyNames{Property: key}, err)
		}
		if vd.stop() {
			return
		}
	}
}

func (vd *validator) evalDependencies() {
	if vd.v.Kind() != jsonvalue.KindObject {
		return
	}
	s, obj := vd.sch, vd.v
	for _, d := range s.DependentRequired {
		if !obj.Has(d.Property) {
			continue
		}
		if missing := missingProps(obj, d.Required); len(missing) > 0 {
			vd.addError(&kind.DependentRequired{Keyword: d.Keyword, Prop: d.Property, Missing: missing})
			if vd.stop() {
				return
			}
		}
	}
	for _, d := range s.DependentSchemas {
		if !obj.Has(d.Property) {
			continue
		}
		if err := vd.validateSelf(d.Schema, false); err != nil {
			vd.addErr(err)
		}
		if vd.stop() {
			return
		}
	}
}

// --

func (vd *validator) evalNot() {
	if err := vd.validateSelf(vd.sch.Not, true); err == nil {
		vd.addError(&kind.Not{})
	}
}

func (vd *validator) evalAllOf() {
	for i, sch := range vd.sch.AllOf {
		if err := vd.validateSelf(sch, false); err != nil {
			vd.addErrorWith(&kind.AllOf{Subschema: i}, err)
		}
		if vd.stop() {
			return
		}
	}
}

func (vd *validator) evalAnyOf() {
	var causes []*ValidationError
	for _, sch := range vd.sch.AnyOf {
		err := vd.validateSelf(sch, false)
		if err == nil {
			return
		}
		if vd.run.abort != nil {
			return
		}
		causes = append(causes, err)
	}
	vd.addErrorWith(&kind.AnyOf{}, causes...)
}

func (vd *validator) evalOneOf() {
	var causes []*ValidationError
	matched := -1
	for i, sch := range vd.sch.OneOf {
		err := vd.validateSelf(sch, matched != -1)
		if vd.run.abort != nil {
			return
		}
		if err != nil {
			if matched == -1 {
				causes = append(causes, err)
			}
			continue
		}
		if matched != -1 {
			vd.addError(&kind.OneOf{Subschemas: []int{matched, i}})
			return
		}
		matched = i
	}
	if matched == -1 {
		vd.addErrorWith(&kind.OneOf{}, causes...)
	}
}

func (vd *validator) evalIf() {
	s := vd.sch
	if err := vd.validateSelf(s.If, true); err == nil {
		if s.Then != nil {
			if err := vd.validateSelf(s.Then, false); err != nil {
				vd.addErrorWith(&kind.Then{}, err)
			}
		}
	} else if s.Else != nil {
		if err := vd.validateSelf(s.Else, false); err != nil {
			vd.addErrorWith(&kind.Else{}, err)
		}
	}
}
