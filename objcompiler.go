package validator

import (
	"fmt"
	"math/big"
	"strconv"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

type objCompiler struct {
	c   *Compiler
	q   *queue
	r   *root
	up  urlPtr
	obj jsonvalue.Value
	kws keywordSet
}

func (oc *objCompiler) compile(s *Schema) error {
	if err := oc.checkUnsupported(); err != nil {
		return err
	}

	if oc.hasVocab(2019) || !oc.obj.Has("$ref") {
		if err := oc.compileAll(s); err != nil {
			return err
		}
	}
	if err := oc.compileRef(s); err != nil {
		return err
	}
	s.keywords = oc.kws.sorted()
	return nil
}

// hasVocab tells whether draft of the document is at least version.
func (oc *objCompiler) hasVocab(version int) bool {
	return oc.r.draft.version >= version
}

func (oc *objCompiler) checkUnsupported() error {
	if !oc.hasVocab(2019) {
		return nil
	}
	for _, kw := range []string{"$recursiveRef", "$dynamicRef", "unevaluatedProperties", "unevaluatedItems"} {
		if oc.obj.Has(kw) {
			return &UnsupportedKeywordError{Keyword: kw, Location: oc.up.String()}
		}
	}
	return nil
}

func (oc *objCompiler) compileAll(s *Schema) error {
	steps := []func(*Schema) error{
		oc.compileAnnotations,
		oc.compileTypeAgnostic,
		oc.compileNumber,
		oc.compileString,
		oc.compileArray,
		oc.compileObject,
		oc.compileComposition,
	}
	for _, step := range steps {
		if err := step(s); err != nil {
			return err
		}
	}
	return nil
}

func (oc *objCompiler) compileRef(s *Schema) error {
	v, ok := oc.obj.Get("$ref")
	if !ok {
		return nil
	}
	if v.Kind() != jsonvalue.KindString {
		return oc.malformed("$ref", "must be string")
	}
	ref := v.Str()
	base := oc.r.baseURL(oc.up.ptr)
	uf, err := base.join(ref)
	if err != nil {
		return &UnresolvedReferenceError{Ref: ref, Location: oc.up.String(), Err: err}
	}
	up, err := oc.c.roots.resolve(*uf, oc.r)
	if err != nil {
		return &UnresolvedReferenceError{Ref: ref, Location: oc.up.String(), Err: err}
	}
	s.Ref = oc.c.enqueue(oc.q, up)
	oc.kws.add(kwRef)
	return nil
}

func (oc *objCompiler) compileAnnotations(s *Schema) error {
	s.Title, _ = strVal(oc.obj, "title")
	s.Description, _ = strVal(oc.obj, "description")
	return nil
}

func (oc *objCompiler) compileTypeAgnostic(s *Schema) error {
	if v, ok := oc.obj.Get("type"); ok {
		switch v.Kind() {
		case jsonvalue.KindString:
			s.Types = []string{v.Str()}
		case jsonvalue.KindArray:
			for _, item := range v.Items() {
				if item.Kind() != jsonvalue.KindString {
					return oc.malformed("type", "items must be strings")
				}
				s.Types = append(s.Types, item.Str())
			}
			if len(s.Types) == 0 {
				return oc.malformed("type", "must not be empty")
			}
		default:
			return oc.malformed("type", "must be string or array")
		}
		for _, t := range s.Types {
			switch t {
			case "null", "boolean", "object", "array", "number", "string", "integer":
			default:
				return oc.malformed("type", fmt.Sprintf("unknown type %q", t))
			}
		}
		oc.kws.add(kwType)
	}

	if v, ok := oc.obj.Get("enum"); ok {
		if v.Kind() != jsonvalue.KindArray {
			return oc.malformed("enum", "must be array")
		}
		s.Enum = v.Items()
		oc.kws.add(kwEnum)
	}

	if oc.hasVocab(6) {
		if v, ok := oc.obj.Get("const"); ok {
			s.Const = &v
			oc.kws.add(kwConst)
		}
	}

	if v, ok := oc.obj.Get("format"); ok {
		if v.Kind() != jsonvalue.KindString {
			return oc.malformed("format", "must be string")
		}
		s.Format = v.Str()
		if oc.c.assertFormat {
			if s.format = oc.c.lookupFormat(s.Format); s.format != nil {
				oc.kws.add(kwFormat)
			}
		}
	}
	return nil
}

func (oc *objCompiler) compileNumber(s *Schema) error {
	var err error
	if s.Minimum, err = oc.number("minimum"); err != nil {
		return err
	}
	if s.Maximum, err = oc.number("maximum"); err != nil {
		return err
	}
	if oc.hasVocab(6) {
		if s.ExclusiveMinimum, err = oc.number("exclusiveMinimum"); err != nil {
			return err
		}
		if s.ExclusiveMaximum, err = oc.number("exclusiveMaximum"); err != nil {
			return err
		}
	} else {
		// draft4: exclusiveMinimum/exclusiveMaximum modify minimum/maximum
		exclusive := func(kw string) (bool, error) {
			v, ok := oc.obj.Get(kw)
			if !ok {
				return false, nil
			}
			if v.Kind() != jsonvalue.KindBool {
				return false, oc.malformed(kw, "must be boolean")
			}
			return v.Bool(), nil
		}
		if ex, err := exclusive("exclusiveMinimum"); err != nil {
			return err
		} else if ex && s.Minimum != nil {
			s.ExclusiveMinimum, s.Minimum = s.Minimum, nil
		}
		if ex, err := exclusive("exclusiveMaximum"); err != nil {
			return err
		} else if ex && s.Maximum != nil {
			s.ExclusiveMaximum, s.Maximum = s.Maximum, nil
		}
	}
	if s.MultipleOf, err = oc.number("multipleOf"); err != nil {
		return err
	}
	if s.MultipleOf != nil && s.MultipleOf.Sign() <= 0 {
		return oc.malformed("multipleOf", "must be greater than 0")
	}

	for _, n := range []struct {
		r  *big.Rat
		kw keyword
	}{
		{s.Minimum, kwMinimum},
		{s.Maximum, kwMaximum},
		{s.ExclusiveMinimum, kwExclusiveMinimum},
		{s.ExclusiveMaximum, kwExclusiveMaximum},
		{s.MultipleOf, kwMultipleOf},
	} {
		if n.r != nil {
			oc.kws.add(n.kw)
		}
	}
	return nil
}

func (oc *objCompiler) compileString(s *Schema) error {
	var err error
	if s.MinLength, err = oc.nonNegInt("minLength", kwMinLength); err != nil {
		return err
	}
	if s.MaxLength, err = oc.nonNegInt("maxLength", kwMaxLength); err != nil {
		return err
	}
	if v, ok := oc.obj.Get("pattern"); ok {
		if v.Kind() != jsonvalue.KindString {
			return oc.malformed("pattern", "must be string")
		}
		re, err := oc.c.regexpEngine(v.Str())
		if err != nil {
			return oc.malformed("pattern", err.Error())
		}
		s.Pattern = re
		oc.kws.add(kwPattern)
	}
	return nil
}

func (oc *objCompiler) compileArray(s *Schema) error {
	var err error
	if s.MinItems, err = oc.nonNegInt("minItems", kwMinItems); err != nil {
		return err
	}
	if s.MaxItems, err = oc.nonNegInt("maxItems", kwMaxItems); err != nil {
		return err
	}
	if s.UniqueItems, err = oc.boolean("uniqueItems"); err != nil {
		return err
	}
	if s.UniqueItems {
		oc.kws.add(kwUniqueItems)
	}

	if oc.hasVocab(2020) {
		if s.PrefixItems, err = oc.schemas("prefixItems"); err != nil {
			return err
		}
		if s.Items2020, err = oc.schema("items"); err != nil {
			return err
		}
		if s.PrefixItems != nil || s.Items2020 != nil {
			oc.kws.add(kwItems)
		}
	} else if v, ok := oc.obj.Get("items"); ok {
		if v.Kind() == jsonvalue.KindArray {
			items, err := oc.schemas("items")
			if err != nil {
				return err
			}
			s.Items = items
			if s.AdditionalItems, err = oc.boolOrSchema("additionalItems"); err != nil {
				return err
			}
		} else {
			if s.Items, err = oc.schema("items"); err != nil {
				return err
			}
		}
		oc.kws.add(kwItems)
	}

	if oc.hasVocab(6) {
		if s.Contains, err = oc.schema("contains"); err != nil {
			return err
		}
		if s.Contains != nil {
			oc.kws.add(kwContains)
		}
	}
	if oc.hasVocab(2019) && s.Contains != nil {
		if min, err := oc.nonNegInt("minContains", kwContains); err != nil {
			return err
		} else if min != -1 {
			s.MinContains = min
		}
		if s.MaxContains, err = oc.nonNegInt("maxContains", kwContains); err != nil {
			return err
		}
	}
	return nil
}

func (oc *objCompiler) compileObject(s *Schema) error {
	var err error
	if s.MinProperties, err = oc.nonNegInt("minProperties", kwMinProperties); err != nil {
		return err
	}
	if s.MaxProperties, err = oc.nonNegInt("maxProperties", kwMaxProperties); err != nil {
		return err
	}
	if v, ok := oc.obj.Get("required"); ok {
		if s.Required, err = oc.stringArray("required", v); err != nil {
			return err
		}
		if len(s.Required) > 0 {
			oc.kws.add(kwRequired)
		}
	}

	if v, ok := oc.obj.Get("properties"); ok {
		if v.Kind() != jsonvalue.KindObject {
			return oc.malformed("properties", "must be object")
		}
		s.Properties = make(map[string]*Schema, v.Len())
		for _, m := range v.Members() {
			s.Properties[m.Key] = oc.enqueue(oc.up.append2("properties", m.Key))
		}
		oc.kws.add(kwProperties)
	}
	if v, ok := oc.obj.Get("patternProperties"); ok {
		if v.Kind() != jsonvalue.KindObject {
			return oc.malformed("patternProperties", "must be object")
		}
		for _, m := range v.Members() {
			re, err := oc.c.regexpEngine(m.Key)
			if err != nil {
				return oc.malformed("patternProperties", err.Error())
			}
			s.PatternProperties = append(s.PatternProperties, &PatternProperty{
				Pattern: re,
				Schema:  oc.enqueue(oc.up.append2("patternProperties", m.Key)),
			})
		}
		oc.kws.add(kwProperties)
	}
	if s.AdditionalProperties, err = oc.boolOrSchema("additionalProperties"); err != nil {
		return err
	}
	if s.AdditionalProperties != nil {
		oc.kws.add(kwProperties)
	}

	if oc.hasVocab(6) {
		if s.PropertyNames, err = oc.schema("propertyNames"); err != nil {
			return err
		}
		if s.PropertyNames != nil {
			oc.kws.add(kwPropertyNames)
		}
	}

	if v, ok := oc.obj.Get("dependencies"); ok {
		if v.Kind() != jsonvalue.KindObject {
			return oc.malformed("dependencies", "must be object")
		}
		for _, m := range v.Members() {
			d := &Dependency{Keyword: "dependencies", Property: m.Key}
			switch m.Value.Kind() {
			case jsonvalue.KindArray:
				if d.Required, err = oc.stringArray("dependencies", m.Value); err != nil {
					return err
				}
				s.DependentRequired = append(s.DependentRequired, d)
			default:
				d.Schema = oc.enqueue(oc.up.append2("dependencies", m.Key))
				s.DependentSchemas = append(s.DependentSchemas, d)
			}
		}
	}
	if oc.hasVocab(2019) {
		if v, ok := oc.obj.Get("dependentRequired"); ok {
			if v.Kind() != jsonvalue.KindObject {
				return oc.malformed("dependentRequired", "must be object")
			}
			for _, m := range v.Members() {
				req, err := oc.stringArray("dependentRequired", m.Value)
				if err != nil {
					return err
				}
				s.DependentRequired = append(s.DependentRequired, &Dependency{
					Keyword: "dependentRequired", Property: m.Key, Required: req,
				})
			}
		}
		if v, ok := oc.obj.Get("dependentSchemas"); ok {
			if v.Kind() != jsonvalue.KindObject {
				return oc.malformed("dependentSchemas", "must be object")
			}
			for _, m := range v.Members() {
				s.DependentSchemas = append(s.DependentSchemas, &Dependency{
					Keyword:  "dependentSchemas",
					Property: m.Key,
					Schema:   oc.enqueue(oc.up.append2("dependentSchemas", m.Key)),
				})
			}
		}
	}
	if len(s.DependentRequired) > 0 || len(s.DependentSchemas) > 0 {
		oc.kws.add(kwDependencies)
	}
	return nil
}

func (oc *objCompiler) compileComposition(s *Schema) error {
	var err error
	if s.Not, err = oc.schema("not"); err != nil {
		return err
	}
	if s.Not != nil {
		oc.kws.add(kwNot)
	}
	if s.AllOf, err = oc.schemas("allOf"); err != nil {
		return err
	}
	if s.AllOf != nil {
		oc.kws.add(kwAllOf)
	}
	if s.AnyOf, err = oc.schemas("anyOf"); err != nil {
		return err
	}
	if s.AnyOf != nil {
		oc.kws.add(kwAnyOf)
	}
	if s.OneOf, err = oc.schemas("oneOf"); err != nil {
		return err
	}
	if s.OneOf != nil {
		oc.kws.add(kwOneOf)
	}

	if oc.hasVocab(7) {
		if s.If, err = oc.schema("if"); err != nil {
			return err
		}
		if s.If != nil {
			if s.Then, err = oc.schema("then"); err != nil {
				return err
			}
			if s.Else, err = oc.schema("else"); err != nil {
				return err
			}
			oc.kws.add(kwIf)
		}
	}
	return nil
}

// --

func (oc *objCompiler) enqueue(up urlPtr) *Schema {
	return oc.c.enqueue(oc.q, up)
}

func (oc *objCompiler) malformed(kw, reason string) error {
	return &MalformedKeywordError{Keyword: kw, Location: oc.up.String(), Reason: reason}
}

func (oc *objCompiler) schema(kw string) (*Schema, error) {
	v, ok := oc.obj.Get(kw)
	if !ok {
		return nil, nil
	}
	if k := v.Kind(); k != jsonvalue.KindObject && k != jsonvalue.KindBool {
		return nil, oc.malformed(kw, "must be object or boolean")
	}
	return oc.enqueue(oc.up.append(kw)), nil
}

func (oc *objCompiler) schemas(kw string) ([]*Schema, error) {
	v, ok := oc.obj.Get(kw)
	if !ok {
		return nil, nil
	}
	if v.Kind() != jsonvalue.KindArray || v.Len() == 0 {
		return nil, oc.malformed(kw, "must be non-empty array")
	}
	arr := make([]*Schema, 0, v.Len())
	for i := range v.Items() {
		arr = append(arr, oc.enqueue(oc.up.append2(kw, strconv.Itoa(i))))
	}
	return arr, nil
}

func (oc *objCompiler) boolOrSchema(kw string) (any, error) {
	v, ok := oc.obj.Get(kw)
	if !ok {
		return nil, nil
	}
	switch v.Kind() {
	case jsonvalue.KindBool:
		return v.Bool(), nil
	case jsonvalue.KindObject:
		return oc.enqueue(oc.up.append(kw)), nil
	}
	return nil, oc.malformed(kw, "must be object or boolean")
}

func (oc *objCompiler) boolean(kw string) (bool, error) {
	v, ok := oc.obj.Get(kw)
	if !ok {
		return false, nil
	}
	if v.Kind() != jsonvalue.KindBool {
		return false, oc.malformed(kw, "must be boolean")
	}
	return v.Bool(), nil
}

// nonNegInt returns -1 when kw is absent, and records evaluator kwd
// when present.
func (oc *objCompiler) nonNegInt(kw string, kwd keyword) (int, error) {
	v, ok := oc.obj.Get(kw)
	if !ok {
		return -1, nil
	}
	if v.Kind() != jsonvalue.KindNumber || !v.IsInteger() {
		return 0, oc.malformed(kw, "must be non-negative integer")
	}
	r, _ := v.Rat()
	if r.Sign() < 0 {
		return 0, oc.malformed(kw, "must be non-negative integer")
	}
	oc.kws.add(kwd)
	if !r.Num().IsInt64() || r.Num().Int64() > int64(maxInt) {
		return maxInt, nil
	}
	return int(r.Num().Int64()), nil
}

const maxInt = int(^uint(0) >> 1)

func (oc *objCompiler) number(kw string) (*big.Rat, error) {
	v, ok := oc.obj.Get(kw)
	if !ok {
		return nil, nil
	}
	r, ok := v.Rat()
	if !ok {
		return nil, oc.malformed(kw, "must be number")
	}
	return r, nil
}

func (oc *objCompiler) stringArray(kw string, v jsonvalue.Value) ([]string, error) {
	if v.Kind() != jsonvalue.KindArray {
		return nil, oc.malformed(kw, "must be array of strings")
	}
	arr := make([]string, 0, v.Len())
	for _, item := range v.Items() {
		if item.Kind() != jsonvalue.KindString {
			return nil, oc.malformed(kw, "must be array of strings")
		}
		arr = append(arr, item.Str())
	}
	return arr, nil
}
