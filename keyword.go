package validator

import "sort"

// keyword identifies an evaluator. Keywords that must be evaluated
// together, such as properties and additionalProperties, share one.
type keyword uint8

const (
	kwRef keyword = iota
	kwType
	kwConst
	kwEnum
	kwFormat
	kwMinimum
	kwMaximum
	kwExclusiveMinimum
	kwExclusiveMaximum
	kwMultipleOf
	kwMinLength
	kwMaxLength
	kwPattern
	kwMinItems
	kwMaxItems
	kwUniqueItems
	kwItems // items, additionalItems, prefixItems
	kwContains
	kwMinProperties
	kwMaxProperties
	kwRequired
	kwProperties // properties, patternProperties, additionalProperties
	kwPropertyNames
	kwDependencies // dependencies, dependentRequired, dependentSchemas
	kwNot
	kwAllOf
	kwAnyOf
	kwOneOf
	kwIf // if, then, else
)

var keywordNames = [...]string{
	kwRef:              "$ref",
	kwType:             "type",
	kwConst:            "const",
	kwEnum:             "enum",
	kwFormat:           "format",
	kwMinimum:          "minimum",
	kwMaximum:          "maximum",
	kwExclusiveMinimum: "exclusiveMinimum",
	kwExclusiveMaximum: "exclusiveMaximum",
	kwMultipleOf:       "multipleOf",
	kwMinLength:        "minLength",
	kwMaxLength:        "maxLength",
	kwPattern:          "pattern",
	kwMinItems:         "minItems",
	kwMaxItems:         "maxItems",
	kwUniqueItems:      "uniqueItems",
	kwItems:            "items",
	kwContains:         "contains",
	kwMinProperties:    "minProperties",
	kwMaxProperties:    "maxProperties",
	kwRequired:         "required",
	kwProperties:       "properties",
	kwPropertyNames:    "propertyNames",
	kwDependencies:     "dependencies",
	kwNot:              "not",
	kwAllOf:            "allOf",
	kwAnyOf:            "anyOf",
	kwOneOf:            "oneOf",
	kwIf:               "if",
}

func (kw keyword) String() string {
	if int(kw) < len(keywordNames) {
		return keywordNames[kw]
	}
	return "keyword(?)"
}

// eval runs the evaluator of kw against the current value.
func (vd *validator) eval(kw keyword) {
	switch kw {
	case kwRef:
		vd.evalRef()
	case kwType:
		vd.evalType()
	case kwConst:
		vd.evalConst()
	case kwEnum:
		vd.evalEnum()
	case kwFormat:
		vd.evalFormat()
	case kwMinimum, kwMaximum, kwExclusiveMinimum, kwExclusiveMaximum, kwMultipleOf:
		vd.evalNumber(kw)
	case kwMinLength, kwMaxLength, kwPattern:
		vd.evalString(kw)
	case kwMinItems, kwMaxItems, kwUniqueItems:
		vd.evalArraySize(kw)
	case kwItems:
		vd.evalItems()
	case kwContains:
		vd.evalContains()
	case kwMinProperties, kwMaxProperties, kwRequired:
		vd.evalObjectSize(kw)
	case kwProperties:
		vd.evalProperties()
	case kwPropertyNames:
		vd.evalPropertyNames()
	case kwDependencies:
		vd.evalDependencies()
	case kwNot:
		vd.evalNot()
	case kwAllOf:
		vd.evalAllOf()
	case kwAnyOf:
		vd.evalAnyOf()
	case kwOneOf:
		vd.evalOneOf()
	case kwIf:
		vd.evalIf()
	}
}

// keywordSet collects keywords of a schema during compilation.
type keywordSet []keyword

func (ks *keywordSet) add(kw keyword) {
	for _, k := range *ks {
		if k == kw {
			return
		}
	}
	*ks = append(*ks, kw)
}

func (ks keywordSet) sorted() []keyword {
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}
