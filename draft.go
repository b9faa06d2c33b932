package validator

import (
	"strings"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// A Draft represents json-schema draft.
type Draft struct {
	version    int
	url        string
	id         string     // property name used to represent id
	subschemas Subschemas // locations of subschemas
}

var (
	self     = SchemaPath{}
	allProp  = SchemaPath{AllProp{}}
	allItem  = SchemaPath{AllItem{}}
	selfOnly = []SchemaPath{self}
)

var (
	Draft4 = &Draft{
		version: 4,
		url:     "http://json-schema.org/draft-04/schema",
		id:      "id",
		subschemas: Subschemas{
			// type agnostic
			"definitions": {allProp},
			"not":         selfOnly,
			"allOf":       {allItem},
			"anyOf":       {allItem},
			"oneOf":       {allItem},
			// object
			"properties":           {allProp},
			"additionalProperties": selfOnly,
			"patternProperties":    {allProp},
			// array
			"items":           {self, allItem},
			"additionalItems": selfOnly,
			"dependencies":    {allProp},
		},
	}

	Draft6 = &Draft{
		version: 6,
		url:     "http://json-schema.org/draft-06/schema",
		id:      "$id",
		subschemas: joinMaps(Draft4.subschemas, Subschemas{
			"propertyNames": selfOnly,
			"contains":      selfOnly,
		}),
	}

	Draft7 = &Draft{
		version: 7,
		url:     "http://json-schema.org/draft-07/schema",
		id:      "$id",
		subschemas: joinMaps(Draft6.subschemas, Subschemas{
			"if":   selfOnly,
			"then": selfOnly,
			"else": selfOnly,
		}),
	}

	Draft2019 = &Draft{
		version: 2019,
		url:     "https://json-schema.org/draft/2019-09/schema",
		id:      "$id",
		subschemas: joinMaps(Draft7.subschemas, Subschemas{
			"$defs":            {allProp},
			"dependentSchemas": {allProp},
		}),
	}

	Draft2020 = &Draft{
		version: 2020,
		url:     "https://json-schema.org/draft/2020-12/schema",
		id:      "$id",
		subschemas: joinMaps(Draft2019.subschemas, Subschemas{
			"prefixItems": {allItem},
			"items":       selfOnly,
		}),
	}

	draftLatest = Draft2020
)

// DraftFromVersion returns the draft for given version number:
// 4, 6, 7, 2019 or 2020. It returns nil for any other.
func DraftFromVersion(version int) *Draft {
	switch version {
	case 4:
		return Draft4
	case 6:
		return Draft6
	case 7:
		return Draft7
	case 2019:
		return Draft2019
	case 2020:
		return Draft2020
	default:
		return nil
	}
}

func draftFromURL(url string) *Draft {
	u, frag := split(url)
	if frag != "" {
		return nil
	}
	u, ok := strings.CutPrefix(u, "http://")
	if !ok {
		u, _ = strings.CutPrefix(u, "https://")
	}
	switch u {
	case "json-schema.org/schema":
		return draftLatest
	case "json-schema.org/draft/2020-12/schema":
		return Draft2020
	case "json-schema.org/draft/2019-09/schema":
		return Draft2019
	case "json-schema.org/draft-07/schema":
		return Draft7
	case "json-schema.org/draft-06/schema":
		return Draft6
	case "json-schema.org/draft-04/schema":
		return Draft4
	default:
		return nil
	}
}

// Version returns the draft number.
func (d *Draft) Version() int {
	return d.version
}

func (d *Draft) String() string {
	return d.url
}

func (d *Draft) getID(obj jsonvalue.Value) string {
	if d.version < 2019 && obj.Has("$ref") {
		// All other properties in a "$ref" object MUST be ignored
		return ""
	}
	id, ok := strVal(obj, d.id)
	if !ok {
		return ""
	}
	id, _ = split(id) // ignore fragment
	return id
}

func joinMaps(m1, m2 Subschemas) Subschemas {
	m := make(Subschemas)
	for k, v := range m1 {
		m[k] = v
	}
	for k, v := range m2 {
		m[k] = v
	}
	return m
}

func strVal(obj jsonvalue.Value, prop string) (string, bool) {
	v, ok := obj.Get(prop)
	if !ok || v.Kind() != jsonvalue.KindString {
		return "", false
	}
	return v.Str(), true
}
