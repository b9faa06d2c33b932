package validator

import "github.com/CMSgov/price-transparency-guide-validator/jsonvalue"

// MakeStrict returns a copy of doc in which the root schema and every
// schema directly under "definitions" or "$defs" forbid properties they
// do not declare. Only schemas with "properties" are changed, and those
// that already constrain additionalProperties with a schema or false are
// left alone. doc is not modified.
func MakeStrict(doc jsonvalue.Value) jsonvalue.Value {
	if doc.Kind() != jsonvalue.KindObject {
		return doc
	}
	members := make([]jsonvalue.Member, 0, doc.Len()+1)
	for _, m := range doc.Members() {
		if m.Key == "definitions" || m.Key == "$defs" {
			m.Value = strictDefs(m.Value)
		}
		members = append(members, m)
	}
	if !doc.Has("properties") {
		v, _ := jsonvalue.NewObject(members)
		return v
	}
	return withClosedProperties(members)
}

func strictDefs(defs jsonvalue.Value) jsonvalue.Value {
	if defs.Kind() != jsonvalue.KindObject {
		return defs
	}
	members := make([]jsonvalue.Member, 0, defs.Len())
	for _, m := range defs.Members() {
		if m.Value.Has("properties") {
			m.Value = withClosedProperties(m.Value.Members())
		}
		members = append(members, m)
	}
	v, _ := jsonvalue.NewObject(members) // keys are already unique
	return v
}

func withClosedProperties(members []jsonvalue.Member) jsonvalue.Value {
	out := make([]jsonvalue.Member, 0, len(members)+1)
	found := false
	for _, m := range members {
		if m.Key == "additionalProperties" {
			found = true
			if m.Value.Kind() == jsonvalue.KindBool && m.Value.Bool() {
				m.Value = jsonvalue.NewBool(false)
			}
		}
		out = append(out, m)
	}
	if !found {
		out = append(out, jsonvalue.Member{Key: "additionalProperties", Value: jsonvalue.NewBool(false)})
	}
	v, _ := jsonvalue.NewObject(out)
	return v
}
