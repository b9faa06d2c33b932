package validator

import (
	"strconv"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// located is a value found at ptr.
type located struct {
	ptr jsonPointer
	v   jsonvalue.Value
}

// Position tells possible tokens in json.
type Position interface {
	collect(v jsonvalue.Value, ptr jsonPointer) []located
}

// --

type AllProp struct{}

func (AllProp) collect(v jsonvalue.Value, ptr jsonPointer) []located {
	if v.Kind() != jsonvalue.KindObject {
		return nil
	}
	var l []located
	for _, m := range v.Members() {
		l = append(l, located{ptr.append(m.Key), m.Value})
	}
	return l
}

// --

type AllItem struct{}

func (AllItem) collect(v jsonvalue.Value, ptr jsonPointer) []located {
	if v.Kind() != jsonvalue.KindArray {
		return nil
	}
	var l []located
	for i, item := range v.Items() {
		l = append(l, located{ptr.append(strconv.Itoa(i)), item})
	}
	return l
}

// --

// SchemaPath tells where to look for subschema inside keyword.
// Empty SchemaPath means the keyword value itself.
type SchemaPath []Position

func (sp SchemaPath) collect(v jsonvalue.Value, ptr jsonPointer) []located {
	if len(sp) == 0 {
		return []located{{ptr, v}}
	}
	p, sp := sp[0], sp[1:]
	var l []located
	for _, item := range p.collect(v, ptr) {
		l = append(l, sp.collect(item.v, item.ptr)...)
	}
	return l
}

// --

// Subschemas tells possible subschemas for given keyword.
type Subschemas map[string][]SchemaPath

// collect returns subschemas of obj in document order.
func (ss Subschemas) collect(obj jsonvalue.Value, ptr jsonPointer) []located {
	var l []located
	for _, m := range obj.Members() {
		spp, ok := ss[m.Key]
		if !ok {
			continue
		}
		kwPtr := ptr.append(m.Key)
		for _, sp := range spp {
			l = append(l, sp.collect(m.Value, kwPtr)...)
		}
	}
	return l
}
