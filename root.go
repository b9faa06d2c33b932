package validator

import (
	"fmt"
	"strings"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// root is a loaded schema document.
type root struct {
	url       url
	doc       jsonvalue.Value
	draft     *Draft
	resources map[jsonPointer]*resource
}

func (r *root) rootResource() *resource {
	res, ok := r.resources[""]
	if !ok {
		panic(fmt.Sprintf("root resource should exist for %q", r.url))
	}
	return res
}

// resource returns the innermost resource enclosing ptr.
func (r *root) resource(ptr jsonPointer) *resource {
	for {
		if res, ok := r.resources[ptr]; ok {
			return res
		}
		slash := strings.LastIndexByte(string(ptr), '/')
		if slash == -1 {
			break
		}
		ptr = ptr[:slash]
	}
	return r.rootResource()
}

func (r *root) baseURL(ptr jsonPointer) url {
	return r.resource(ptr).id
}

func (r *root) resolveFragmentIn(frag fragment, res *resource) (urlPtr, error) {
	var ptr jsonPointer
	switch f := frag.convert().(type) {
	case jsonPointer:
		ptr = res.ptr.concat(f)
	case anchor:
		aptr, ok := res.anchors[f]
		if !ok {
			return urlPtr{}, &AnchorNotFoundError{
				URL:       r.url.String(),
				Reference: (&urlFrag{res.id, frag}).String(),
			}
		}
		ptr = aptr
	}
	return urlPtr{r.url, ptr}, nil
}

func (r *root) resolveFragment(frag fragment) (urlPtr, error) {
	return r.resolveFragmentIn(frag, r.rootResource())
}

// resolve resolves urlFrag to urlPtr within r.
// returns nil if no resource in r has that id.
func (r *root) resolve(uf urlFrag) (*urlPtr, error) {
	var res *resource
	if uf.url == r.url {
		res = r.rootResource()
	} else {
		for _, v := range r.resources {
			if v.id == uf.url {
				res = v
				break
			}
		}
		if res == nil {
			return nil, nil
		}
	}
	up, err := r.resolveFragmentIn(uf.frag, res)
	return &up, err
}

func (r *root) collectResources(sch jsonvalue.Value, base url, schPtr jsonPointer) error {
	if sch.Kind() != jsonvalue.KindObject {
		// non-object roots still get a resource, so that errors are
		// reported by the compiler instead of resolution
		if schPtr.isEmpty() {
			r.resources[schPtr] = newResource(schPtr, base)
		}
		return nil
	}

	var res *resource
	if id := r.draft.getID(sch); id != "" {
		uf, err := base.join(id)
		if err != nil {
			loc := urlPtr{r.url, schPtr}
			return &ParseIDError{loc.String()}
		}
		base = uf.url
		res = newResource(schPtr, base)
	} else if schPtr.isEmpty() {
		res = newResource(schPtr, base)
	}

	if res != nil {
		// only schema resources can have "$schema"
		if s, ok := strVal(sch, "$schema"); ok && s != "" && !schPtr.isEmpty() {
			if got := draftFromURL(s); got != nil && got != r.draft {
				loc := urlPtr{r.url, schPtr}
				return &MetaSchemaMismatchError{loc.String()}
			}
		}
		for _, other := range r.resources {
			if other.id == base {
				return &DuplicateIDError{base.String(), r.url.String(), string(schPtr), string(other.ptr)}
			}
		}
		r.resources[schPtr] = res
	}

	// anchors belong to the base resource
	for _, res := range r.resources {
		if res.id == base {
			if err := r.collectAnchors(sch, schPtr, res); err != nil {
				return err
			}
			break
		}
	}

	for _, sub := range r.draft.subschemas.collect(sch, schPtr) {
		if err := r.collectResources(sub.v, base, sub.ptr); err != nil {
			return err
		}
	}
	return nil
}

func (r *root) collectAnchors(sch jsonvalue.Value, schPtr jsonPointer, res *resource) error {
	addAnchor := func(anchor anchor) error {
		ptr1, ok := res.anchors[anchor]
		if ok {
			if ptr1 == schPtr {
				return nil
			}
			return &DuplicateAnchorError{
				string(anchor), r.url.String(), string(ptr1), string(schPtr),
			}
		}
		res.anchors[anchor] = schPtr
		return nil
	}

	if r.draft.version < 2019 {
		if sch.Has("$ref") {
			// All other properties in a "$ref" object MUST be ignored
			return nil
		}
		// anchor is specified in id
		if id, ok := strVal(sch, r.draft.id); ok {
			_, frag, err := splitFragment(id)
			if err != nil {
				loc := urlPtr{r.url, schPtr}
				return &ParseAnchorError{loc.String()}
			}
			if anchor, ok := frag.convert().(anchor); ok {
				if err := addAnchor(anchor); err != nil {
					return err
				}
			}
		}
		return nil
	}
	if s, ok := strVal(sch, "$anchor"); ok {
		if err := addAnchor(anchor(s)); err != nil {
			return err
		}
	}
	if s, ok := strVal(sch, "$dynamicAnchor"); ok && r.draft.version >= 2020 {
		if err := addAnchor(anchor(s)); err != nil {
			return err
		}
	}
	return nil
}

// --

type resource struct {
	ptr     jsonPointer
	id      url
	anchors map[anchor]jsonPointer
}

func newResource(ptr jsonPointer, id url) *resource {
	return &resource{ptr: ptr, id: id, anchors: make(map[anchor]jsonPointer)}
}
