package validator

import (
	"errors"
	"fmt"
	gourl "net/url"
	"path"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// roots holds every schema document loaded by a compiler,
// keyed by the url it was loaded from.
type roots struct {
	defaultDraft *Draft
	strict       bool
	roots        map[url]*root
	loader       defaultLoader
}

func newRoots() *roots {
	return &roots{
		defaultDraft: Draft7,
		roots:        map[url]*root{},
		loader:       newDefaultLoader(),
	}
}

func (rr *roots) orLoad(u url) (*root, error) {
	if r, ok := rr.roots[u]; ok {
		return r, nil
	}
	doc, err := rr.loader.load(u)
	if err != nil {
		return nil, err
	}
	return rr.addRoot(u, doc)
}

func (rr *roots) addRoot(u url, doc jsonvalue.Value) (*root, error) {
	if rr.strict {
		doc = MakeStrict(doc)
	}
	r := &root{
		url:       u,
		doc:       doc,
		draft:     rr.defaultDraft,
		resources: map[jsonPointer]*resource{},
	}
	if doc.Kind() == jsonvalue.KindObject {
		if s, ok := strVal(doc, "$schema"); ok && s != "" {
			if d := draftFromURL(s); d != nil {
				r.draft = d
			}
		}
	}
	if err := r.collectResources(doc, u, ""); err != nil {
		return nil, err
	}
	rr.roots[u] = r
	return r, nil
}

func (rr *roots) resolveFragment(uf urlFrag) (urlPtr, error) {
	r, err := rr.orLoad(uf.url)
	if err != nil {
		return urlPtr{}, err
	}
	return r.resolveFragment(uf.frag)
}

// resolve finds the location uf refers to. Resources declared with an id
// inside already loaded documents take precedence over loading uf.url.
// from is the document uf was found in.
func (rr *roots) resolve(uf urlFrag, from *root) (urlPtr, error) {
	if r, ok := rr.roots[uf.url]; ok {
		return r.resolveFragment(uf.frag)
	}
	if from != nil {
		if up, err := from.resolve(uf); err != nil || up != nil {
			return derefPtr(up), err
		}
	}
	for _, r := range rr.roots {
		if r == from {
			continue
		}
		if up, err := r.resolve(uf); err != nil || up != nil {
			return derefPtr(up), err
		}
	}

	up, err := rr.resolveFragment(uf)
	if err == nil || from == nil {
		return up, err
	}
	// ids are often declared with a web address while the documents
	// sit next to each other on disk.
	var lerr *LoadURLError
	if !errors.As(err, &lerr) {
		return up, err
	}
	if sibling, ok := siblingURL(from.url, uf.url); ok {
		if r, serr := rr.orLoad(sibling); serr == nil {
			return r.resolveFragment(uf.frag)
		}
	}
	return up, err
}

func derefPtr(up *urlPtr) urlPtr {
	if up == nil {
		return urlPtr{}
	}
	return *up
}

// siblingURL returns file url with the base name of target in the
// directory of from. It only applies to http targets and file sources.
func siblingURL(from, target url) (url, bool) {
	fu, err := gourl.Parse(string(from))
	if err != nil || fu.Scheme != "file" {
		return "", false
	}
	tu, err := gourl.Parse(string(target))
	if err != nil || (tu.Scheme != "http" && tu.Scheme != "https") {
		return "", false
	}
	base := path.Base(tu.Path)
	if base == "/" || base == "." {
		return "", false
	}
	fu.Path = path.Join(path.Dir(fu.Path), base)
	return url(fu.String()), true
}

// --

type ParseIDError struct {
	URL string
}

func (e *ParseIDError) Error() string {
	return fmt.Sprintf("error in parsing id at %q", e.URL)
}

// --

type ParseAnchorError struct {
	URL string
}

func (e *ParseAnchorError) Error() string {
	return fmt.Sprintf("error in parsing anchor at %q", e.URL)
}

// --

type DuplicateIDError struct {
	ID   string
	URL  string
	Ptr1 string
	Ptr2 string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate id %q in %q at %q and %q", e.ID, e.URL, e.Ptr1, e.Ptr2)
}

// --

type DuplicateAnchorError struct {
	Anchor string
	URL    string
	Ptr1   string
	Ptr2   string
}

func (e *DuplicateAnchorError) Error() string {
	return fmt.Sprintf("duplicate anchor %q in %q at %q and %q", e.Anchor, e.URL, e.Ptr1, e.Ptr2)
}

// --

type AnchorNotFoundError struct {
	URL       string
	Reference string
}

func (e *AnchorNotFoundError) Error() string {
	return fmt.Sprintf("anchor in %q not found in schema %q", e.Reference, e.URL)
}

// --

type MetaSchemaMismatchError struct {
	URL string
}

func (e *MetaSchemaMismatchError) Error() string {
	return fmt.Sprintf("$schema in %q does not match with $schema in root", e.URL)
}
