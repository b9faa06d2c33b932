package validator

import (
	"fmt"
	gourl "net/url"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
	"github.com/CMSgov/price-transparency-guide-validator/loader"
)

// URLLoader knows how to load json from given url.
type URLLoader interface {
	// Load loads json from given absolute url.
	Load(url string) (jsonvalue.Value, error)
}

// --

// SchemeURLLoader delegates to other [URLLoaders]
// based on url scheme.
type SchemeURLLoader map[string]URLLoader

func (l SchemeURLLoader) Load(url string) (jsonvalue.Value, error) {
	u, err := gourl.Parse(url)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	ll, ok := l[u.Scheme]
	if !ok {
		return jsonvalue.Value{}, &UnsupportedURLSchemeError{u.String()}
	}
	return ll.Load(url)
}

// --

// defaultLoader caches loaded documents, so that each url is read once.
type defaultLoader struct {
	docs   map[url]jsonvalue.Value
	loader URLLoader
}

func newDefaultLoader() defaultLoader {
	return defaultLoader{
		docs:   map[url]jsonvalue.Value{},
		loader: SchemeURLLoader{"file": loader.FileLoader{}},
	}
}

func (l *defaultLoader) add(u url, doc jsonvalue.Value) bool {
	if _, ok := l.docs[u]; ok {
		return false
	}
	l.docs[u] = doc
	return true
}

func (l *defaultLoader) load(u url) (jsonvalue.Value, error) {
	if doc, ok := l.docs[u]; ok {
		return doc, nil
	}
	doc, err := l.loader.Load(u.String())
	if err != nil {
		return jsonvalue.Value{}, &LoadURLError{URL: u.String(), Err: err}
	}
	l.docs[u] = doc
	return doc, nil
}

// --

type LoadURLError struct {
	URL string
	Err error
}

func (e *LoadURLError) Error() string {
	return fmt.Sprintf("failing loading %q: %v", e.URL, e.Err)
}

func (e *LoadURLError) Unwrap() error {
	return e.Err
}

// --

type UnsupportedURLSchemeError struct {
	url string
}

func (e *UnsupportedURLSchemeError) Error() string {
	return fmt.Sprintf("no URLLoader registered for %q", e.url)
}
