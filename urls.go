package validator

import (
	"fmt"
	gourl "net/url"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// url is an absolute url without fragment.
type url string

func (u url) String() string {
	return string(u)
}

// join resolves ref against u.
func (u url) join(ref string) (*urlFrag, error) {
	base, err := gourl.Parse(string(u))
	if err != nil {
		return nil, &ParseURLError{URL: u.String(), Err: err}
	}
	ref, frag, err := splitFragment(ref)
	if err != nil {
		return nil, err
	}
	refURL, err := gourl.Parse(ref)
	if err != nil {
		return nil, &ParseURLError{URL: ref, Err: err}
	}
	resolved := base.ResolveReference(refURL)
	resolved.Fragment, resolved.RawFragment = "", ""
	return &urlFrag{url: url(resolved.String()), frag: frag}, nil
}

// --

type jsonPointer string

func escape(tok string) string {
	tok = strings.ReplaceAll(tok, "~", "~0")
	return strings.ReplaceAll(tok, "/", "~1")
}

func unescape(tok string) (string, bool) {
	tilde := strings.IndexByte(tok, '~')
	if tilde == -1 {
		return tok, true
	}
	var sb strings.Builder
	for {
		sb.WriteString(tok[:tilde])
		tok = tok[tilde+1:]
		if tok == "" {
			return "", false
		}
		switch tok[0] {
		case '0':
			sb.WriteByte('~')
		case '1':
			sb.WriteByte('/')
		default:
			return "", false
		}
		tok = tok[1:]
		tilde = strings.IndexByte(tok, '~')
		if tilde == -1 {
			sb.WriteString(tok)
			break
		}
	}
	return sb.String(), true
}

func (ptr jsonPointer) isEmpty() bool {
	return string(ptr) == ""
}

func (ptr jsonPointer) concat(next jsonPointer) jsonPointer {
	return jsonPointer(fmt.Sprintf("%s%s", ptr, next))
}

func (ptr jsonPointer) append(tok string) jsonPointer {
	return jsonPointer(fmt.Sprintf("%s/%s", ptr, escape(tok)))
}

func (ptr jsonPointer) append2(tok1, tok2 string) jsonPointer {
	return jsonPointer(fmt.Sprintf("%s/%s/%s", ptr, escape(tok1), escape(tok2)))
}

// tokens returns the unescaped reference tokens of ptr.
func (ptr jsonPointer) tokens() ([]string, bool) {
	if ptr.isEmpty() {
		return nil, true
	}
	if ptr[0] != '/' {
		return nil, false
	}
	var toks []string
	for _, tok := range strings.Split(string(ptr[1:]), "/") {
		tok, ok := unescape(tok)
		if !ok {
			return nil, false
		}
		toks = append(toks, tok)
	}
	return toks, true
}

// lookup finds the value ptr points to in v.
func (ptr jsonPointer) lookup(v jsonvalue.Value) (jsonvalue.Value, bool) {
	toks, ok := ptr.tokens()
	if !ok {
		return jsonvalue.Value{}, false
	}
	for _, tok := range toks {
		switch v.Kind() {
		case jsonvalue.KindObject:
			if v, ok = v.Get(tok); !ok {
				return jsonvalue.Value{}, false
			}
		case jsonvalue.KindArray:
			index, err := strconv.Atoi(tok)
			if err != nil || index < 0 || index >= v.Len() || strconv.Itoa(index) != tok {
				return jsonvalue.Value{}, false
			}
			v = v.Index(index)
		default:
			return jsonvalue.Value{}, false
		}
	}
	return v, true
}

// --

type anchor string

// --

type fragment string

func decode(frag string) (string, error) {
	return gourl.PathUnescape(frag)
}

// avoids escaping /.
func encode(frag string) string {
	var sb strings.Builder
	for i, tok := range strings.Split(frag, "/") {
		if i > 0 {
			sb.WriteByte('/')
		}
		sb.WriteString(gourl.PathEscape(tok))
	}
	return sb.String()
}

func splitFragment(str string) (string, fragment, error) {
	u, f := split(str)
	f, err := decode(f)
	if err != nil {
		return "", fragment(""), &ParseURLError{URL: str, Err: err}
	}
	return u, fragment(f), nil
}

func split(str string) (string, string) {
	hash := strings.IndexByte(str, '#')
	if hash == -1 {
		return str, ""
	}
	return str[:hash], str[hash+1:]
}

// convert returns jsonPointer or anchor.
func (frag fragment) convert() any {
	str := string(frag)
	if str == "" || strings.HasPrefix(str, "/") {
		return jsonPointer(str)
	}
	return anchor(str)
}

// --

type urlFrag struct {
	url  url
	frag fragment
}

func (uf *urlFrag) String() string {
	return fmt.Sprintf("%s#%s", uf.url, encode(string(uf.frag)))
}

// --

type urlPtr struct {
	url url
	ptr jsonPointer
}

func (up *urlPtr) String() string {
	return fmt.Sprintf("%s#%s", up.url, encode(string(up.ptr)))
}

func (up urlPtr) append(tok string) urlPtr {
	return urlPtr{up.url, up.ptr.append(tok)}
}

func (up urlPtr) append2(tok1, tok2 string) urlPtr {
	return urlPtr{up.url, up.ptr.append2(tok1, tok2)}
}

func (up *urlPtr) lookup(v jsonvalue.Value) (jsonvalue.Value, error) {
	v, ok := up.ptr.lookup(v)
	if !ok {
		return jsonvalue.Value{}, &JSONPointerNotFoundError{up.String()}
	}
	return v, nil
}

// --

// absolute converts a location given by user, which may be a file path
// or an url, into absolute url with fragment.
func absolute(loc string) (*urlFrag, error) {
	u, frag, err := splitFragment(loc)
	if err != nil {
		return nil, err
	}
	if gu, err := gourl.Parse(u); err == nil && len(gu.Scheme) > 1 && gu.IsAbs() {
		gu.Fragment, gu.RawFragment = "", ""
		return &urlFrag{url(gu.String()), frag}, nil
	}
	path, err := filepath.Abs(u)
	if err != nil {
		return nil, &ParseURLError{URL: loc, Err: err}
	}
	return &urlFrag{fileURL(path), frag}, nil
}

func fileURL(path string) url {
	path = filepath.ToSlash(path)
	if runtime.GOOS == "windows" {
		path = "/" + path
	}
	u := gourl.URL{Scheme: "file", Path: path}
	return url(u.String())
}

// --

// quote returns single-quoted string.
// used for embedding quoted strings in json.
func quote(s string) string {
	s = fmt.Sprintf("%q", s)
	s = strings.ReplaceAll(s, `\"`, `"`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	return "'" + s[1:len(s)-1] + "'"
}
