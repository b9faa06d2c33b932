package jsonvalue

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf16"
	"unicode/utf8"
)

// DefaultMaxDepth is the nesting limit used by Parse when none is given.
const DefaultMaxDepth = 10000

// ParseError describes malformed json input.
type ParseError struct {
	Offset int    // byte offset of the offending input
	Msg    string // what is wrong
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("offset %d: %s", e.Offset, e.Msg)
}

// ParseOption customizes Parse.
type ParseOption func(*parser)

// MaxDepth limits the nesting of arrays and objects.
func MaxDepth(n int) ParseOption {
	return func(p *parser) {
		if n > 0 {
			p.maxDepth = n
		}
	}
}

// Parse parses a single json document.
//
// Input that is empty or whitespace only, invalid utf-8, objects with
// duplicate keys and trailing non-whitespace data are all reported as
// *ParseError. A leading utf-8 byte order mark is skipped.
func Parse(data []byte, opts ...ParseOption) (Value, error) {
	p := &parser{data: data, maxDepth: DefaultMaxDepth}
	for _, opt := range opts {
		opt(p)
	}
	if len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF {
		p.pos = 3
	}
	p.skipWS()
	if p.pos == len(p.data) {
		return Value{}, p.errorf("empty document")
	}
	v, err := p.value()
	if err != nil {
		return Value{}, err
	}
	p.skipWS()
	if p.pos != len(p.data) {
		return Value{}, p.errorf("invalid character %s after top-level value", quoteChar(p.data[p.pos]))
	}
	return v, nil
}

type parser struct {
	data     []byte
	pos      int
	depth    int
	maxDepth int
}

func (p *parser) errorf(format string, a ...any) *ParseError {
	return &ParseError{Offset: p.pos, Msg: fmt.Sprintf(format, a...)}
}

func (p *parser) skipWS() {
	for p.pos < len(p.data) {
		switch p.data[p.pos] {
		case ' ', '\t', '\n', '\r':
			p.pos++
		default:
			return
		}
	}
}

func (p *parser) value() (Value, error) {
	if p.pos >= len(p.data) {
		return Value{}, p.errorf("unexpected end of input")
	}
	start := p.pos
	switch c := p.data[p.pos]; {
	case c == '{':
		return p.object()
	case c == '[':
		return p.array()
	case c == '"':
		s, err := p.string()
		if err != nil {
			return Value{}, err
		}
		return Value{kind: KindString, s: s, offset: start}, nil
	case c == '-' || (c >= '0' && c <= '9'):
		if err := p.number(); err != nil {
			return Value{}, err
		}
		return Value{kind: KindNumber, s: string(p.data[start:p.pos]), offset: start}, nil
	case c == 't':
		if err := p.literal("true"); err != nil {
			return Value{}, err
		}
		return Value{kind: KindBool, b: true, offset: start}, nil
	case c == 'f':
		if err := p.literal("false"); err != nil {
			return Value{}, err
		}
		return Value{kind: KindBool, offset: start}, nil
	case c == 'n':
		if err := p.literal("null"); err != nil {
			return Value{}, err
		}
		return Value{kind: KindNull, offset: start}, nil
	default:
		return Value{}, p.errorf("invalid character %s looking for beginning of value", quoteChar(c))
	}
}

func (p *parser) literal(lit string) error {
	if !strings.HasPrefix(string(p.data[p.pos:min(len(p.data), p.pos+len(lit))]), lit) {
		return p.errorf("invalid literal, expected %s", lit)
	}
	p.pos += len(lit)
	return nil
}

func (p *parser) enter() error {
	p.depth++
	if p.depth > p.maxDepth {
		return p.errorf("exceeded max nesting depth %d", p.maxDepth)
	}
	return nil
}

func (p *parser) object() (Value, error) {
	start := p.pos
	if err := p.enter(); err != nil {
		return Value{}, err
	}
	p.pos++ // '{'
	var members []Member
	var seen map[string]struct{}
	p.skipWS()
	if p.pos < len(p.data) && p.data[p.pos] == '}' {
		p.pos++
		p.depth--
		return Value{kind: KindObject, obj: &object{}, offset: start}, nil
	}
	for {
		p.skipWS()
		if p.pos >= len(p.data) {
			return Value{}, p.errorf("unexpected end of input in object")
		}
		if p.data[p.pos] != '"' {
			return Value{}, p.errorf("invalid character %s looking for beginning of object key", quoteChar(p.data[p.pos]))
		}
		keyPos := p.pos
		key, err := p.string()
		if err != nil {
			return Value{}, err
		}
		if len(members) >= indexThreshold && seen == nil {
			seen = make(map[string]struct{}, 2*len(members))
			for _, m := range members {
				seen[m.Key] = struct{}{}
			}
		}
		dup := false
		if seen != nil {
			_, dup = seen[key]
			seen[key] = struct{}{}
		} else {
			for _, m := range members {
				if m.Key == key {
					dup = true
					break
				}
			}
		}
		if dup {
			return Value{}, &ParseError{Offset: keyPos, Msg: fmt.Sprintf("duplicate key %q", key)}
		}
		p.skipWS()
		if p.pos >= len(p.data) || p.data[p.pos] != ':' {
			return Value{}, p.errorf("expected ':' after object key")
		}
		p.pos++
		p.skipWS()
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		members = append(members, Member{key, v})
		p.skipWS()
		if p.pos >= len(p.data) {
			return Value{}, p.errorf("unexpected end of input in object")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case '}':
			p.pos++
			p.depth--
			o := &object{members: members}
			if len(members) > indexThreshold {
				o.index = make(map[string]int, len(members))
				for i, m := range members {
					o.index[m.Key] = i
				}
			}
			return Value{kind: KindObject, obj: o, offset: start}, nil
		default:
			return Value{}, p.errorf("invalid character %s after object value", quoteChar(p.data[p.pos]))
		}
	}
}

func (p *parser) array() (Value, error) {
	start := p.pos
	if err := p.enter(); err != nil {
		return Value{}, err
	}
	p.pos++ // '['
	var items []Value
	p.skipWS()
	if p.pos < len(p.data) && p.data[p.pos] == ']' {
		p.pos++
		p.depth--
		return Value{kind: KindArray, items: []Value{}, offset: start}, nil
	}
	for {
		p.skipWS()
		v, err := p.value()
		if err != nil {
			return Value{}, err
		}
		items = append(items, v)
		p.skipWS()
		if p.pos >= len(p.data) {
			return Value{}, p.errorf("unexpected end of input in array")
		}
		switch p.data[p.pos] {
		case ',':
			p.pos++
		case ']':
			p.pos++
			p.depth--
			return Value{kind: KindArray, items: items, offset: start}, nil
		default:
			return Value{}, p.errorf("invalid character %s after array element", quoteChar(p.data[p.pos]))
		}
	}
}

func (p *parser) number() error {
	start := p.pos
	digits := func() int {
		n := 0
		for p.pos < len(p.data) && p.data[p.pos] >= '0' && p.data[p.pos] <= '9' {
			p.pos++
			n++
		}
		return n
	}
	if p.pos < len(p.data) && p.data[p.pos] == '-' {
		p.pos++
	}
	if p.pos >= len(p.data) {
		return p.errorf("invalid number")
	}
	if p.data[p.pos] == '0' {
		p.pos++
	} else if digits() == 0 {
		return p.errorf("invalid number")
	}
	if p.pos < len(p.data) && p.data[p.pos] == '.' {
		p.pos++
		if digits() == 0 {
			return p.errorf("invalid number, expected digit after decimal point")
		}
	}
	if p.pos < len(p.data) && (p.data[p.pos] == 'e' || p.data[p.pos] == 'E') {
		p.pos++
		if p.pos < len(p.data) && (p.data[p.pos] == '+' || p.data[p.pos] == '-') {
			p.pos++
		}
		if digits() == 0 {
			return p.errorf("invalid number, expected digit in exponent")
		}
	}
	if p.pos == start {
		return p.errorf("invalid number")
	}
	return nil
}

func (p *parser) string() (string, error) {
	p.pos++ // opening quote
	start := p.pos
	// fast path: no escapes, ascii only
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		if c == '"' {
			s := string(p.data[start:p.pos])
			p.pos++
			return s, nil
		}
		if c == '\\' || c < 0x20 || c >= utf8.RuneSelf {
			break
		}
		p.pos++
	}

	var sb strings.Builder
	sb.Write(p.data[start:p.pos])
	for p.pos < len(p.data) {
		c := p.data[p.pos]
		switch {
		case c == '"':
			p.pos++
			return sb.String(), nil
		case c < 0x20:
			return "", p.errorf("invalid control character %s in string", quoteChar(c))
		case c == '\\':
			if err := p.escape(&sb); err != nil {
				return "", err
			}
		case c < utf8.RuneSelf:
			sb.WriteByte(c)
			p.pos++
		default:
			r, size := utf8.DecodeRune(p.data[p.pos:])
			if r == utf8.RuneError && size == 1 {
				return "", p.errorf("invalid utf-8 byte 0x%02x in string", c)
			}
			sb.Write(p.data[p.pos : p.pos+size])
			p.pos += size
		}
	}
	return "", p.errorf("unexpected end of input in string")
}

func (p *parser) escape(sb *strings.Builder) error {
	p.pos++ // backslash
	if p.pos >= len(p.data) {
		return p.errorf("unexpected end of input in string escape")
	}
	c := p.data[p.pos]
	p.pos++
	switch c {
	case '"', '\\', '/':
		sb.WriteByte(c)
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'n':
		sb.WriteByte('\n')
	case 'r':
		sb.WriteByte('\r')
	case 't':
		sb.WriteByte('\t')
	case 'u':
		r, err := p.hex4()
		if err != nil {
			return err
		}
		if utf16.IsSurrogate(r) {
			r2 := utf8.RuneError
			if p.pos+1 < len(p.data) && p.data[p.pos] == '\\' && p.data[p.pos+1] == 'u' {
				save := p.pos
				p.pos += 2
				low, err := p.hex4()
				if err != nil {
					return err
				}
				if dec := utf16.DecodeRune(r, low); dec != utf8.RuneError {
					r2 = dec
				} else {
					p.pos = save
				}
			}
			r = r2
		}
		sb.WriteRune(r)
	default:
		p.pos--
		return p.errorf("invalid escape character %s in string", quoteChar(c))
	}
	return nil
}

func (p *parser) hex4() (rune, error) {
	if p.pos+4 > len(p.data) {
		return 0, p.errorf("unexpected end of input in unicode escape")
	}
	n, err := strconv.ParseUint(string(p.data[p.pos:p.pos+4]), 16, 32)
	if err != nil {
		return 0, p.errorf("invalid unicode escape")
	}
	p.pos += 4
	return rune(n), nil
}

func quoteChar(c byte) string {
	if c == '\'' {
		return `'\''`
	}
	if c == '"' {
		return `'"'`
	}
	s := strconv.Quote(string(c))
	return "'" + s[1:len(s)-1] + "'"
}
