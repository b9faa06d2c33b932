package jsonvalue

import (
	"errors"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"{", false},
		{"{}", true},
		{"{}A", false},
		{"{}{}", false},
		{"", false},
		{"   \n\t ", false},
		{"null", true},
		{"nul", false},
		{"[1, 2.5, -0, 1e10, 1E-2]", true},
		{"01", false},
		{"1.", false},
		{"-", false},
		{"1e", false},
		{`"abc`, false},
		{`"a\qb"`, false},
		{`"tab	inside"`, false},
		{`"é😀"`, true},
		{`{"a": 1,}`, false},
		{`[1,]`, false},
		{`{"a" 1}`, false},
		{"\xEF\xBB\xBF{}", true},
		{`{"a": 1, "a": 2}`, false},
	}
	for _, test := range tests {
		_, err := Parse([]byte(test.input))
		if valid := err == nil; valid != test.valid {
			t.Errorf("Parse(%q) valid: got %v, want %v (err=%v)", test.input, valid, test.valid, err)
		}
		if err != nil {
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Errorf("Parse(%q): got %T, want *ParseError", test.input, err)
			}
		}
	}
}

func TestParse_duplicateKeyOffset(t *testing.T) {
	input := `{"a": 1, "b": {"x": 1, "x": 2}}`
	_, err := Parse([]byte(input))
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if want := strings.LastIndex(input, `"x"`); perr.Offset != want {
		t.Errorf("offset: got %d, want %d", perr.Offset, want)
	}
	if !strings.Contains(perr.Msg, "duplicate key") {
		t.Errorf("message %q does not mention duplicate key", perr.Msg)
	}
}

func TestParse_duplicateKeyLargeObject(t *testing.T) {
	var sb strings.Builder
	sb.WriteString("{")
	for i := 0; i < 20; i++ {
		sb.WriteString(`"k` + string(rune('a'+i)) + `": 1,`)
	}
	sb.WriteString(`"kc": 2}`)
	if _, err := Parse([]byte(sb.String())); err == nil {
		t.Fatal("duplicate key in large object must be rejected")
	}
}

func TestParse_invalidUTF8(t *testing.T) {
	input := []byte("[\"ok\", \"bad\xff\"]")
	_, err := Parse(input)
	var perr *ParseError
	if !errors.As(err, &perr) {
		t.Fatalf("got %v, want *ParseError", err)
	}
	if want := 11; perr.Offset != want {
		t.Errorf("offset: got %d, want %d", perr.Offset, want)
	}
}

func TestParse_maxDepth(t *testing.T) {
	input := strings.Repeat("[", 50) + strings.Repeat("]", 50)
	if _, err := Parse([]byte(input), MaxDepth(10)); err == nil {
		t.Fatal("expected depth error")
	}
	if _, err := Parse([]byte(input), MaxDepth(50)); err != nil {
		t.Fatal(err)
	}
}

func TestParse_values(t *testing.T) {
	v, err := Parse([]byte(`{"s": "héllo", "n": 1.0, "f": 1.5, "b": true, "z": null, "a": [1, "x"]}`))
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Keys(); strings.Join(got, ",") != "s,n,f,b,z,a" {
		t.Errorf("keys order: got %v", got)
	}
	s, _ := v.Get("s")
	if s.Str() != "héllo" {
		t.Errorf("string: got %q", s.Str())
	}
	n, _ := v.Get("n")
	if !n.IsInteger() {
		t.Error("1.0 must be integer")
	}
	f, _ := v.Get("f")
	if f.IsInteger() {
		t.Error("1.5 must not be integer")
	}
	if f.Float64() != 1.5 {
		t.Errorf("float: got %v", f.Float64())
	}
	b, _ := v.Get("b")
	if !b.Bool() {
		t.Error("bool: got false")
	}
	z, _ := v.Get("z")
	if !z.IsNull() {
		t.Error("null: got non-null")
	}
	a, _ := v.Get("a")
	if a.Len() != 2 || a.Index(1).Str() != "x" {
		t.Errorf("array: got %s", a)
	}
	if a.Offset() != strings.Index(`{"s": "héllo", "n": 1.0, "f": 1.5, "b": true, "z": null, "a": [1, "x"]}`, "[") {
		t.Errorf("offset of array: got %d", a.Offset())
	}
}

func TestMarshal_roundTrip(t *testing.T) {
	inputs := []string{
		`{"a":[1,2.50,-3e2],"b":{"c":null,"d":true},"e":"line\nbreak \"q\" \\ \u0001"}`,
		`"é"`,
		`[]`,
		`{}`,
	}
	for _, input := range inputs {
		v1, err := Parse([]byte(input))
		if err != nil {
			t.Fatal(err)
		}
		v2, err := Parse(Marshal(v1))
		if err != nil {
			t.Fatalf("reparse of %s: %v", Marshal(v1), err)
		}
		if !Equal(v1, v2) {
			t.Errorf("round trip changed value: %s vs %s", v1, v2)
		}
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{`1`, `1.0`, true},
		{`1`, `1.5`, false},
		{`{"a":1,"b":2}`, `{"b":2,"a":1}`, true},
		{`[1,2]`, `[2,1]`, false},
		{`"1"`, `1`, false},
		{`null`, `null`, true},
		{`{"a":[{"b":null}]}`, `{"a":[{"b":null}]}`, true},
	}
	for _, test := range tests {
		a, _ := Parse([]byte(test.a))
		b, _ := Parse([]byte(test.b))
		if got := Equal(a, b); got != test.want {
			t.Errorf("Equal(%s, %s): got %v, want %v", test.a, test.b, got, test.want)
		}
	}
}

func TestNewObject_duplicate(t *testing.T) {
	_, err := NewObject([]Member{{"a", NewNull()}, {"a", NewBool(true)}})
	if err == nil {
		t.Fatal("expected error for duplicate key")
	}
	if _, err := NewNumber("1.2.3"); err == nil {
		t.Fatal("expected error for invalid number literal")
	}
}
