package validator_test

import (
	"testing"

	validator "github.com/CMSgov/price-transparency-guide-validator"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

func TestMakeStrict(t *testing.T) {
	tests := []struct {
		name   string
		schema string
		want   string
	}{
		{
			name:   "root with properties",
			schema: `{"properties":{"a":{}}}`,
			want:   `{"properties":{"a":{}},"additionalProperties":false}`,
		},
		{
			name:   "root without properties",
			schema: `{"type":"object"}`,
			want:   `{"type":"object"}`,
		},
		{
			name:   "additionalProperties true is closed",
			schema: `{"properties":{"a":{}},"additionalProperties":true}`,
			want:   `{"properties":{"a":{}},"additionalProperties":false}`,
		},
		{
			name:   "schema valued additionalProperties is kept",
			schema: `{"properties":{"a":{}},"additionalProperties":{"type":"string"}}`,
			want:   `{"properties":{"a":{}},"additionalProperties":{"type":"string"}}`,
		},
		{
			name:   "definitions",
			schema: `{"definitions":{"rate":{"properties":{"r":{}}},"code":{"type":"string"},"arrangement":{"oneOf":[{"required":["x"]}]}}}`,
			want:   `{"definitions":{"rate":{"properties":{"r":{}},"additionalProperties":false},"code":{"type":"string"},"arrangement":{"oneOf":[{"required":["x"]}]}}}`,
		},
		{
			name:   "nested definitions are left alone",
			schema: `{"$defs":{"outer":{"$defs":{"inner":{"properties":{"i":{}}}}}}}`,
			want:   `{"$defs":{"outer":{"$defs":{"inner":{"properties":{"i":{}}}}}}}`,
		},
		{
			name:   "boolean schema",
			schema: `true`,
			want:   `true`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustParse(t, tt.schema)
			got := string(jsonvalue.Marshal(validator.MakeStrict(doc)))
			if got != tt.want {
				t.Errorf("got  %s\nwant %s", got, tt.want)
			}
			if string(jsonvalue.Marshal(doc)) != tt.schema {
				t.Error("input was modified")
			}
		})
	}
}
