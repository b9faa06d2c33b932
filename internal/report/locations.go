package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/CMSgov/price-transparency-guide-validator/internal/config"
	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
)

// each is a path token matching every item of an array.
const each = "[]"

type locationSpec struct {
	file string
	path []string
}

var (
	providerReferencePath = []string{"provider_references", each, "location"}
	tocInNetworkPath      = []string{"reporting_structure", each, "in_network_files"}
	tocAllowedAmountPath  = []string{"reporting_structure", each, "allowed_amount_file"}
	additionalInfoPath    = []string{"in_network", each, "negotiated_rates", each, "negotiated_prices", each, "additional_information"}
	negotiatedTypePath    = []string{"in_network", each, "negotiated_rates", each, "negotiated_prices", each, "negotiated_type"}
	providerGroupsPath    = []string{"in_network", each, "negotiated_rates", each, "provider_groups"}
	lastUpdatedPath       = []string{"last_updated_on"}
)

var locationSpecs = map[string][]locationSpec{
	config.InNetworkRates: {
		{"additionalInfo.json", additionalInfoPath},
		{"negotiatedType.json", negotiatedTypePath},
		{"providerGroups.json", providerGroupsPath},
		{"providerReferences.json", providerReferencePath},
		{"lastUpdated.json", lastUpdatedPath},
	},
	config.AllowedAmounts: {
		{"lastUpdated.json", lastUpdatedPath},
	},
	config.TableOfContents: {
		{"allowedAmountFiles.json", tocAllowedAmountPath},
		{"inNetworkFiles.json", tocInNetworkPath},
	},
}

// Collector extracts values found at fixed locations of documents,
// such as provider groups of in-network rate files.
type Collector struct {
	reports []*locationReport
}

type locationReport struct {
	File    string
	path    []string
	members []jsonvalue.Member
}

// NewCollector returns collector for documents of named schema. For
// schemas without locations of interest the collector reports nothing.
func NewCollector(schemaName string) *Collector {
	c := &Collector{}
	for _, spec := range locationSpecs[schemaName] {
		c.reports = append(c.reports, &locationReport{File: spec.file, path: spec.path})
	}
	return c
}

// Files returns names of report files c writes.
func (c *Collector) Files() []string {
	var files []string
	for _, r := range c.reports {
		files = append(files, r.File)
	}
	return files
}

// Collect extracts locations from v. Keys are dotted paths with array
// indices, like "in_network.0.negotiated_rates.1.provider_groups".
// Records of ndjson input, with line > 0, get keys prefixed by
// line number and colon.
func (c *Collector) Collect(line int, v jsonvalue.Value) {
	for _, r := range c.reports {
		collect(v, r.path, nil, func(path []string, v jsonvalue.Value) {
			key := strings.Join(path, ".")
			if line > 0 {
				key = strconv.Itoa(line) + ":" + key
			}
			r.members = append(r.members, jsonvalue.Member{Key: key, Value: v})
		})
	}
}

// Lookup returns values collected for report file.
func (c *Collector) Lookup(file string) ([]jsonvalue.Member, bool) {
	for _, r := range c.reports {
		if r.File == file {
			return r.members, true
		}
	}
	return nil, false
}

func collect(v jsonvalue.Value, pattern, path []string, fn func([]string, jsonvalue.Value)) {
	if len(pattern) == 0 {
		fn(path, v)
		return
	}
	path = path[:len(path):len(path)]
	if pattern[0] == each {
		if v.Kind() != jsonvalue.KindArray {
			return
		}
		for i, item := range v.Items() {
			collect(item, pattern[1:], append(path, strconv.Itoa(i)), fn)
		}
		return
	}
	if v.Kind() != jsonvalue.KindObject {
		return
	}
	if child, ok := v.Get(pattern[0]); ok {
		collect(child, pattern[1:], append(path, pattern[0]), fn)
	}
}

func (r *locationReport) writeJSON(w io.Writer) error {
	obj, err := jsonvalue.NewObject(r.members)
	if err != nil {
		return fmt.Errorf("%s: %w", r.File, err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, jsonvalue.Marshal(obj), "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(w)
	return err
}
