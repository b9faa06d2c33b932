// Copyright 2017 Santhosh Kumar Tekuri. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package loader reads schema documents from the file system.
package loader

import (
	"fmt"
	"math"
	gourl "net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/CMSgov/price-transparency-guide-validator/jsonvalue"
	"gopkg.in/yaml.v3"
)

// FileLoader loads documents from file urls.
// Files with .yaml or .yml extension are read as yaml, everything
// else as json.
type FileLoader struct {
	// MaxDepth limits nesting of loaded documents. zero means
	// jsonvalue.DefaultMaxDepth.
	MaxDepth int
}

func (l FileLoader) Load(url string) (jsonvalue.Value, error) {
	path, err := l.ToFile(url)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return jsonvalue.Value{}, err
	}
	return Decode(path, data, l.MaxDepth)
}

// ToFile converts file url into file path.
func (l FileLoader) ToFile(url string) (string, error) {
	u, err := gourl.Parse(url)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("invalid file url: %s", u)
	}
	path := u.Path
	if runtime.GOOS == "windows" {
		path = strings.TrimPrefix(path, "/")
		path = filepath.FromSlash(path)
	}
	return path, nil
}

// IsYAML tells whether name refers to yaml document.
func IsYAML(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	return ext == ".yaml" || ext == ".yml"
}

// Decode parses data, choosing the syntax by extension of name.
func Decode(name string, data []byte, maxDepth int) (jsonvalue.Value, error) {
	if IsYAML(name) {
		return FromYAML(data)
	}
	return jsonvalue.Parse(data, jsonvalue.MaxDepth(maxDepth))
}

// FromYAML converts a single yaml document into json value.
// Mapping keys must be scalars, and non-finite floats are rejected.
func FromYAML(data []byte) (jsonvalue.Value, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return jsonvalue.Value{}, err
	}
	if doc.Kind == 0 {
		return jsonvalue.Value{}, fmt.Errorf("yaml: empty document")
	}
	return fromNode(&doc, 0)
}

const maxAliasDepth = 100

func fromNode(n *yaml.Node, aliases int) (jsonvalue.Value, error) {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return jsonvalue.NewNull(), nil
		}
		return fromNode(n.Content[0], aliases)
	case yaml.AliasNode:
		if aliases >= maxAliasDepth {
			return jsonvalue.Value{}, fmt.Errorf("yaml: line %d: too many nested aliases", n.Line)
		}
		return fromNode(n.Alias, aliases+1)
	case yaml.SequenceNode:
		items := make([]jsonvalue.Value, 0, len(n.Content))
		for _, c := range n.Content {
			item, err := fromNode(c, aliases)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			items = append(items, item)
		}
		return jsonvalue.NewArray(items), nil
	case yaml.MappingNode:
		members := make([]jsonvalue.Member, 0, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			if k.Kind != yaml.ScalarNode {
				return jsonvalue.Value{}, fmt.Errorf("yaml: line %d: mapping key must be scalar", k.Line)
			}
			val, err := fromNode(v, aliases)
			if err != nil {
				return jsonvalue.Value{}, err
			}
			members = append(members, jsonvalue.Member{Key: k.Value, Value: val})
		}
		obj, err := jsonvalue.NewObject(members)
		if err != nil {
			return jsonvalue.Value{}, fmt.Errorf("yaml: line %d: %v", n.Line, err)
		}
		return obj, nil
	case yaml.ScalarNode:
		return fromScalar(n)
	}
	return jsonvalue.Value{}, fmt.Errorf("yaml: line %d: unsupported node", n.Line)
}

func fromScalar(n *yaml.Node) (jsonvalue.Value, error) {
	switch n.ShortTag() {
	case "!!null":
		return jsonvalue.NewNull(), nil
	case "!!bool":
		var b bool
		if err := n.Decode(&b); err != nil {
			return jsonvalue.Value{}, err
		}
		return jsonvalue.NewBool(b), nil
	case "!!int":
		var i int64
		if err := n.Decode(&i); err != nil {
			// too big for int64, keep literal if it is json number
			if v, err := jsonvalue.NewNumber(n.Value); err == nil {
				return v, nil
			}
			return jsonvalue.Value{}, err
		}
		return jsonvalue.NewInt(i), nil
	case "!!float":
		if v, err := jsonvalue.NewNumber(n.Value); err == nil {
			return v, nil
		}
		var f float64
		if err := n.Decode(&f); err != nil {
			return jsonvalue.Value{}, err
		}
		if math.IsInf(f, 0) || math.IsNaN(f) {
			return jsonvalue.Value{}, fmt.Errorf("yaml: line %d: %s is not valid json number", n.Line, n.Value)
		}
		return jsonvalue.NewNumber(strconv.FormatFloat(f, 'g', -1, 64))
	default:
		return jsonvalue.NewString(n.Value), nil
	}
}
