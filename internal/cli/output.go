package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/rawes/errors"
	"github.com/kbukum/rawes/value"
)

const (
	formatJSON = "json"
	formatYAML = "yaml"
	formatRaw  = "raw"
)

func checkFormat(format string) error {
	switch format {
	case formatJSON, formatYAML, formatRaw:
		return nil
	}
	return errors.InvalidInput("output", fmt.Sprintf("unknown output format %q", format))
}

// render writes v, or each result of the jq expression over v, in format.
func render(w io.Writer, v value.Value, format, jq string) error {
	results := []value.Value{v}
	if jq != "" {
		var err error
		if results, err = v.Query(jq); err != nil {
			return err
		}
	}
	for _, r := range results {
		if err := renderOne(w, r, format); err != nil {
			return err
		}
	}
	return nil
}

func renderOne(w io.Writer, v value.Value, format string) error {
	switch format {
	case formatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(yamlNode(v)); err != nil {
			return err
		}
		return enc.Close()
	case formatRaw:
		if s, ok := v.Str(); ok {
			_, err := fmt.Fprintln(w, s)
			return err
		}
		_, err := fmt.Fprintln(w, v.String())
		return err
	default:
		out, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	}
}

// yamlNode converts v to a YAML node tree, keeping object key order.
func yamlNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindBool:
		b, _ := v.Bool()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
	case value.KindInt:
		n, _ := v.Int()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(n, 10)}
	case value.KindFloat:
		f, _ := v.Float()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: strconv.FormatFloat(f, 'g', -1, 64)}
	case value.KindString:
		s, _ := v.Str()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	case value.KindArray:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range v.Elements() {
			n.Content = append(n.Content, yamlNode(e))
		}
		return n
	case value.KindObject:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		obj, _ := v.Object()
		for _, m := range obj.Members() {
			n.Content = append(n.Content,
				&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: m.Key},
				yamlNode(m.Value))
		}
		return n
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
}
