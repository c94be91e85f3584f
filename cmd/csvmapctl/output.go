package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// render writes v as JSON or YAML. It returns false for the text format,
// leaving the caller to print its own summary.
func (a *app) render(w io.Writer, v any) (bool, error) {
	switch format := a.v.GetString("format"); format {
	case "text", "":
		return false, nil
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return true, enc.Encode(v)
	case "yaml":
		return true, writeYAML(w, v)
	default:
		return false, fmt.Errorf("unknown output format %q (use text, json or yaml)", format)
	}
}

// writeYAML goes through JSON first so that values with custom JSON
// encodings (decimals, chars, UUIDs) print the same way in both formats.
func writeYAML(w io.Writer, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(generic); err != nil {
		return err
	}
	return enc.Close()
}
