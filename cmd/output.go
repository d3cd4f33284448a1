package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// render writes v in the selected output format. text prints the given
// human-readable form instead.
func render(w io.Writer, format string, v any, text string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(v), "encode json")
	case "yaml":
		// Round-trip through JSON so yaml output uses the json field names.
		raw, err := json.Marshal(v)
		if err != nil {
			return eris.Wrap(err, "encode json")
		}
		var generic any
		if err := yaml.Unmarshal(raw, &generic); err != nil {
			return eris.Wrap(err, "decode json as yaml")
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(generic); err != nil {
			return eris.Wrap(err, "encode yaml")
		}
		return eris.Wrap(enc.Close(), "flush yaml")
	case "text", "":
		_, err := fmt.Fprintln(w, text)
		return err
	default:
		return eris.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

// failure turns a result error message into a command error after the
// result has been printed.
func failure(msg string) error {
	if msg == "" {
		return nil
	}
	return eris.New(msg)
}
