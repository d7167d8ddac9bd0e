// SPDX-License-Identifier: MPL-2.0

package output

import (
	"encoding/json"
	"fmt"
	"io"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/format"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

func writeJSON(w io.Writer, m Manifest) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("encode json manifest: %w", err)
	}
	return nil
}

func writeYAML(w io.Writer, m Manifest) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("encode yaml manifest: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return fmt.Errorf("flush yaml manifest: %w", err)
	}
	return nil
}

func writeTOML(w io.Writer, m Manifest) error {
	encoder := toml.NewEncoder(w)
	encoder.SetIndentTables(true)
	if err := encoder.Encode(m); err != nil {
		return fmt.Errorf("encode toml manifest: %w", err)
	}
	return nil
}

func writeCUE(w io.Writer, m Manifest) error {
	v := cuecontext.New().Encode(m)
	if v.Err() != nil {
		return fmt.Errorf("encode cue manifest: %w", v.Err())
	}
	src, err := format.Node(v.Syntax(cue.Final(), cue.Concrete(true)))
	if err != nil {
		return fmt.Errorf("format cue manifest: %w", err)
	}
	if _, err := w.Write(src); err != nil {
		return fmt.Errorf("write cue manifest: %w", err)
	}
	_, err = io.WriteString(w, "\n")
	return err
}
