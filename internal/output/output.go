// SPDX-License-Identifier: MPL-2.0

// Package output renders flatten results as manifests and writes generated
// artifacts to disk.
package output

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/scenec/scenec/internal/flatten"
	"github.com/scenec/scenec/pkg/property"
	"github.com/scenec/scenec/pkg/transform"
)

const (
	// FormatJSON renders indented JSON.
	FormatJSON Format = "json"
	// FormatYAML renders YAML.
	FormatYAML Format = "yaml"
	// FormatTOML renders TOML.
	FormatTOML Format = "toml"
	// FormatCUE renders formatted CUE.
	FormatCUE Format = "cue"
	// FormatMarkdown renders a human-readable report.
	FormatMarkdown Format = "markdown"
)

// ErrUnknownFormat is returned for a format name outside Formats().
var ErrUnknownFormat = errors.New("unknown output format")

type (
	// Format names a manifest encoding.
	Format string

	// Manifest is the serialized form of a flatten result.
	Manifest struct {
		Root            string         `json:"root" yaml:"root" toml:"root"`
		Instances       []Instance     `json:"instances" yaml:"instances" toml:"instances"`
		Artifacts       []ArtifactRef  `json:"artifacts" yaml:"artifacts" toml:"artifacts"`
		ComponentCounts map[string]int `json:"component_counts" yaml:"component_counts" toml:"component_counts"`
	}

	// Instance is a serialized flat instance. Rotation is x, y, z, w.
	Instance struct {
		ID         string                       `json:"id" yaml:"id" toml:"id"`
		Prototype  string                       `json:"prototype" yaml:"prototype" toml:"prototype"`
		Embedded   bool                         `json:"embedded,omitempty" yaml:"embedded,omitempty" toml:"embedded,omitempty"`
		Position   [3]float64                   `json:"position" yaml:"position,flow" toml:"position"`
		Rotation   [4]float64                   `json:"rotation" yaml:"rotation,flow" toml:"rotation"`
		Scale      [3]float64                   `json:"scale" yaml:"scale,flow" toml:"scale"`
		Children   []string                     `json:"children" yaml:"children" toml:"children"`
		Components []property.ResolvedComponent `json:"components" yaml:"components" toml:"components"`
		Source     string                       `json:"source" yaml:"source" toml:"source"`
	}

	// ArtifactRef describes a generated artifact without its payload.
	ArtifactRef struct {
		Path     string `json:"path" yaml:"path" toml:"path"`
		Type     string `json:"type" yaml:"type" toml:"type"`
		Origin   string `json:"origin" yaml:"origin" toml:"origin"`
		OriginID string `json:"origin_id" yaml:"origin_id" toml:"origin_id"`
		Size     int    `json:"size" yaml:"size" toml:"size"`
	}
)

// Formats returns the supported formats.
func Formats() []Format {
	return []Format{FormatJSON, FormatYAML, FormatTOML, FormatCUE, FormatMarkdown}
}

// ParseFormat parses a case-insensitive format name. "yml" and "md" are
// accepted as aliases.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	switch f {
	case "yml":
		return FormatYAML, nil
	case "md":
		return FormatMarkdown, nil
	}
	if slices.Contains(Formats(), f) {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// String returns the format name.
func (f Format) String() string { return string(f) }

// FromResult converts a flatten result to its manifest.
func FromResult(res *flatten.Result) Manifest {
	m := Manifest{
		Root:            res.Root,
		Instances:       make([]Instance, 0, len(res.Instances)),
		Artifacts:       make([]ArtifactRef, 0, len(res.Artifacts)),
		ComponentCounts: res.ComponentCounts,
	}
	if m.ComponentCounts == nil {
		m.ComponentCounts = map[string]int{}
	}
	for _, inst := range res.Instances {
		t := inst.Transform
		x, y, z, w := transform.XYZW(t.Rotation)
		comps := inst.Components
		if comps == nil {
			comps = []property.ResolvedComponent{}
		}
		m.Instances = append(m.Instances, Instance{
			ID:         inst.ID,
			Prototype:  inst.Prototype,
			Embedded:   inst.Embedded,
			Position:   [3]float64{t.Position.X, t.Position.Y, t.Position.Z},
			Rotation:   [4]float64{x, y, z, w},
			Scale:      [3]float64{t.Scale.X, t.Scale.Y, t.Scale.Z},
			Children:   inst.Children,
			Components: comps,
			Source:     inst.Source,
		})
	}
	for _, a := range res.Artifacts {
		m.Artifacts = append(m.Artifacts, ArtifactRef{
			Path:     a.Path,
			Type:     a.Type,
			Origin:   a.Origin,
			OriginID: a.OriginID,
			Size:     len(a.Data),
		})
	}
	return m
}

// Write encodes m to w in format f.
func Write(w io.Writer, f Format, m Manifest) error {
	if w == nil {
		return errors.New("writer is nil")
	}
	switch f {
	case FormatJSON:
		return writeJSON(w, m)
	case FormatYAML:
		return writeYAML(w, m)
	case FormatTOML:
		return writeTOML(w, m)
	case FormatCUE:
		return writeCUE(w, m)
	case FormatMarkdown:
		return writeMarkdown(w, m)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
