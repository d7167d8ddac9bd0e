// SPDX-License-Identifier: MPL-2.0

package output

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
)

func writeMarkdown(w io.Writer, m Manifest) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# Flattened %s\n\n", m.Root)

	writeInstancesSection(&sb, m.Instances)
	writeArtifactsSection(&sb, m.Artifacts)
	writeCountsSection(&sb, m.ComponentCounts)

	_, err := io.WriteString(w, sb.String())
	return err
}

func writeInstancesSection(sb *strings.Builder, instances []Instance) {
	fmt.Fprintf(sb, "## Instances (%d)\n\n", len(instances))
	if len(instances) == 0 {
		sb.WriteString("None\n\n")
		return
	}

	sb.WriteString("| ID | Prototype | Position | Rotation | Scale | Children | Overrides |\n")
	sb.WriteString("|---|---|---|---|---|---|---|\n")
	for _, inst := range instances {
		proto := inst.Prototype
		if inst.Embedded {
			proto += " (embedded)"
		}
		fmt.Fprintf(sb, "| %s | %s | %s | %s | %s | %s | %s |\n",
			escapeTableValue(inst.ID),
			escapeTableValue(proto),
			formatFloats(inst.Position[:]),
			formatFloats(inst.Rotation[:]),
			formatFloats(inst.Scale[:]),
			escapeTableValue(strings.Join(inst.Children, ", ")),
			escapeTableValue(formatOverrides(inst)),
		)
	}
	sb.WriteString("\n")
}

func writeArtifactsSection(sb *strings.Builder, artifacts []ArtifactRef) {
	fmt.Fprintf(sb, "## Generated Artifacts (%d)\n\n", len(artifacts))
	if len(artifacts) == 0 {
		sb.WriteString("None\n\n")
		return
	}

	sb.WriteString("| Path | Type | Origin | Size |\n")
	sb.WriteString("|---|---|---|---|\n")
	for _, a := range artifacts {
		fmt.Fprintf(sb, "| %s | %s | %s | %d |\n",
			escapeTableValue(a.Path),
			escapeTableValue(a.Type),
			escapeTableValue(a.Origin+"#"+a.OriginID),
			a.Size,
		)
	}
	sb.WriteString("\n")
}

func writeCountsSection(sb *strings.Builder, counts map[string]int) {
	sb.WriteString("## Component Counts\n\n")
	if len(counts) == 0 {
		sb.WriteString("None\n\n")
		return
	}

	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	slices.Sort(types)

	sb.WriteString("| Type | Count |\n")
	sb.WriteString("|---|---|\n")
	for _, t := range types {
		fmt.Fprintf(sb, "| %s | %d |\n", escapeTableValue(t), counts[t])
	}
	sb.WriteString("\n")
}

// formatOverrides lists "component.property=value" for every property whose
// winning layer is outside the declaring document.
func formatOverrides(inst Instance) string {
	var parts []string
	for _, c := range inst.Components {
		for _, p := range c.Properties {
			if p.Source != inst.Source {
				parts = append(parts, c.ID+"."+p.ID+"="+p.Value)
			}
		}
	}
	return strings.Join(parts, ", ")
}

func formatFloats(values []float64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	return strings.Join(parts, ", ")
}

func escapeTableValue(value string) string {
	if value == "" {
		return "-"
	}

	escaped := strings.ReplaceAll(value, "\r", "")
	escaped = strings.ReplaceAll(escaped, "\n", "<br>")
	escaped = strings.ReplaceAll(escaped, "|", "\\|")
	return escaped
}
