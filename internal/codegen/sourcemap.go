// VLQ (variable-length quantity) base64 encoding for Source Map v3
// mappings, as defined by the source-map spec. No library in the example
// pack implements this narrow, fully-specified binary encoding; it's
// written directly against the spec rather than adopting a dependency that
// would only ever be used for this one function.
package codegen

import "strings"

const base64Chars = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

// encodeVLQ appends the base64-VLQ encoding of value to sb.
func encodeVLQ(sb *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 0x1f
		v >>= 5
		if v > 0 {
			digit |= 0x20
		}
		sb.WriteByte(base64Chars[digit])
		if v == 0 {
			break
		}
	}
}

// SourceMap holds the Version-3 Source Map JSON fields (spec.md §6).
type SourceMap struct {
	Version        int      `json:"version"`
	File           string   `json:"file,omitempty"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent,omitempty"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// BuildSourceMap encodes mappings (already in final-output line/column
// space — the caller is responsible for the prelude/wrapping line shift
// spec.md §4.7 describes) into a Version-3 source map.
func BuildSourceMap(file string, sources []string, sourceContents []string, mappings []Mapping) *SourceMap {
	sm := &SourceMap{
		Version:        3,
		File:           file,
		Sources:        sources,
		SourcesContent: sourceContents,
		Names:          []string{},
		Mappings:       encodeMappings(mappings),
	}
	return sm
}

// encodeMappings renders Mappings into the VLQ "mappings" string. Segments
// within a line are separated by ',' and lines by ';'; each field is a
// delta from the previous segment's corresponding field, except
// generated-column deltas which reset to 0 at the start of each line and
// source-index/original-line/original-column which are cumulative across
// the whole file (per the Source Map v3 spec).
func encodeMappings(mappings []Mapping) string {
	var sb strings.Builder
	prevGenLine := 0
	prevGenCol := 0
	prevSrc := 0
	prevOrigLine := 0
	prevOrigCol := 0
	needComma := false

	for _, m := range mappings {
		for prevGenLine < m.GeneratedLine {
			sb.WriteByte(';')
			prevGenLine++
			prevGenCol = 0
			needComma = false
		}
		if needComma {
			sb.WriteByte(',')
		}
		needComma = true
		encodeVLQ(&sb, m.GeneratedColumn-prevGenCol)
		prevGenCol = m.GeneratedColumn
		encodeVLQ(&sb, 0-prevSrc) // single source per file; index always 0
		prevSrc = 0
		encodeVLQ(&sb, m.OriginalLine-prevOrigLine)
		prevOrigLine = m.OriginalLine
		encodeVLQ(&sb, m.OriginalColumn-prevOrigCol)
		prevOrigCol = m.OriginalColumn
	}
	return sb.String()
}

// ShiftLines returns a copy of mappings with every GeneratedLine increased
// by delta, for applying the prelude/async-IIFE line offset described in
// spec.md §4.7.
func ShiftLines(mappings []Mapping, delta int) []Mapping {
	out := make([]Mapping, len(mappings))
	for i, m := range mappings {
		m.GeneratedLine += delta
		out[i] = m
	}
	return out
}

// PrefixUseStrict returns the mappings string with a leading ';' prepended,
// accounting for the single-column "use strict"; prefix contributed to the
// first line (spec.md §4.7).
func PrefixUseStrict(mappings string) string {
	return ";" + mappings
}
