// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

// LineKind is what the parser sees in a single line.
type LineKind string

// Line kinds, in the order they are tested.
const (
	LineBoundary    LineKind = "boundary"
	LineDestination LineKind = "destination"
	LineAddress     LineKind = "address"
	LineCEP         LineKind = "cep"
	LineOther       LineKind = "other"
)

// LineInfo is one classified line.
type LineInfo struct {
	RawLine
	Kind       LineKind `json:"kind"`
	Pattern    string   `json:"pattern,omitempty"` // boundary pattern that matched
	ObjectCode string   `json:"object_code,omitempty"`
	CEP        string   `json:"cep,omitempty"`
}

// ClassifyLines segments text and tells, line by line, which rule of the
// item builder applies. It is a debugging aid for new manifest layouts.
func (p *Parser) ClassifyLines(text string) []LineInfo {
	lines := SegmentLines(text)
	ret := make([]LineInfo, 0, len(lines))

	for _, line := range lines {
		info := LineInfo{RawLine: line, Kind: LineOther}
		info.CEP, _ = ExtractCEP(line.Text)

		switch bm, ok := detectBoundary(p.patterns, line.Text); {
		case ok:
			info.Kind = LineBoundary
			info.Pattern = string(bm.Kind)
			info.ObjectCode = bm.ObjectCode
		case isDestinationHint(line.Text):
			info.Kind = LineDestination
		case isAddressLine(line.Text):
			info.Kind = LineAddress
		case info.CEP != "":
			info.Kind = LineCEP
		}

		ret = append(ret, info)
	}

	return ret
}
