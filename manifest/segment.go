// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"strings"
	"unicode/utf8"
)

const minLineLength = 3

var lineEndings = strings.NewReplacer("\r\n", "\n", "\r", "\n")

// normalizeLineEndings maps \r\n and \r to \n.
func normalizeLineEndings(text string) string {
	return lineEndings.Replace(text)
}

// SegmentLines splits OCR text into trimmed lines, dropping empty lines and
// lines shorter than three characters (OCR specks, stray punctuation).
func SegmentLines(text string) []RawLine {
	var ret []RawLine

	for i, line := range strings.Split(normalizeLineEndings(text), "\n") {
		line = strings.TrimSpace(line)
		if utf8.RuneCountInString(line) < minLineLength {
			continue
		}

		ret = append(ret, RawLine{Index: i, Text: line})
	}

	return ret
}
