// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestClassifyLines(t *testing.T) {
	text := scenarioA + "\nUberlândia - MG/BR\nASSINATURA"

	expected := []LineInfo{
		{
			RawLine:    RawLine{Index: 0, Text: "013 AC 973 482 100 BR 13-"},
			Kind:       LineBoundary,
			Pattern:    "canonical",
			ObjectCode: "AC 973 482 100 BR",
		},
		{RawLine: RawLine{Index: 1, Text: "CEP: 38400650"}, Kind: LineCEP, CEP: "38400650"},
		{
			RawLine: RawLine{Index: 2, Text: "Rua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400650"},
			Kind:    LineAddress,
			CEP:     "38400650",
		},
		{RawLine: RawLine{Index: 3, Text: "Uberlândia - MG/BR"}, Kind: LineDestination},
		{RawLine: RawLine{Index: 4, Text: "ASSINATURA"}, Kind: LineOther},
	}

	got := NewParser(ParserOptions{}).ClassifyLines(text)
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("ClassifyLines() mismatch (-want +got):\n%s", diff)
	}
}
