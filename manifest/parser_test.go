// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	scenarioA = "013 AC 973 482 100 BR 13-\n" +
		"CEP: 38400650\n" +
		"Rua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400650"
	scenarioB = "016 BW 147 223 312 BR 16-\n" +
		"CEP: 38400734\n" +
		"Avenida Amazonas - até 1469/1470, 232 CEP: 38400734"
	fullManifest = "EMPRESA BRASILEIRA DE CORREIOS E TELEGRAFOS\n" +
		"Lista: 2024123\n" +
		"Unidade: 12345678 - CDD UBERLANDIA\n" +
		"Distrito: 7\n" +
		"UBERLANDIA - MG/BR\n" +
		"001 AC 973 482 100 BR 1- X\n" +
		"Rua Goiás, 100\n" +
		"CEP: 38400-100\n" +
		"Uberlândia - MG/BR\n" +
		"002 BW 147 223 312 BR 2-\n" +
		"Avenida Amazonas - até 1469/1470, 232 CEP: 38400734\n" +
		"003 OY 123 456 789 BR 3-\n"
)

func TestParseScenarioA(t *testing.T) {
	m := NewParser(ParserOptions{}).Parse(scenarioA)

	expected := []*DeliveryItem{{
		Sequence:          1,
		ListPosition:      13,
		ObjectCode:        "AC 973 482 100 BR",
		RawAddressLine:    "Rua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400650",
		NormalizedAddress: "Rua Rio Grande do Sul, 956",
		CEP:               "38400650",
	}}

	if diff := cmp.Diff(expected, m.Items); diff != "" {
		t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
	}
}

func TestParseScenarioB(t *testing.T) {
	m := NewParser(ParserOptions{}).Parse(scenarioB)

	require.Len(t, m.Items, 1)
	assert.Equal(t, "BW 147 223 312 BR", m.Items[0].ObjectCode)
	assert.Equal(t, "Avenida Amazonas, 232", m.Items[0].NormalizedAddress)
	assert.Equal(t, "38400734", m.Items[0].CEP)
}

func TestParseUnrecognizedManifest(t *testing.T) {
	for _, text := range []string{
		"",
		"Relatório de entregas\nNenhum objeto hoje\nCEP 38400-650",
		"Rua Goiás, 100\nRua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400650",
	} {
		m := NewParser(ParserOptions{}).Parse(text)
		assert.False(t, m.Recognized(), "%q", text)
		assert.Empty(t, m.Items)
	}
}

func TestParseFoldsConsecutiveBoundaries(t *testing.T) {
	text := "013 AC 973 482 100 BR 13-\n" +
		"014 AC 973 482 101 BR 14-\n" +
		"Rua Goiás, 100\n" +
		"CEP: 38400100"

	m := NewParser(ParserOptions{}).Parse(text)

	require.Len(t, m.Items, 1)
	assert.Equal(t, "AC 973 482 100 BR", m.Items[0].ObjectCode)
	assert.Equal(t, "Rua Goiás, 100", m.Items[0].NormalizedAddress)
	assert.Equal(t, "38400100", m.Items[0].CEP)
	assert.Equal(t, 13, m.Items[0].ListPosition)
}

func TestParseFragmentFollowedByFullCode(t *testing.T) {
	text := "AC 973 482 10\n" +
		"013 AC 973 482 100 BR 13-\n" +
		"Rua Goiás, 100 CEP: 38400100"

	m := NewParser(ParserOptions{}).Parse(text)

	require.Len(t, m.Items, 1)
	assert.Equal(t, "AC 973 482 100 BR", m.Items[0].ObjectCode)
	assert.Equal(t, 13, m.Items[0].ListPosition)
	assert.Empty(t, m.Items[0].Flags)
}

func TestParseNoLostItems(t *testing.T) {
	for _, n := range []int{1, 2, 5, 30} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			sb := strings.Builder{}
			for i := 1; i <= n; i++ {
				fmt.Fprintf(&sb, "%03d AC %03d 482 100 BR %d-\n", i, i, i)
				fmt.Fprintf(&sb, "Rua Número %d, %d\n", i, i*10)
				fmt.Fprintf(&sb, "CEP: 38400%03d\n", i)
			}

			m := NewParser(ParserOptions{}).Parse(sb.String())
			require.Len(t, m.Items, n)

			for i, item := range m.Items {
				assert.Equal(t, i+1, item.Sequence)
				assert.Equal(t, fmt.Sprintf("AC %03d 482 100 BR", i+1), item.ObjectCode)
				assert.Equal(t, fmt.Sprintf("38400%03d", i+1), item.CEP)
			}
		})
	}
}

func TestParseResolvesEveryRange(t *testing.T) {
	text := "001 AC 000 000 001 BR 1-\n" +
		"Rua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400650\n" +
		"002 AC 000 000 002 BR 2-\n" +
		"Rua Tiradentes de 10 a 200, 12 CEP: 38400123\n" +
		"003 AC 000 000 003 BR 3-\n" +
		"Avenida Amazonas - até 1469/1470, 232 CEP: 38400734\n" +
		"004 AC 000 000 004 BR 4-\n" +
		"Avenida Brasil até 1/2, 8 CEP: 38400200\n" +
		"005 AC 000 000 005 BR 5-\n" +
		"Rua Olegário Maciel - de 2/3 até 100/101, 50 CEP: 38400090\n" +
		"006 AC 000 000 006 BR 6-\n" +
		"Rua Goiás, 100 CEP: 38400100\n" +
		"Rua Extra - de 1/2 a 3/4, 5 CEP: 38400000\n"

	m := NewParser(ParserOptions{}).Parse(text)

	expected := []string{
		"Rua Rio Grande do Sul, 956",
		"Rua Tiradentes, 12",
		"Avenida Amazonas, 232",
		"Avenida Brasil, 8",
		"Rua Olegário Maciel, 50",
		"Rua Goiás, 100",
	}

	var got []string
	for _, item := range m.Items {
		got = append(got, item.NormalizedAddress)
		assert.False(t, hasRangeMarkers(item.NormalizedAddress), item.NormalizedAddress)
		assert.False(t, item.HasFlag(FlagRangeUnresolved))
	}

	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("normalized addresses mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNeverOverwritesExtractedCEP(t *testing.T) {
	text := "013 AC 973 482 100 BR 13-\n" +
		"CEP: 38400650\n" +
		"Rua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400999"

	m := NewParser(ParserOptions{}).Parse(text)

	require.Len(t, m.Items, 1)
	assert.Equal(t, "38400650", m.Items[0].CEP)
	assert.Equal(t, "Rua Rio Grande do Sul, 956", m.Items[0].NormalizedAddress)
}

func TestParseDuplicatedCapture(t *testing.T) {
	m, metrics := NewParser(ParserOptions{}).ParseWithMetrics(scenarioA+"\n"+scenarioA, nil)

	require.Len(t, m.Items, 1)
	assert.Equal(t, 1, m.Items[0].Sequence)
	assert.Equal(t, "Rua Rio Grande do Sul, 956", m.Items[0].NormalizedAddress)
	assert.Equal(t, 1, metrics.Duplicates)
}

func TestParseFullManifest(t *testing.T) {
	m, metrics := NewParser(ParserOptions{}).ParseWithMetrics(fullManifest, nil)

	expectedHeader := Header{
		ListNumber: "2024123",
		UnitCode:   "12345678",
		UnitName:   "CDD UBERLANDIA",
		District:   "7",
		City:       "UBERLANDIA",
		State:      "MG",
	}
	if diff := cmp.Diff(expectedHeader, m.Header); diff != "" {
		t.Errorf("header mismatch (-want +got):\n%s", diff)
	}

	expected := []*DeliveryItem{
		{
			Sequence:          1,
			ListPosition:      1,
			ObjectCode:        "AC 973 482 100 BR",
			RawAddressLine:    "Rua Goiás, 100",
			NormalizedAddress: "Rua Goiás, 100",
			CEP:               "38400100",
			ARRequired:        true,
			DestinationHint:   "Uberlândia - MG/BR",
		},
		{
			Sequence:          2,
			ListPosition:      2,
			ObjectCode:        "BW 147 223 312 BR",
			RawAddressLine:    "Avenida Amazonas - até 1469/1470, 232 CEP: 38400734",
			NormalizedAddress: "Avenida Amazonas, 232",
			CEP:               "38400734",
		},
		{
			Sequence:     3,
			ListPosition: 3,
			ObjectCode:   "OY 123 456 789 BR",
			CEP:          CEPUnknown,
			Flags:        []Flag{FlagPartial},
		},
	}
	if diff := cmp.Diff(expected, m.Items); diff != "" {
		t.Errorf("items mismatch (-want +got):\n%s", diff)
	}

	expectedMetrics := &ParseMetrics{Lines: 12, Items: 3, Ranges: 1, Partial: 1}
	if diff := cmp.Diff(expectedMetrics, metrics); diff != "" {
		t.Errorf("metrics mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, []*DeliveryItem{m.Items[2]}, m.Flagged())

	for _, item := range m.Items {
		assert.NoError(t, item.Validate())
	}
}

func TestParseRepairsFromBarcodes(t *testing.T) {
	text := "001 AC 973 482 10\n" +
		"Rua Goiás, 100 CEP: 38400100\n"

	m := NewParser(ParserOptions{}).Parse(text)
	require.Len(t, m.Items, 1)
	assert.Equal(t, "AC 973 482 10", m.Items[0].ObjectCode)
	assert.Equal(t, []Flag{FlagInvalidObjectCode}, m.Items[0].Flags)

	m, metrics := NewParser(ParserOptions{}).ParseWithMetrics(text, []string{"AC973482100BR"})
	require.Len(t, m.Items, 1)
	assert.Equal(t, 1, metrics.Repaired)
	assert.Equal(t, "AC 973 482 100 BR", m.Items[0].ObjectCode)
	assert.Equal(t, []Flag{FlagObjectCodeRepaired}, m.Items[0].Flags)
}

func TestParseIsDeterministic(t *testing.T) {
	p := NewParser(ParserOptions{})
	first := p.Parse(fullManifest)

	for range 10 {
		if diff := cmp.Diff(first, p.Parse(fullManifest)); diff != "" {
			t.Fatalf("Parse() is not deterministic:\n%s", diff)
		}
	}
}

func TestExtractHeader(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Header
	}{
		{"empty", "", Header{}},
		{
			"state without city",
			"Lista: A12\nDistrito: 03\nMG/BR",
			Header{ListNumber: "A12", District: "03", State: "MG"},
		},
		{
			"unit",
			"UNIDADE: 00123 - AC UBERABA\nUBERABA - MG / BR",
			Header{UnitCode: "00123", UnitName: "AC UBERABA", City: "UBERABA", State: "MG"},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if diff := cmp.Diff(test.expected, ExtractHeader(test.input)); diff != "" {
				t.Errorf("ExtractHeader() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
