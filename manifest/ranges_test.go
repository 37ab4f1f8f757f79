// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
)

var ignoreOffsets = cmpopts.IgnoreFields(CleanAddress{}, "Start", "End")

func TestExtractCleanAddressesVariants(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected CleanAddress
	}{
		{
			"de a",
			"Rua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400650",
			CleanAddress{RangeFromTo, "Rua Rio Grande do Sul", "956", "38400650", 0, 0},
		},
		{
			"de a without hyphen",
			"Rua Tiradentes de 10 a 200, 12 CEP: 38400-123",
			CleanAddress{RangeFromToNoHyphen, "Rua Tiradentes", "12", "38400123", 0, 0},
		},
		{
			"ate",
			"Avenida Amazonas - até 1469/1470, 232 CEP: 38400734",
			CleanAddress{RangeUpTo, "Avenida Amazonas", "232", "38400734", 0, 0},
		},
		{
			"ate without hyphen",
			"Avenida Amazonas até 1469/1470, 232 CEP: 38400734",
			CleanAddress{RangeUpToNoHyphen, "Avenida Amazonas", "232", "38400734", 0, 0},
		},
		{
			"ate without accent",
			"AV AMAZONAS - ATE 1469/1470, 232 CEP 38400734",
			CleanAddress{RangeUpTo, "AV AMAZONAS", "232", "38400734", 0, 0},
		},
		{
			"de ate",
			"Rua Olegário Maciel - de 2/3 até 100/101, 50 CEP: 38400090",
			CleanAddress{RangeFromUpTo, "Rua Olegário Maciel", "50", "38400090", 0, 0},
		},
		{
			"no delivery number",
			"Rua Sem Saída - até 99/100 CEP: 38400000",
			CleanAddress{RangeUpTo, "Rua Sem Saída", "", "38400000", 0, 0},
		},
		{
			"split by OCR",
			"Rua Rio Grande do Sul - de 240/241\na 1533/1534, 956\nCEP: 38400650",
			CleanAddress{RangeFromTo, "Rua Rio Grande do Sul", "956", "38400650", 0, 0},
		},
		{
			"letter suffix",
			"Rua Goiás - de 1/2 a 99/100, 45a CEP: 38.400-100",
			CleanAddress{RangeFromTo, "Rua Goiás", "45A", "38400100", 0, 0},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got := ExtractCleanAddresses(test.input)
			if diff := cmp.Diff([]CleanAddress{test.expected}, got, ignoreOffsets); diff != "" {
				t.Errorf("ExtractCleanAddresses() mismatch (-want +got):\n%s", diff)
			}

			assert.False(t, hasRangeMarkers(got[0].Canonical()))
		})
	}
}

func TestExtractCleanAddressesOrder(t *testing.T) {
	text := "001 AC 973 482 100 BR 1-\n" +
		"Rua Olegário Maciel - de 2/3 até 100/101, 50 CEP: 38400090\n" +
		"002 AC 973 482 101 BR 2-\n" +
		"Avenida Amazonas - até 1469/1470, 232 CEP: 38400734\n" +
		"003 AC 973 482 102 BR 3-\n" +
		"Rua Rio Grande do Sul - de 240/241 a 1533/1534, 956 CEP: 38400650\n" +
		"Rua Goiás, 100 CEP: 38400100\n"

	got := ExtractCleanAddresses(text)

	var canonical []string
	for _, c := range got {
		canonical = append(canonical, c.Canonical())
	}

	expected := []string{"Rua Olegário Maciel, 50", "Avenida Amazonas, 232", "Rua Rio Grande do Sul, 956"}
	if diff := cmp.Diff(expected, canonical); diff != "" {
		t.Errorf("ExtractCleanAddresses() order mismatch (-want +got):\n%s", diff)
	}

	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].End, got[i].Start+1)
	}
}

func TestHasRangeMarkers(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"Rua X - de 240/241 a 1533/1534, 956", true},
		{"Avenida Y - até 1469/1470, 232", true},
		{"Avenida Y ate 1469/1470", true},
		{"Rua X de 10 a 200, 12", true},
		{"Rua X, 956", false},
		{"Rua da Saudade, 12", false},
		{"Rua X, apto 3/4", false},
		{"Rua A, 1", false},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, hasRangeMarkers(test.input))
		})
	}
}

func TestMatchRangeLineManualFallback(t *testing.T) {
	tests := []struct {
		line     string
		expected string
		ok       bool
	}{
		{"Rua Tiradentes - de 10/11 a 90/91, 45", "Rua Tiradentes, 45", true},
		{"Rua Tiradentes-de 10/11 até 90/91, 45 CEP: 38400111", "Rua Tiradentes, 45", true},
		{"Avenida Brasil - até 300/301, 7", "Avenida Brasil, 7", true},
		{"Rua Goiás - de 10/11 a", "", false},
		{"Rua Goiás, 100", "", false},
	}

	for _, test := range tests {
		t.Run(test.line, func(t *testing.T) {
			got, ok := matchRangeLine(test.line)
			assert.Equal(t, test.ok, ok)
			assert.Equal(t, test.expected, got.Canonical())
		})
	}
}
