// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func rangeItem(code, raw, cep string) *DeliveryItem {
	return &DeliveryItem{ObjectCode: code, RawAddressLine: raw, CEP: cep}
}

func TestReconcilePositional(t *testing.T) {
	items := []*DeliveryItem{
		rangeItem("AC 000 000 001 BR", "Rua Alfa - de 1/2 a 9/10, 5", "38400001"),
		rangeItem("AC 000 000 002 BR", "Rua Goiás, 100", "38400100"),
		rangeItem("AC 000 000 003 BR", "Rua Beta - até 7/8, 3", ""),
	}
	clean := []CleanAddress{
		{Variant: RangeFromTo, Street: "Rua Alfa", Number: "5", CEP: "38400001"},
		{Variant: RangeUpTo, Street: "Rua Beta", Number: "3", CEP: "38400002"},
	}

	got := Reconcile(items, clean)

	expected := []string{"Rua Alfa, 5", "Rua Goiás, 100", "Rua Beta, 3"}
	for i, item := range got {
		assert.Equal(t, expected[i], item.NormalizedAddress)
		assert.Empty(t, item.Flags)
	}

	// a CEP missing from the item is taken from the range
	assert.Equal(t, "38400002", got[2].CEP)
}

// The positional strategy runs first and is never revisited: when both
// lists have the same length the i-th clean address is taken even if its
// CEP belongs to another item.
func TestReconcilePositionalWinsOverCEP(t *testing.T) {
	items := []*DeliveryItem{
		rangeItem("AC 000 000 001 BR", "Rua Alfa - de 1/2 a 9/10, 5 CEP: 38400001", "38400001"),
		rangeItem("AC 000 000 002 BR", "Rua Beta - até 7/8, 3 CEP: 38400002", "38400002"),
	}
	clean := []CleanAddress{
		{Variant: RangeUpTo, Street: "Rua Beta", Number: "3", CEP: "38400002"},
		{Variant: RangeFromTo, Street: "Rua Alfa", Number: "5", CEP: "38400001"},
	}

	got := Reconcile(items, clean)

	assert.Equal(t, "Rua Beta, 3", got[0].NormalizedAddress)
	assert.Equal(t, "38400001", got[0].CEP)
	assert.Equal(t, "Rua Alfa, 5", got[1].NormalizedAddress)
	assert.Equal(t, "38400002", got[1].CEP)
}

func TestReconcileByCEPThenManual(t *testing.T) {
	items := []*DeliveryItem{
		rangeItem("AC 000 000 001 BR", "Rua Alfa - de 1/2 a 9/10, 5 CEP: 38400001", "38400001"),
		rangeItem("AC 000 000 002 BR", "Rua Beta - até 7/8", "38400002"),
		rangeItem("AC 000 000 003 BR", "Rua Gama - de 4/5 a", "38400003"),
	}
	clean := []CleanAddress{
		{Variant: RangeUpTo, Street: "Rua Beta", Number: "3", CEP: "38400002"},
	}

	got := Reconcile(items, clean)

	// manual fallback on its own line
	assert.Equal(t, "Rua Alfa, 5", got[0].NormalizedAddress)
	// CEP correspondence
	assert.Equal(t, "Rua Beta, 3", got[1].NormalizedAddress)
	// nothing worked
	assert.Empty(t, got[2].NormalizedAddress)
	assert.True(t, got[2].HasFlag(FlagRangeUnresolved))
	assert.Equal(t, "Rua Gama - de 4/5 a", got[2].Address())

	for _, item := range got {
		assert.False(t, hasRangeMarkers(item.NormalizedAddress))
	}
}

func TestReconcileKeepsExtractedCEP(t *testing.T) {
	items := []*DeliveryItem{
		rangeItem("AC 000 000 001 BR", "Rua Alfa - de 1/2 a 9/10, 5 CEP: 38400999", "38400001"),
	}
	clean := []CleanAddress{
		{Variant: RangeFromTo, Street: "Rua Alfa", Number: "5", CEP: "38400999"},
	}

	got := Reconcile(items, clean)
	assert.Equal(t, "38400001", got[0].CEP)
	assert.Equal(t, "Rua Alfa, 5", got[0].NormalizedAddress)
}

func TestReconcileDoesNotModifyInput(t *testing.T) {
	items := []*DeliveryItem{
		rangeItem("AC 000 000 001 BR", "Rua Gama - de 4/5 a", ""),
		rangeItem("AC 000 000 002 BR", "Rua Goiás, 100 CEP: 38400100", "38400100"),
	}
	before := []DeliveryItem{*items[0], *items[1]}

	got := Reconcile(items, nil)

	if diff := cmp.Diff(before, []DeliveryItem{*items[0], *items[1]}); diff != "" {
		t.Errorf("Reconcile modified its input (-before +after):\n%s", diff)
	}

	assert.True(t, got[0].HasFlag(FlagRangeUnresolved))
	assert.Equal(t, "Rua Goiás, 100", got[1].NormalizedAddress)
}

func TestReconcileSlashAddressIsNotARange(t *testing.T) {
	items := []*DeliveryItem{
		rangeItem("AC 000 000 001 BR", "Rua Alfa - de 1/2 a 9/10", "38400999"),
		rangeItem("AC 000 000 002 BR", "Rua Goiás, 45/102", "38400100"),
		rangeItem("AC 000 000 003 BR", "Av. Brasil, 10 / 12 fundos", "38400200"),
	}
	clean := []CleanAddress{
		{Variant: RangeFromTo, Street: "Rua Alfa", Number: "5", CEP: "38400001"},
	}

	got := Reconcile(items, clean)

	expected := []string{"Rua Alfa, 5", "Rua Goiás, 45/102", "Av. Brasil, 10 / 12 fundos"}
	for i, item := range got {
		assert.Equal(t, expected[i], item.NormalizedAddress)
		assert.Empty(t, item.Flags)
	}
}

func TestParseApartmentNumber(t *testing.T) {
	m := NewParser(ParserOptions{}).Parse("001 AC 000 000 001 BR 1-\nRua Goiás, 45/102\nCEP: 38400100")
	if assert.Len(t, m.Items, 1) {
		assert.Equal(t, "Rua Goiás, 45/102", m.Items[0].NormalizedAddress)
		assert.False(t, m.Items[0].HasFlag(FlagRangeUnresolved))
	}
}
