// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRepairObjectCodes(t *testing.T) {
	items := []*DeliveryItem{
		{ObjectCode: "AC 973 482 10"},
		{ObjectCode: "BW 147 223 312 BR"},
		{ObjectCode: "BW 147 828 312 BR"},
		{ObjectCode: "ZZ 111 111 111 BR"},
		{ObjectCode: "AC 973 482 10"},
	}
	items[0].AddFlag(FlagInvalidObjectCode)

	RepairObjectCodes(items, []string{
		"AC973482100BR",
		"BW147223312BR",
		"BW 147 223 312 BR",
		"BW147828372BR",
		"not a code",
	})

	tests := []struct {
		code     string
		repaired bool
	}{
		{"AC 973 482 100 BR", true},
		{"BW 147 223 312 BR", false},
		{"BW 147 828 372 BR", true},
		{"ZZ 111 111 111 BR", false},
		// each scanned code repairs a single item
		{"AC 973 482 10", false},
	}

	for i, test := range tests {
		assert.Equal(t, test.code, items[i].ObjectCode, "item %d", i)
		assert.Equal(t, test.repaired, items[i].HasFlag(FlagObjectCodeRepaired), "item %d", i)
	}

	assert.False(t, items[0].HasFlag(FlagInvalidObjectCode))
}

func TestRepairObjectCodesWithoutScans(t *testing.T) {
	items := []*DeliveryItem{{ObjectCode: "AC 973 482 10"}}
	RepairObjectCodes(items, nil)
	assert.Equal(t, "AC 973 482 10", items[0].ObjectCode)
	assert.Empty(t, items[0].Flags)
}
