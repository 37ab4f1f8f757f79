// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

// rangeShaped reports whether the raw address of item still needs the range
// normalizer.
func rangeShaped(item *DeliveryItem) bool {
	return item.NormalizedAddress == "" && hasRangeMarkers(item.RawAddressLine)
}

// applyClean sets the normalized address from c. The item CEP is only filled
// when it was not read by the field extractor: the CEP captured by the range
// pattern can belong to a neighbouring block.
func applyClean(item *DeliveryItem, c CleanAddress) {
	item.NormalizedAddress = c.Canonical()
	if !item.HasCEP() && len(c.CEP) == 8 {
		item.CEP = c.CEP
	}
}

// Reconcile joins the items with the clean addresses found by
// ExtractCleanAddresses and returns new items; the input is not modified.
//
// Range-shaped items are resolved by three strategies, in order:
//
//  1. positional: the i-th range-shaped item takes the i-th clean address,
//     only when both lists have the same length;
//  2. CEP: an item still unresolved takes a clean address with its CEP;
//  3. manual: the range patterns are tried on the item's own raw line.
//
// A positional match is never revisited by the CEP strategy, even when the
// CEPs disagree. Items that stay unresolved are flagged FlagRangeUnresolved
// and keep an empty normalized address. Items without range syntax get
// their cleaned raw line as normalized address.
func Reconcile(items []*DeliveryItem, clean []CleanAddress) []*DeliveryItem {
	ret := make([]*DeliveryItem, len(items))

	var pending []*DeliveryItem

	for i, item := range items {
		c := *item
		c.Flags = append([]Flag(nil), item.Flags...)
		ret[i] = &c

		switch {
		case rangeShaped(&c):
			pending = append(pending, &c)
		case c.NormalizedAddress == "" && c.HasAddress():
			c.NormalizedAddress = cleanAddressLine(c.RawAddressLine)
		}
	}

	if len(pending) > 0 && len(pending) == len(clean) {
		for i, item := range pending {
			applyClean(item, clean[i])
		}

		pending = nil
	}

	used := make([]bool, len(clean))

	for _, item := range pending {
		if !item.HasCEP() {
			continue
		}

		if i := findByCEP(clean, used, item.CEP); i >= 0 {
			used[i] = true
			item.NormalizedAddress = clean[i].Canonical()
		}
	}

	for _, item := range pending {
		if item.NormalizedAddress != "" {
			continue
		}

		if c, ok := matchRangeLine(item.RawAddressLine); ok {
			applyClean(item, c)

			continue
		}

		item.AddFlag(FlagRangeUnresolved)
	}

	return ret
}

// findByCEP prefers a clean address not yet taken by another item.
func findByCEP(clean []CleanAddress, used []bool, cep string) int {
	first := -1

	for i, c := range clean {
		if c.CEP != cep {
			continue
		}

		if !used[i] {
			return i
		}

		if first < 0 {
			first = i
		}
	}

	return first
}
