// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"strconv"

	"github.com/clenio77/rota-facil/utils/textutils"
)

// dedupKey is the compact object code, full or fragment, and the
// (cep, address) pair only for items without any code.
func dedupKey(item *DeliveryItem, i int) string {
	if item.ObjectCode != "" {
		return "code:" + compactCode(item.ObjectCode)
	}

	if addr := item.Address(); addr != "" {
		return "addr:" + item.CEP + "|" + textutils.Fold(addr)
	}

	return "item:" + strconv.Itoa(i)
}

// mergeInto fills the blanks of dst with the fields of src.
func mergeInto(dst, src *DeliveryItem) {
	if dst.ListPosition == 0 {
		dst.ListPosition = src.ListPosition
	}

	if !dst.HasAddress() {
		dst.RawAddressLine = src.RawAddressLine
	}

	if dst.NormalizedAddress == "" && src.NormalizedAddress != "" {
		dst.NormalizedAddress = src.NormalizedAddress
		dst.RemoveFlag(FlagRangeUnresolved)
	}

	if !dst.HasCEP() && src.HasCEP() {
		dst.CEP = src.CEP
	}

	if dst.DestinationHint == "" {
		dst.DestinationHint = src.DestinationHint
	}

	dst.ARRequired = dst.ARRequired || src.ARRequired

	for _, f := range src.Flags {
		if f == FlagObjectCodeRepaired {
			dst.AddFlag(f)
		}
	}
}

// Deduplicate collapses items captured more than once, as happens with
// overlapping photos of the same list. The survivor is the record with more
// populated fields (the first seen on ties), completed with the blanks of
// the others, and it keeps the position of the first occurrence.
func Deduplicate(items []*DeliveryItem) []*DeliveryItem {
	ret := make([]*DeliveryItem, 0, len(items))
	index := make(map[string]int, len(items))

	for i, item := range items {
		key := dedupKey(item, i)

		j, seen := index[key]
		if !seen {
			index[key] = len(ret)
			ret = append(ret, item)

			continue
		}

		kept := ret[j]
		if item.populated() > kept.populated() {
			kept, item = item, kept
			ret[j] = kept
		}

		mergeInto(kept, item)
	}

	return ret
}
