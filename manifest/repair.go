// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"github.com/agnivade/levenshtein"
)

// maxRepairDistance is the edit distance under which an OCR-read object
// code is replaced by a barcode-read one.
const maxRepairDistance = 2

// codeDistance compares compact codes. A fragment is compared against the
// prefix of the full code, since OCR usually loses the tail of the line.
func codeDistance(read, scanned string) int {
	d := levenshtein.ComputeDistance(read, scanned)
	if NormalizeObjectCode(read) == "" && len(read) < len(scanned) {
		d = min(d, levenshtein.ComputeDistance(read, scanned[:len(read)]))
	}

	return d
}

// RepairObjectCodes replaces OCR-read object codes with the closest code
// read from the barcodes of the same manifest. Each scanned code repairs at
// most one item, and codes already read exactly are left alone. Items are
// modified in place.
func RepairObjectCodes(items []*DeliveryItem, scanned []string) {
	var codes []string

	taken := map[string]bool{}

	for _, s := range scanned {
		c := NormalizeObjectCode(s)
		if _, dup := taken[c]; c == "" || dup {
			continue
		}

		taken[c] = false
		codes = append(codes, c)
	}

	if len(codes) == 0 {
		return
	}

	for _, item := range items {
		if _, ok := taken[item.ObjectCode]; ok {
			taken[item.ObjectCode] = true
		}
	}

	for _, item := range items {
		if _, exact := taken[item.ObjectCode]; exact {
			continue
		}

		read := compactCode(item.ObjectCode)
		best, bestDistance := "", maxRepairDistance+1

		for _, c := range codes {
			if taken[c] {
				continue
			}

			if d := codeDistance(read, compactCode(c)); d < bestDistance {
				best, bestDistance = c, d
			}
		}

		if best == "" {
			continue
		}

		taken[best] = true
		item.ObjectCode = best
		item.AddFlag(FlagObjectCodeRepaired)
		item.RemoveFlag(FlagInvalidObjectCode)
	}
}
