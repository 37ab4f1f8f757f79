// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package manifest

import (
	"regexp"
	"strings"
)

// builderState is the state of the item accumulator.
type builderState int

const (
	stateNoOpenItem builderState = iota
	stateOpenIncomplete
	stateOpenComplete
)

func (s builderState) String() string {
	switch s {
	case stateNoOpenItem:
		return "NoOpenItem"
	case stateOpenIncomplete:
		return "OpenIncomplete"
	case stateOpenComplete:
		return "OpenComplete"
	}

	return "unknown"
}

// accumulator is threaded through the fold over the manifest lines.
type accumulator struct {
	state builderState
	open  *DeliveryItem
	done  []*DeliveryItem
}

// lineEvent is one line, classified.
type lineEvent struct {
	line     RawLine
	boundary *boundaryMatch
}

var leadingARRegex = regexp.MustCompile(`^X\b\s*`)

func newItem(bm *boundaryMatch) *DeliveryItem {
	return &DeliveryItem{
		ObjectCode:   bm.ObjectCode,
		ListPosition: bm.ListPosition,
	}
}

// applyBoundaryLine folds the object-code line into item. An earlier code
// wins unless it was a fragment and this one is a full code.
func applyBoundaryLine(item *DeliveryItem, ev lineEvent) {
	bm := ev.boundary

	if item.ObjectCode == "" || (!IsValidObjectCode(item.ObjectCode) && IsValidObjectCode(bm.ObjectCode)) {
		item.ObjectCode = bm.ObjectCode
	}

	if item.ListPosition == 0 {
		item.ListPosition = bm.ListPosition
	}

	if !item.ARRequired && arRegex.MatchString(ev.line.Text) {
		item.ARRequired = true
	}

	// single-line OCR sometimes keeps the address after the code
	rest := strings.TrimSpace(ev.line.Text[bm.End:])
	rest = strings.TrimSpace(leadingARRegex.ReplaceAllString(rest, ""))
	extractFields(item, rest)
}

func stateOf(item *DeliveryItem) builderState {
	if item.HasAddress() {
		return stateOpenComplete
	}

	return stateOpenIncomplete
}

// transition is the single transition function of the item builder.
//
// A boundary line opens an item when none is open, and closes the open item
// only when it already has an address: consecutive object-code lines are
// usually one item split or duplicated by OCR, so they are folded together.
func transition(acc accumulator, ev lineEvent) accumulator {
	switch {
	case ev.boundary == nil && acc.state == stateNoOpenItem:
		// header or noise before the first item
		return acc
	case ev.boundary == nil:
		extractFields(acc.open, ev.line.Text)
		acc.state = stateOf(acc.open)

		return acc
	case acc.state == stateOpenComplete:
		acc.done = append(acc.done, acc.open)

		fallthrough
	case acc.state == stateNoOpenItem:
		acc.open = newItem(ev.boundary)
	}

	applyBoundaryLine(acc.open, ev)
	acc.state = stateOf(acc.open)

	return acc
}

// buildItems groups lines into items.
func buildItems(patterns []boundaryPattern, lines []RawLine) []*DeliveryItem {
	acc := accumulator{state: stateNoOpenItem}

	for _, line := range lines {
		ev := lineEvent{line: line}
		if bm, ok := detectBoundary(patterns, line.Text); ok {
			ev.boundary = bm
		}

		acc = transition(acc, ev)
	}

	if acc.open != nil {
		acc.done = append(acc.done, acc.open)
	}

	return acc.done
}
