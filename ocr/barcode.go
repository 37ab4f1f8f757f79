// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

package ocr

import (
	"image"
	"image/draw"
	"sort"

	"github.com/clenio77/rota-facil/manifest"
	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/oned"
)

// bandDivisions are the number of horizontal bands the image is split into
// on each pass, finest first. A one-dimensional reader returns a single
// barcode per image, so the stacked barcodes of a manifest only come out
// band by band.
var bandDivisions = []int{32, 16, 8, 4, 1}

type subImager interface {
	SubImage(r image.Rectangle) image.Image
}

func crop(img image.Image, r image.Rectangle) image.Image {
	if si, ok := img.(subImager); ok {
		return si.SubImage(r)
	}

	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)

	return dst
}

// bands returns the horizontal bands of b, overlapping by half a band.
func bands(b image.Rectangle, n int) []image.Rectangle {
	h := b.Dy() / n
	if h < 8 {
		return nil
	}

	var ret []image.Rectangle

	for y := b.Min.Y; y+h <= b.Max.Y; y += h / 2 {
		ret = append(ret, image.Rect(b.Min.X, y, b.Max.X, y+h))
	}

	return ret
}

func decodeCode128(img image.Image) (string, bool) {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", false
	}

	hints := map[gozxing.DecodeHintType]any{gozxing.DecodeHintType_TRY_HARDER: true}

	result, err := oned.NewCode128Reader().Decode(bmp, hints)
	if err != nil {
		return "", false
	}

	return result.GetText(), true
}

// ScanObjectCodesImage returns the object codes of the Code 128 barcodes in
// img, in canonical form, top to bottom.
func ScanObjectCodesImage(img image.Image) []string {
	top := map[string]int{}

	for _, n := range bandDivisions {
		for _, r := range bands(img.Bounds(), n) {
			text, ok := decodeCode128(crop(img, r))
			if !ok {
				continue
			}

			code := manifest.NormalizeObjectCode(text)
			if code == "" {
				continue
			}

			// the finest band that reads a code locates it
			if _, seen := top[code]; !seen {
				top[code] = r.Min.Y + r.Dy()/2
			}
		}
	}

	ret := make([]string, 0, len(top))
	for code := range top {
		ret = append(ret, code)
	}

	sort.Slice(ret, func(i, j int) bool {
		if top[ret[i]] != top[ret[j]] {
			return top[ret[i]] < top[ret[j]]
		}

		return ret[i] < ret[j]
	})

	return ret
}

// ScanObjectCodes decodes an encoded image and scans its barcodes.
func ScanObjectCodes(data []byte) ([]string, error) {
	img, _, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	return ScanObjectCodesImage(img), nil
}
