// Copyright 2025 The Rota Fácil Authors
// SPDX-License-Identifier: Apache-2.0

// Package textutils provides text folding and decoding helpers shared by the
// manifest parser, the geocoders and the OCR providers.
package textutils

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes accents, lowercases, squashes and trims spaces.
func Fold(s string) string {
	s, _, _ = transform.String(
		transform.Chain(
			norm.NFD,
			runes.Remove(runes.In(unicode.Mn)),
			norm.NFC,
		),
		strings.ToLower(s),
	)

	return Squash(s)
}

// Squash collapses every run of white space into a single space.
func Squash(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// some exports are UTF-8 read as Latin-1 and saved again
var mojibake = strings.NewReplacer(
	"Ã¡", "á",
	"Ã¢", "â",
	"Ã£", "ã",
	"Ã§", "ç",
	"Ã©", "é",
	"Ãª", "ê",
	"Ã­", "í",
	"Ã³", "ó",
	"Ã´", "ô",
	"Ãµ", "õ",
	"Ãº", "ú",
	"Âº", "º",
	"Âª", "ª",
)

// ErrCharsetMismatch is returned when decoded text still holds replacement
// characters.
var ErrCharsetMismatch = errors.New("charset mismatch")

// NewReader decodes r into UTF-8. The charset is taken from contentType when
// it names one, and sniffed from the first bytes otherwise, so Windows-1252
// and ISO-8859-1 exports of OCR text are read correctly.
func NewReader(r io.Reader, contentType string) (io.Reader, error) {
	if contentType == "" {
		contentType = "text/plain"
	}

	rr, err := charset.NewReader(r, contentType)
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", contentType, err)
	}

	return rr, nil
}

// ReadText reads a whole text document, decoding its charset and repairing
// double-encoded accents.
func ReadText(r io.Reader, contentType string) (string, error) {
	rr, err := NewReader(r, contentType)
	if err != nil {
		return "", err
	}

	b, err := io.ReadAll(rr)
	if err != nil {
		return "", fmt.Errorf("reading text: %w", err)
	}

	s := mojibake.Replace(string(b))
	if strings.ContainsRune(s, utf8.RuneError) {
		return s, fmt.Errorf("%w: %q", ErrCharsetMismatch, firstLineWith(s, utf8.RuneError))
	}

	return s, nil
}

func firstLineWith(s string, r rune) string {
	for line := range strings.SplitSeq(s, "\n") {
		if strings.ContainsRune(line, r) {
			return strings.TrimSpace(line)
		}
	}

	return ""
}

// IsHOCR reports whether b looks like an hOCR document (Tesseract HTML output).
func IsHOCR(b []byte) bool {
	head := bytes.ToLower(b[:min(len(b), 2048)])

	return bytes.Contains(head, []byte("ocr_page")) || bytes.Contains(head, []byte("ocr-system"))
}

// HOCRToText flattens an hOCR document into plain text, one line per
// ocr_line element, words separated by a single space.
func HOCRToText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", fmt.Errorf("parsing hOCR: %w", err)
	}

	var lines []string

	var walk func(n *html.Node)

	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocr_line", "ocrx_line", "ocr_caption", "ocr_header") {
			sb := strings.Builder{}
			nodeText(n, &sb)

			if line := Squash(sb.String()); line != "" {
				lines = append(lines, line)
			}

			return
		}

		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}

	walk(doc)

	return strings.Join(lines, "\n"), nil
}

func hasClass(n *html.Node, classes ...string) bool {
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}

		for c := range strings.FieldsSeq(a.Val) {
			for _, want := range classes {
				if c == want {
					return true
				}
			}
		}
	}

	return false
}

func nodeText(n *html.Node, sb *strings.Builder) {
	if n.Type == html.TextNode {
		if tmp := strings.TrimSpace(n.Data); tmp != "" {
			if sb.Len() != 0 {
				sb.WriteByte(' ')
			}

			sb.WriteString(tmp)
		}

		return
	}

	for child := n.FirstChild; child != nil; child = child.NextSibling {
		nodeText(child, sb)
	}
}
