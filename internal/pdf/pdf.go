// Package pdf downloads PDF documents and extracts their text.
package pdf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrNotPDF is returned when a download is not a PDF document.
var ErrNotPDF = errors.New("response is not a pdf document")

var magic = []byte("%PDF-")

// IsPDFURL reports whether the URL path ends in ".pdf", ignoring case and query.
func IsPDFURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.HasSuffix(strings.ToLower(u.Path), ".pdf")
}

// LooksLikePDF reports whether a response is a PDF by content type or signature.
func LooksLikePDF(contentType string, body []byte) bool {
	if strings.Contains(strings.ToLower(contentType), "pdf") {
		return true
	}
	return bytes.HasPrefix(bytes.TrimLeft(body, "\x00\t\r\n "), magic)
}

// ExtractText returns the plain text of every page. The parser panics on some
// malformed documents; that is reported as an error.
func ExtractText(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("parse pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	plain, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	var buf strings.Builder
	if _, err = io.Copy(&buf, plain); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return buf.String(), nil
}
