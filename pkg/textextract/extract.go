package textextract

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

var ErrNotPDF = errors.New("not a PDF document")

var pdfMagic = []byte("%PDF-")

// LooksLikePDF reports whether head starts with the PDF file signature.
func LooksLikePDF(head []byte) bool {
	return bytes.HasPrefix(head, pdfMagic)
}

// Pages returns the plain text of every physical page in order. Pages with
// no content, or whose content cannot be decoded, yield an empty string.
func Pages(data io.ReaderAt, size int64) (pages []string, err error) {
	head := make([]byte, len(pdfMagic))
	if _, err := data.ReadAt(head, 0); err != nil || !LooksLikePDF(head) {
		return nil, ErrNotPDF
	}

	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("open PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(data, size)
	if err != nil {
		return nil, fmt.Errorf("open PDF: %w", err)
	}

	n := reader.NumPage()
	pages = make([]string, n)
	for i := 1; i <= n; i++ {
		pages[i-1] = pageText(reader, i)
	}
	return pages, nil
}

func pageText(reader *pdf.Reader, i int) (text string) {
	defer func() {
		if recover() != nil {
			text = ""
		}
	}()

	page := reader.Page(i)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return Clean(text)
}

// Clean makes extracted text storable as Postgres TEXT: NUL bytes are
// dropped and invalid UTF-8 sequences are replaced with U+FFFD.
func Clean(text string) string {
	text = strings.ReplaceAll(text, "\x00", "")
	text = strings.ToValidUTF8(text, "\uFFFD")
	return strings.TrimSpace(text)
}

// PagesFromBytes is Pages over an in-memory document.
func PagesFromBytes(data []byte) ([]string, error) {
	return Pages(bytes.NewReader(data), int64(len(data)))
}
