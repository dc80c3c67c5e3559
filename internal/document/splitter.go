package document

import (
	"github.com/nikhilbhutani/pdfchat/pkg/textextract"
)

// Splitter turns a document into ordered page texts.
type Splitter interface {
	Pages(data []byte) ([]string, error)
}

type PDFSplitter struct{}

func (PDFSplitter) Pages(data []byte) ([]string, error) {
	return textextract.PagesFromBytes(data)
}
