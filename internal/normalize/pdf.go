package normalize

import (
	"bytes"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// renderDPI matches a 2x scale over the 72 DPI PDF baseline; enough detail
// for the vision model without inflating the request payload.
const renderDPI = 144

// pdfPages rasterizes every page of a PDF in page order.
func pdfPages(raw []byte, name string) ([]PageImage, error) {
	count, err := api.PageCount(bytes.NewReader(raw), nil)
	if err != nil {
		return nil, fmt.Errorf("read pdf %s: %w", name, err)
	}
	if count == 0 {
		return []PageImage{}, nil
	}

	doc, err := fitz.NewFromMemory(raw)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", name, err)
	}
	defer doc.Close()

	pages := make([]PageImage, 0, doc.NumPage())
	for i := 0; i < doc.NumPage(); i++ {
		data, err := doc.ImagePNG(i, renderDPI)
		if err != nil {
			return nil, fmt.Errorf("render pdf %s page %d: %w", name, i+1, err)
		}
		pages = append(pages, PageImage{Data: data, Source: name, Page: i})
	}
	return pages, nil
}
