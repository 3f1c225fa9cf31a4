// Package normalize converts uploaded artifacts into ordered page images
// ready for the extraction backend. Page order within a PDF and upload order
// across files must survive normalization: the backend is told the booking
// may be split across images and uses their order as a locality hint.
package normalize

import (
	"context"
	"fmt"

	"github.com/exileautomate/flightbot/internal/session"
)

// PageImage is one rasterized page or photo. Transient: produced for a
// single extraction call and never persisted.
type PageImage struct {
	// Data holds raster bytes, PNG unless the decode fallback kicked in.
	Data []byte
	// Source is the original filename the page came from.
	Source string
	// Page is the zero-based page index within the source file.
	Page int
}

// Normalize turns raw artifact bytes into page images. For images the result
// is a single page; for PDFs one page image per page in page order. An empty
// PDF yields an empty slice and no error: the file contributed nothing. The
// context carries the update's log metadata only; normalization itself does
// not block.
func Normalize(ctx context.Context, raw []byte, kind session.FileKind, name string) ([]PageImage, error) {
	switch kind {
	case session.KindPDF:
		return pdfPages(raw, name)
	case session.KindImage:
		return []PageImage{{Data: imageToPNG(ctx, raw), Source: name}}, nil
	default:
		return nil, fmt.Errorf("normalize: unsupported file kind %q", kind)
	}
}
