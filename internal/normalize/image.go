package normalize

import (
	"bytes"
	"context"
	"image"
	"image/png"
	"log/slog"

	_ "image/gif"
	_ "image/jpeg"

	_ "golang.org/x/image/webp"

	"github.com/exileautomate/flightbot/core/logger"
)

// imageToPNG re-encodes any decodable raster format to PNG. When decoding
// fails the original bytes pass through unchanged: the extraction backend
// may still read formats we cannot, so degrading beats rejecting.
func imageToPNG(ctx context.Context, raw []byte) []byte {
	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		logger.Debug(ctx, "normalize", "image.passthrough",
			slog.String("reason", err.Error()),
		)
		return raw
	}
	if format == "png" {
		return raw
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return raw
	}
	return buf.Bytes()
}
