package converter

import (
	"bytes"
	"context"
	"fmt"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	// Registers the WebP decoder with image.Decode for webp sources.
	_ "golang.org/x/image/webp"
)

var imageEncodings = map[string]imaging.Format{
	"jpg": imaging.JPEG,
	"png": imaging.PNG,
	"bmp": imaging.BMP,
}

var imageMIMEs = map[string]string{
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"bmp":  "image/bmp",
	"webp": "image/webp",
}

// encodeImage returns a converter that decodes the source raster and
// re-encodes it in the target format.
func (d *Dispatcher) encodeImage(target string, jpegQuality int) ConvertFunc {
	return func(ctx context.Context, in Payload) (Payload, error) {
		format, ok := imageEncodings[target]
		if !ok {
			return Payload{}, fmt.Errorf("no image encoder for %q", target)
		}

		src, err := imaging.Decode(bytes.NewReader(in.Data))
		if err != nil {
			return Payload{}, fmt.Errorf("failed to decode image: %w", err)
		}
		if err := ctx.Err(); err != nil {
			return Payload{}, err
		}

		var buf bytes.Buffer
		var encodeOpts []imaging.EncodeOption
		if format == imaging.JPEG {
			encodeOpts = append(encodeOpts, imaging.JPEGQuality(jpegQuality))
		}
		if err := imaging.Encode(&buf, src, format, encodeOpts...); err != nil {
			return Payload{}, fmt.Errorf("failed to encode %s: %w", target, err)
		}

		if d.logger != nil {
			d.logger.Info("Image re-encoded",
				zap.String("input", in.Filename),
				zap.String("format", target),
				zap.Int("width", src.Bounds().Dx()),
				zap.Int("height", src.Bounds().Dy()),
			)
		}
		return Payload{
			Filename: replaceExt(in.Filename, "."+target),
			MIME:     imageMIMEs[target],
			Data:     buf.Bytes(),
		}, nil
	}
}
