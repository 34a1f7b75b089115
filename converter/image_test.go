package converter

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"fileconverter/formats"
)

func jpegPayload(t *testing.T, width, height int) Payload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r := uint8((x * 255) / width)
			g := uint8((y * 255) / height)
			img.Set(x, y, color.RGBA{r, g, 128, 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("Failed to encode test image: %v", err)
	}
	return Payload{Filename: "input.jpg", MIME: "image/jpeg", Data: buf.Bytes()}
}

func TestImageConvertJPEGToPNG(t *testing.T) {
	d := newTestDispatcher(t)

	h, err := d.Resolve(formats.CategoryImage, "jpg", "png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	out, err := d.Invoke(context.Background(), h, jpegPayload(t, 64, 48))
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}

	if out.Filename != "input.png" {
		t.Errorf("Expected output filename input.png, got %q", out.Filename)
	}
	if out.MIME != "image/png" {
		t.Errorf("Expected image/png, got %q", out.MIME)
	}
	img, err := png.Decode(bytes.NewReader(out.Data))
	if err != nil {
		t.Fatalf("Failed to decode output as PNG: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != 64 || bounds.Dy() != 48 {
		t.Errorf("Expected dimensions 64x48, got %dx%d", bounds.Dx(), bounds.Dy())
	}
}

func TestImageConvertRejectsGarbage(t *testing.T) {
	d := newTestDispatcher(t)

	h, err := d.Resolve(formats.CategoryImage, "jpg", "png")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	_, err = d.Invoke(context.Background(), h, Payload{
		Filename: "broken.jpg",
		MIME:     "image/jpeg",
		Data:     []byte("not an image"),
	})
	if err == nil {
		t.Fatal("Expected error for malformed input, got nil")
	}
}
