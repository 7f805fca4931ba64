package camera

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
)

// PlaceholderGray is the color of the image served before any frame arrives.
var PlaceholderGray = color.RGBA{R: 0x70, G: 0x70, B: 0x70, A: 0xff}

// Placeholder returns a solid gray image of the given size.
func Placeholder(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: PlaceholderGray}, image.Point{}, draw.Src)
	return img
}

// Encode encodes img in the configured format.
func Encode(img image.Image, cfg FeedConfig) ([]byte, error) {
	var buf bytes.Buffer
	switch cfg.Format {
	case FormatPNG:
		if err := png.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case FormatJPEG:
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: cfg.Quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, cfg.Format)
	}
	return buf.Bytes(), nil
}

// Decode decodes a PNG or JPEG frame.
func Decode(data []byte) (image.Image, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	if format != FormatPNG && format != FormatJPEG {
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return img, nil
}

// Boundary separates the parts of a multipart stream.
const Boundary = "frame"

// StreamContentType is the Content-Type of a multipart frame stream.
const StreamContentType = "multipart/x-mixed-replace; boundary=" + Boundary

// Part wraps one encoded frame as a multipart stream part.
func Part(data []byte, contentType string) []byte {
	header := "--" + Boundary + "\r\nContent-Type: " + contentType + "\r\n\r\n"
	out := make([]byte, 0, len(header)+len(data)+2)
	out = append(out, header...)
	out = append(out, data...)
	return append(out, "\r\n"...)
}
