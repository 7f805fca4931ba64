package camera

import "errors"

var (
	// ErrUnknownFormat is returned for an image format other than PNG or JPEG.
	ErrUnknownFormat = errors.New("camera: unknown image format")

	// ErrSourceClosed is returned when the frame source connection ends.
	ErrSourceClosed = errors.New("camera: source closed")
)
