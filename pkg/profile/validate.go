package profile

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"

	// Register decoders for the formats profile photos are served in
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/JoshTKx/actress-webscraper/pkg/config"
	"github.com/JoshTKx/actress-webscraper/pkg/errors"
)

// ValidateImage checks that a downloaded payload is a real photo: it
// must decode as an image, meet the minimum dimensions, and clear the
// minimum file size. Payloads that fail are discarded by the caller.
func ValidateImage(data []byte, cfg config.ImageConfig) error {
	if int64(len(data)) < cfg.MinFileSize {
		return errors.New(errors.ErrorTypeInvalidImage,
			fmt.Sprintf("image file too small: %d bytes (min %d)", len(data), cfg.MinFileSize), 0)
	}

	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return errors.New(errors.ErrorTypeInvalidImage,
			fmt.Sprintf("payload is not a decodable image: %v", err), 0)
	}

	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < cfg.MinWidth || height < cfg.MinHeight {
		return errors.New(errors.ErrorTypeInvalidImage,
			fmt.Sprintf("image too small: %dx%d (min %dx%d)", width, height, cfg.MinWidth, cfg.MinHeight), 0)
	}

	return nil
}
