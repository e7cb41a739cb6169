package storage

import (
	"fmt"
	"net/http"

	"github.com/8Gelos8/tournament-manager-online/internal/bracket"
	"github.com/google/uuid"
)

// MaxLogoSize bounds club logo uploads.
const MaxLogoSize = 2 << 20

var logoExtensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// LogoKey validates a club logo and returns the object key to store it under.
// The content type is sniffed from the first bytes of the file, never taken from the client.
func LogoKey(head []byte, size int64) (key, contentType string, err error) {
	if size <= 0 {
		return "", "", fmt.Errorf("%w: logo is empty", bracket.ErrValidation)
	}
	if size > MaxLogoSize {
		return "", "", fmt.Errorf("%w: logo is %d bytes, limit is %d", bracket.ErrValidation, size, MaxLogoSize)
	}

	contentType = http.DetectContentType(head)
	ext, ok := logoExtensions[contentType]
	if !ok {
		return "", "", fmt.Errorf("%w: unsupported logo type %q", bracket.ErrValidation, contentType)
	}
	return "clubs/" + uuid.NewString() + ext, contentType, nil
}
