package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"strings"
)

// ErrUnsupportedImage is returned for payloads that are not a raster image
// accepted as a profile picture.
var ErrUnsupportedImage = errors.New("unsupported image type")

// SplitDataURL returns the mime type and base64 body of a data URL. Plain
// base64 input is treated as image/jpeg.
func SplitDataURL(value string) (string, string) {
	if !strings.HasPrefix(value, "data:") {
		return "image/jpeg", value
	}

	value = strings.TrimPrefix(value, "data:")
	parts := strings.SplitN(value, ";base64,", 2)
	if len(parts) != 2 {
		return "image/jpeg", ""
	}
	return parts[0], parts[1]
}

// DecodeImagePayload decodes an inline base64 or data URL image and returns
// the raw bytes together with a file extension. The extension comes from
// sniffing the bytes, so a mislabelled data URL cannot smuggle other content.
func DecodeImagePayload(payload string, maxBytes int) ([]byte, string, error) {
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return nil, "", fmt.Errorf("empty image payload")
	}

	_, base64Payload := SplitDataURL(trimmed)
	base64Payload = strings.TrimSpace(base64Payload)
	if base64Payload == "" {
		return nil, "", fmt.Errorf("empty base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(base64Payload)
	if err != nil {
		return nil, "", fmt.Errorf("decode base64: %w", err)
	}
	if maxBytes > 0 && len(data) > maxBytes {
		return nil, "", fmt.Errorf("image exceeds %d bytes", maxBytes)
	}

	ext := ExtensionFromMime(http.DetectContentType(data))
	if ext == "" {
		return nil, "", ErrUnsupportedImage
	}
	return data, ext, nil
}

// ExtensionFromMime maps raster image mime types to a file extension.
func ExtensionFromMime(mimeType string) string {
	if mimeType == "" {
		return ""
	}
	if parsed, _, err := mime.ParseMediaType(mimeType); err == nil {
		mimeType = parsed
	}

	switch strings.ToLower(mimeType) {
	case "image/png":
		return "png"
	case "image/jpeg", "image/jpg":
		return "jpg"
	case "image/webp":
		return "webp"
	case "image/gif":
		return "gif"
	default:
		return ""
	}
}
