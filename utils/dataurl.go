package utils

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ParseImageDataURI decodes a "data:image/<fmt>;base64,<payload>" string and
// verifies the payload actually looks like an image. Returns the declared
// content type and the decoded bytes.
func ParseImageDataURI(s string) (string, []byte, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return "", nil, errors.New("invalid image data URI")
	}
	meta := parts[0]

	if !strings.HasPrefix(meta, "data:") || !strings.Contains(meta, ";base64") {
		return "", nil, errors.New("invalid image data URI")
	}

	mediaType := strings.TrimPrefix(meta, "data:")
	contentType := strings.SplitN(mediaType, ";", 2)[0]
	if !strings.HasPrefix(contentType, "image/") {
		return "", nil, fmt.Errorf("unsupported content type %q", contentType)
	}

	data, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return "", nil, fmt.Errorf("failed to decode image: %w", err)
	}
	if len(data) == 0 {
		return "", nil, errors.New("empty image payload")
	}

	// Sniff the bytes; a well-formed data URI can still carry a non-image.
	if sniffed := http.DetectContentType(data); !strings.HasPrefix(sniffed, "image/") {
		return "", nil, fmt.Errorf("payload is not an image (detected %s)", sniffed)
	}

	return contentType, data, nil
}

// ImageExtension picks a file extension for an image content type.
func ImageExtension(contentType string) string {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		parts := strings.SplitN(contentType, "/", 2)
		if len(parts) == 2 {
			return "." + parts[1]
		}
		return ""
	}
}
