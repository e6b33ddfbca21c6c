package domain

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// FallbackImageMIME is used when an artifact response carries no
// content-type header.
const FallbackImageMIME = "image/png"

// EncodeDataURL converts a raw artifact payload into a base64 data URI.
// An empty mimeType falls back to FallbackImageMIME.
func EncodeDataURL(mimeType string, data []byte) string {
	if mimeType == "" {
		mimeType = FallbackImageMIME
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

// DecodeDataURL reverses EncodeDataURL, returning the MIME type and raw
// payload. It only accepts the base64 form this client produces.
func DecodeDataURL(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("not a data URI")
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: missing payload")
	}
	mimeType, ok := strings.CutSuffix(meta, ";base64")
	if !ok {
		return "", nil, fmt.Errorf("malformed data URI: not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("decoding data URI payload: %w", err)
	}
	if mimeType == "" {
		mimeType = FallbackImageMIME
	}
	return mimeType, data, nil
}
