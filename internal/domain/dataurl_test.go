package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pictor-cli/internal/domain"
)

func TestEncodeDataURL_UsesReportedContentType(t *testing.T) {
	uri := domain.EncodeDataURL("image/jpeg", []byte{0xff, 0xd8, 0xff})
	assert.Equal(t, "data:image/jpeg;base64,/9j/", uri)
}

func TestEncodeDataURL_FallsBackToGenericImageMIME(t *testing.T) {
	uri := domain.EncodeDataURL("", []byte("png-bytes"))
	assert.True(t, len(uri) > 0)
	assert.Contains(t, uri, "data:image/png;base64,")
}

func TestDecodeDataURL_RoundTrips(t *testing.T) {
	payload := []byte("fake image body")
	uri := domain.EncodeDataURL("image/webp", payload)

	mimeType, data, err := domain.DecodeDataURL(uri)

	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)
	assert.Equal(t, payload, data)
}

func TestDecodeDataURL_RejectsNonDataURIs(t *testing.T) {
	_, _, err := domain.DecodeDataURL("https://example.com/image.png")
	assert.Error(t, err)
}

func TestDecodeDataURL_RejectsNonBase64Form(t *testing.T) {
	_, _, err := domain.DecodeDataURL("data:text/plain,hello")
	assert.Error(t, err)
}
