package storage

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractPublicID(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://res.cloudinary.com/demo/image/upload/v1712345/housecup/posts/abc.webp", "housecup/posts/abc"},
		{"https://res.cloudinary.com/demo/image/upload/housecup/vortex.png", "housecup/vortex"},
		{"https://res.cloudinary.com/demo/image/upload/", ""},
		{"https://example.com/no/marker.png", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, extractPublicID(tt.url), tt.url)
	}
}

func TestSniffImage(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")
	r, mtype, err := SniffImage(bytes.NewReader(png))
	require.NoError(t, err)
	assert.Equal(t, "image/png", mtype)
	assert.Equal(t, int64(len(png)), r.Size())

	_, _, err = SniffImage(bytes.NewReader([]byte("plain text, not an image")))
	assert.ErrorIs(t, err, ErrUnsupportedImage)

	_, _, err = SniffImage(bytes.NewReader(make([]byte, MaxImageSize+1)))
	assert.ErrorIs(t, err, ErrUnsupportedImage)
}
