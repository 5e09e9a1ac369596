package storage

import (
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(Config{BasePath: t.TempDir(), BaseURL: "/media/"})
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, "endpoints/abc/logo.png", strings.NewReader("png"), "image/png"))

	ok, err := s.Exists(ctx, "endpoints/abc/logo.png")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Open(ctx, "endpoints/abc/logo.png")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "png", string(data))

	assert.Equal(t, "/media/endpoints/abc/logo.png", s.URL("endpoints/abc/logo.png"))

	require.NoError(t, s.Delete(ctx, "endpoints/abc/logo.png"))
	ok, err = s.Exists(ctx, "endpoints/abc/logo.png")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCleanKey(t *testing.T) {
	got, err := cleanKey("../../etc/passwd")
	require.NoError(t, err)
	assert.Equal(t, "etc/passwd", got)

	_, err = cleanKey("")
	assert.ErrorIs(t, err, ErrInvalidPath)
}
