package slug

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func existsIn(taken ...string) ExistsFunc {
	set := make(map[string]bool, len(taken))
	for _, s := range taken {
		set[strings.ToLower(s)] = true
	}
	return func(_ context.Context, candidate string) (bool, error) {
		return set[strings.ToLower(candidate)], nil
	}
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "hello-world", Slugify("Hello World"))
	assert.Equal(t, "weather-api-v2", Slugify("  Weather API -- v2!! "))
	assert.Equal(t, "a-b", Slugify("a___b"))
	assert.Equal(t, "", Slugify("!!!"))
	assert.Equal(t, "", Slugify(""))
}

func TestGenerate(t *testing.T) {
	ctx := context.Background()

	got, err := Generate(ctx, "Hello World", existsIn())
	require.NoError(t, err)
	assert.Equal(t, "hello-world", got)

	got, err = Generate(ctx, "Hello World", existsIn("hello-world"))
	require.NoError(t, err)
	assert.Equal(t, "hello-world-1", got)

	got, err = Generate(ctx, "Hello World", existsIn("hello-world", "hello-world-1"))
	require.NoError(t, err)
	assert.Equal(t, "hello-world-2", got)
}

func TestGenerate_CaseInsensitive(t *testing.T) {
	got, err := Generate(context.Background(), "Maps", existsIn("MAPS"))
	require.NoError(t, err)
	assert.Equal(t, "maps-1", got)
}

func TestGenerate_EmptyBase(t *testing.T) {
	_, err := Generate(context.Background(), "???", existsIn())
	assert.ErrorIs(t, err, ErrEmptySlug)
}

func TestGenerate_PropagatesLookupError(t *testing.T) {
	boom := errors.New("db down")
	_, err := Generate(context.Background(), "x", func(context.Context, string) (bool, error) {
		return false, boom
	})
	assert.ErrorIs(t, err, boom)
}
