package slug

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"
)

const maxAttempts = 1000

var (
	ErrEmptySlug = errors.New("slug base is empty")
	ErrExhausted = errors.New("no free slug suffix found")
)

// ExistsFunc проверяет, занят ли кандидат в целевой коллекции (без учета регистра)
type ExistsFunc func(ctx context.Context, candidate string) (bool, error)

// Slugify: нижний регистр, любые последовательности не [a-z0-9] заменяются одним "-"
func Slugify(name string) string {
	var b strings.Builder
	pendingDash := false

	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingDash = false
			b.WriteRune(r)
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// Generate возвращает base, либо base-1, base-2, ... - первый свободный вариант
func Generate(ctx context.Context, name string, exists ExistsFunc) (string, error) {
	base := Slugify(name)
	if base == "" {
		return "", ErrEmptySlug
	}

	candidate := base
	for i := 1; i <= maxAttempts; i++ {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", fmt.Errorf("%w for %q", ErrExhausted, base)
}
