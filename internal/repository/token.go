package repository

import (
	"context"
	"encoding/json"
	"strings"
)

// TokenReader reads the bearer token from storage on every call.
type TokenReader struct {
	r Interface
}

func TokenSource(r Interface) *TokenReader {
	return &TokenReader{r: r}
}

func (t *TokenReader) Token(ctx context.Context) (string, error) {
	v, found, err := t.r.Get(ctx, KeyToken)
	if err != nil || !found {
		return "", err
	}

	return normalizeToken(v), nil
}

// normalizeToken accepts tokens stored JSON-quoted by older clients.
func normalizeToken(v string) string {
	v = strings.TrimSpace(v)
	if strings.HasPrefix(v, `"`) {
		var unquoted string
		if err := json.Unmarshal([]byte(v), &unquoted); err == nil {
			return unquoted
		}
	}
	return v
}
