package logging

import (
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAttributes(t *testing.T) {
	tests := []struct {
		name    string
		attr    slog.Attr
		wantKey string
		wantVal string
	}{
		{"operation", Operation("share"), KeyOperation, "share"},
		{"tool", Tool("drive_quota"), KeyTool, "drive_quota"},
		{"file id", FileID("abc"), KeyFileID, "abc"},
		{"error", Err(errors.New("boom")), KeyError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantKey, tt.attr.Key)
			assert.Equal(t, tt.wantVal, tt.attr.Value.String())
		})
	}
}

func TestErr_Nil(t *testing.T) {
	assert.Empty(t, Err(nil).Key)
}

func TestAnonymizeEmail(t *testing.T) {
	assert.Empty(t, AnonymizeEmail(""))
	assert.Empty(t, AnonymizeEmail("   "))

	a := AnonymizeEmail("a@x.com")
	assert.True(t, strings.HasPrefix(a, "user:"))
	assert.Len(t, a, len("user:")+16)
	assert.NotContains(t, a, "x.com")
	assert.Equal(t, a, AnonymizeEmail(" A@X.com "))
	assert.NotEqual(t, a, AnonymizeEmail("b@x.com"))

	attr := UserHash("a@x.com")
	assert.Equal(t, KeyUserHash, attr.Key)
	assert.Equal(t, a, attr.Value.String())
}

func TestExtractDomain(t *testing.T) {
	tests := map[string]string{
		"a@example.com":    "example.com",
		"JANE@Example.COM": "example.com",
		"":                 "",
		"no-at":            "",
		"user@":            "",
		"@example.com":     "",
		"a@b@c":            "",
	}
	for in, want := range tests {
		assert.Equal(t, want, ExtractDomain(in), "ExtractDomain(%q)", in)
	}
}
