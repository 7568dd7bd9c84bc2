package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// Attribute keys shared by the client logs and the audit log.
const (
	KeyOperation = "operation"
	KeyTool      = "tool"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyUserHash  = "user_hash"
	KeyFileID    = "file_id"
	KeyDuration  = "duration"
)

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func FileID(id string) slog.Attr {
	return slog.String(KeyFileID, id)
}

// Err returns an error attribute. A nil err yields an empty group, which
// slog drops from the output.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a stable hash of email so log lines can be
// correlated without exposing the address.
func AnonymizeEmail(email string) string {
	email = normalizeEmail(email)
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(email))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns an attribute with the anonymized email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// ExtractDomain returns the lower-cased domain of an email address, or ""
// when email is not of the form local@domain.
func ExtractDomain(email string) string {
	local, domain, ok := strings.Cut(normalizeEmail(email), "@")
	if !ok || local == "" || domain == "" || strings.Contains(domain, "@") {
		return ""
	}
	return domain
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
