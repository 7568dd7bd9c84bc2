// Package google provides credential discovery and HTTP transport setup for Google APIs.
//
// Credentials come either from an explicit credentials file (service account
// or authorized user JSON) or from Application Default Credentials, which
// honours the GOOGLE_APPLICATION_CREDENTIALS environment variable. This
// package only reads that variable; it never sets it.
//
// TLS certificate verification is always on unless a caller opts out with
// ClientOptions.InsecureSkipVerify.
package google
