package google

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

const authorizedUserJSON = `{
  "type": "authorized_user",
  "client_id": "client.apps.googleusercontent.com",
  "client_secret": "secret",
  "refresh_token": "refresh"
}`

func writeCredentials(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(authorizedUserJSON), 0600))
	return path
}

func TestFindCredentials_File(t *testing.T) {
	path := writeCredentials(t, "user.json")

	creds, err := FindCredentials(context.Background(), path, DriveScopes...)
	require.NoError(t, err)
	assert.NotNil(t, creds.TokenSource)
	assert.JSONEq(t, authorizedUserJSON, string(creds.JSON))
}

func TestFindCredentials_MissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")

	_, err := FindCredentials(context.Background(), path, DriveScopes...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestFindCredentials_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0600))

	_, err := FindCredentials(context.Background(), path, DriveScopes...)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse credentials file")
}

func TestFindCredentials_ApplicationDefault(t *testing.T) {
	path := writeCredentials(t, "adc.json")
	t.Setenv(CredentialsEnvVar, path)

	creds, err := FindCredentials(context.Background(), "", DriveScopes...)
	require.NoError(t, err)
	assert.JSONEq(t, authorizedUserJSON, string(creds.JSON))
}

func TestNewHTTPClient(t *testing.T) {
	path := writeCredentials(t, "user.json")

	client, err := NewHTTPClient(context.Background(), ClientOptions{
		CredentialsFile: path,
		Scopes:          DriveScopes,
	})
	require.NoError(t, err)

	transport, ok := client.Transport.(*oauth2.Transport)
	require.True(t, ok, "expected *oauth2.Transport, got %T", client.Transport)
	assert.NotNil(t, transport.Source)
	assert.NotNil(t, transport.Base)
}

func TestNewHTTPClient_DoesNotSetEnvironment(t *testing.T) {
	t.Setenv(CredentialsEnvVar, "/from/env.json")
	path := writeCredentials(t, "user.json")

	_, err := NewHTTPClient(context.Background(), ClientOptions{CredentialsFile: path, Scopes: DriveScopes})
	require.NoError(t, err)
	assert.Equal(t, "/from/env.json", os.Getenv(CredentialsEnvVar))
}

func TestNewTransport(t *testing.T) {
	tests := []struct {
		name     string
		insecure bool
	}{
		{"verification on", false},
		{"verification off", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := NewTransport(tt.insecure)
			assert.False(t, transport.ForceAttemptHTTP2)
			if tt.insecure {
				require.NotNil(t, transport.TLSClientConfig)
				assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
			} else if transport.TLSClientConfig != nil {
				assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
			}
		})
	}
}

func TestDriveScopes(t *testing.T) {
	assert.Equal(t, []string{"https://www.googleapis.com/auth/drive"}, DriveScopes)
}
