package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/drivefacade/internal/drive"
)

func writeTestConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, Validate(cfg))

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, drive.RoleWriter, cfg.Share.Role)
	assert.True(t, cfg.Share.TransferOwnership)
	assert.True(t, cfg.Share.SendNotificationEmail)
	assert.False(t, cfg.InsecureSkipVerify)
	assert.False(t, cfg.Server.Yolo)
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTestConfig(t, `
credentials_file = "/etc/drivefacade/sa.json"
insecure_skip_verify = true
endpoint = "http://localhost:8080/"
batch_endpoint = "http://localhost:8080/batch/drive/v3"
page_size = 100
log_level = "debug"
log_format = "json"

[share]
role = "reader"
transfer_ownership = false
send_notification_email = false

[server]
metrics_addr = "127.0.0.1:9090"
yolo = true
allow_local_paths = true
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/etc/drivefacade/sa.json", cfg.CredentialsFile)
	assert.True(t, cfg.InsecureSkipVerify)
	assert.Equal(t, int64(100), cfg.PageSize)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, ShareConfig{Role: "reader"}, cfg.Share)
	assert.Equal(t, ServerConfig{MetricsAddr: "127.0.0.1:9090", Yolo: true, AllowLocalPaths: true}, cfg.Server)

	dc := cfg.DriveConfig()
	assert.Equal(t, "/etc/drivefacade/sa.json", dc.CredentialsFile)
	assert.Equal(t, "http://localhost:8080/", dc.Endpoint)
	assert.Equal(t, "http://localhost:8080/batch/drive/v3", dc.BatchEndpoint)
	assert.Equal(t, "reader", dc.Share.Role)
	assert.False(t, dc.Share.TransferOwnership)
}

func TestLoad_PartialKeepsDefaults(t *testing.T) {
	path := writeTestConfig(t, `log_level = "warn"`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, drive.RoleWriter, cfg.Share.Role)
	assert.True(t, cfg.Share.TransferOwnership)
}

func TestLoad_UnknownKey(t *testing.T) {
	path := writeTestConfig(t, `
log_levl = "debug"

[share]
rol = "reader"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "log_levl", did you mean "log_level"?`)
	assert.Contains(t, err.Error(), `unknown config key "share.rol", did you mean "share.role"?`)
}

func TestLoad_UnknownKeyWithoutSuggestion(t *testing.T) {
	path := writeTestConfig(t, `completely_unrelated_setting = 1`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown config key "completely_unrelated_setting"`)
	assert.NotContains(t, err.Error(), "did you mean")
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := writeTestConfig(t, `log_level = `)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeTestConfig(t, `
log_level = "chatty"
log_format = "xml"
page_size = -1

[share]
role = "admin"

[server]
metrics_addr = "9090"
`)

	_, err := Load(path)
	require.Error(t, err)
	for _, want := range []string{"log_level", "log_format", "page_size", "share.role", "server.metrics_addr"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoadOrDefault_Missing(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestClosestMatch(t *testing.T) {
	assert.Equal(t, "page_size", closestMatch("pagesize", knownKeys))
	assert.Equal(t, "server.yolo", closestMatch("server.yolo", knownKeys))
	assert.Empty(t, closestMatch("zzzzzzzzzzzz", knownKeys))
}

func TestLevenshtein(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"", "abc", 3},
		{"kitten", "sitting", 3},
		{"role", "role", 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, levenshtein(tt.a, tt.b), "%q vs %q", tt.a, tt.b)
	}
}
