package drive

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/teemow/drivefacade/internal/drive/drivetest"
	"github.com/teemow/drivefacade/internal/logging"
)

func newTestClient(t *testing.T, fake *drivetest.Server) *Client {
	t.Helper()
	c := NewClient(Config{
		HTTPClient:    fake.Client(),
		Endpoint:      fake.Endpoint(),
		BatchEndpoint: fake.BatchEndpoint(),
	})
	require.NoError(t, c.Init(context.Background()))
	return c
}

func TestSetCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "/env/original.json")

	c := NewClient(Config{CredentialsFile: "/config/first.json"})
	assert.Equal(t, "/config/first.json", c.CredentialsFile())

	c.SetCredentials("/tmp/a.json")
	c.SetCredentials("/tmp/b.json")
	assert.Equal(t, "/tmp/b.json", c.CredentialsFile())
	assert.Equal(t, "/env/original.json", os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
}

func TestInit_MissingCredentials(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing.json")
	c := NewClient(Config{})
	c.SetCredentials(path)

	err := c.Init(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInit)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Contains(t, err.Error(), path)
	assert.False(t, c.Initialized())
}

func TestOperationsBeforeInit(t *testing.T) {
	ctx := context.Background()
	c := NewClient(Config{})

	_, err := c.Quota(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.SearchFiles(ctx, "report")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.ListFiles(ctx, 10)
	assert.ErrorIs(t, err, ErrNotInitialized)

	err = c.ShowFiles(ctx, &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.DownloadFile(ctx, "id", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrNotInitialized)

	err = c.DeleteFile(ctx, "id")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.CreateFile(ctx, "/etc/hosts", "hosts")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.StoreFile(ctx, []byte("x"), "x.txt")
	assert.ErrorIs(t, err, ErrNotInitialized)

	_, err = c.ShareFile(ctx, "id", []string{"a@x.com"})
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestQuota(t *testing.T) {
	tests := []struct {
		name      string
		limit     string
		usage     string
		want      string
		exhausted bool
	}{
		{name: "space left", limit: "1000", usage: "400", want: "600 bytes available"},
		{name: "usage equals limit", limit: "1000", usage: "1000", exhausted: true},
		{name: "usage above limit", limit: "1000", usage: "1500", exhausted: true},
		{name: "no limit reported", usage: "123", want: "unlimited storage available"},
		{name: "zero limit", limit: "0", usage: "500", want: "unlimited storage available"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := drivetest.NewServer(t)
			fake.Limit = tt.limit
			fake.Usage = tt.usage
			c := newTestClient(t, fake)

			quota, err := c.Quota(context.Background())
			if tt.exhausted {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrQuotaExhausted)
				assert.NotErrorIs(t, err, ErrRequest)
				require.NotNil(t, quota)
				assert.LessOrEqual(t, quota.Available(), int64(0))
				assert.Equal(t, "quota exhausted", quota.String())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, quota.String())
		})
	}
}

func TestQuota_RequestFailure(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)
	fake.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	quota, err := c.Quota(ctx)
	require.Error(t, err)
	assert.Nil(t, quota)
	assert.ErrorIs(t, err, ErrRequest)
	assert.NotErrorIs(t, err, ErrQuotaExhausted)

	kind, ok := KindOf(err)
	assert.True(t, ok)
	assert.Equal(t, KindRequest, kind)
}

func TestQuota_HTTPFailure(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Fail[drivetest.OpAbout] = 401
	c := newTestClient(t, fake)

	_, err := c.Quota(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrRequest)
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.NotErrorIs(t, err, ErrQuotaExhausted)
}

func TestSearchFiles_AllPages(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Pages = [][]drivetest.File{
		{{ID: "1", Name: "report-q1"}, {ID: "2", Name: "report-q2"}},
		{{ID: "3", Name: "report-q3"}},
		{{ID: "4", Name: "report-q4"}, {ID: "5", Name: "report-final"}},
	}
	c := newTestClient(t, fake)

	files, err := c.SearchFiles(context.Background(), "report")
	require.NoError(t, err)

	want := []RemoteFile{
		{ID: "1", Name: "report-q1"},
		{ID: "2", Name: "report-q2"},
		{ID: "3", Name: "report-q3"},
		{ID: "4", Name: "report-q4"},
		{ID: "5", Name: "report-final"},
	}
	assert.Equal(t, want, files)
	require.Len(t, fake.Queries, 3)
	for _, q := range fake.Queries {
		assert.Equal(t, "name contains 'report'", q)
	}
}

func TestSearchFiles_NoResults(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)

	files, err := c.SearchFiles(context.Background(), "nothing")
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestSearchFiles_PageFailureDiscardsResults(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Pages = [][]drivetest.File{
		{{ID: "1", Name: "a"}},
		{{ID: "2", Name: "b"}},
	}
	fake.FailPage = 1
	c := newTestClient(t, fake)

	files, err := c.SearchFiles(context.Background(), "a")
	require.Error(t, err)
	assert.Nil(t, files)
	assert.ErrorIs(t, err, ErrRequest)
	assert.ErrorIs(t, err, ErrBadRequest)
}

func TestSearchFiles_PageSize(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := NewClient(Config{
		HTTPClient: fake.Client(),
		Endpoint:   fake.Endpoint(),
		PageSize:   25,
	})
	require.NoError(t, c.Init(context.Background()))

	_, err := c.SearchFiles(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, []string{"25"}, fake.PageSizes)
}

func TestSearchQuery(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "report", want: "name contains 'report'"},
		{in: "", want: "name contains ''"},
		{in: "bob's notes", want: `name contains 'bob\'s notes'`},
		{in: `back\slash`, want: `name contains 'back\\slash'`},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, searchQuery(tt.in))
		})
	}
}

func TestListFiles(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Pages = [][]drivetest.File{{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}}
	c := newTestClient(t, fake)

	files, err := c.ListFiles(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []RemoteFile{{ID: "1", Name: "a"}, {ID: "2", Name: "b"}}, files)
	assert.Equal(t, []string{"5"}, fake.PageSizes)

	_, err = c.ListFiles(context.Background(), 0)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestShowFiles(t *testing.T) {
	t.Run("files", func(t *testing.T) {
		fake := drivetest.NewServer(t)
		fake.Pages = [][]drivetest.File{{{ID: "id-1", Name: "notes.txt"}, {ID: "id-2", Name: "photo.png"}}}
		c := newTestClient(t, fake)

		var out bytes.Buffer
		require.NoError(t, c.ShowFiles(context.Background(), &out))
		assert.Equal(t, "Files:\nnotes.txt (id-1)\nphoto.png (id-2)\n", out.String())
		assert.Equal(t, []string{"10"}, fake.PageSizes)
	})

	t.Run("empty", func(t *testing.T) {
		fake := drivetest.NewServer(t)
		c := newTestClient(t, fake)

		var out bytes.Buffer
		require.NoError(t, c.ShowFiles(context.Background(), &out))
		assert.Equal(t, "No files found.\n", out.String())
	})
}

func TestDownloadFile(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Pages = [][]drivetest.File{{{ID: "doc-1", Name: "a.txt", Content: []byte("hello drive")}}}
	c := newTestClient(t, fake)

	var out bytes.Buffer
	n, err := c.DownloadFile(context.Background(), "doc-1", &out)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.Equal(t, "hello drive", out.String())

	_, err = c.DownloadFile(context.Background(), "missing", &out)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = c.DownloadFile(context.Background(), "", &out)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDeleteFile(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)

	require.NoError(t, c.DeleteFile(context.Background(), "file-42"))
	assert.Equal(t, []string{"file-42"}, fake.Deleted)

	err := c.DeleteFile(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Len(t, fake.Deleted, 1)
}

func TestDeleteFile_NotFound(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Fail[drivetest.OpDelete] = 404
	c := newTestClient(t, fake)

	err := c.DeleteFile(context.Background(), "gone")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)

	var de *Error
	require.True(t, errors.As(err, &de))
	assert.Equal(t, opDelete, de.Op)
	assert.Equal(t, 404, de.StatusCode)
}

func TestStoreFile(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)

	file, err := c.StoreFile(context.Background(), []byte("in memory"), "memo.txt")
	require.NoError(t, err)
	assert.Equal(t, "memo.txt", file.Name)
	assert.NotEmpty(t, file.ID)

	require.Len(t, fake.Uploads, 1)
	up := fake.Uploads[0]
	assert.Equal(t, "memo.txt", up.Name)
	assert.Equal(t, "multipart", up.UploadType)
	assert.Equal(t, OctetStream, up.MediaType)
	assert.Equal(t, []byte("in memory"), up.Data)
}

func TestCreateFile(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)

	path := filepath.Join(t.TempDir(), "local.bin")
	require.NoError(t, os.WriteFile(path, []byte{0x00, 0x01, 0x02}, 0o600))

	file, err := c.CreateFile(context.Background(), path, "remote.bin")
	require.NoError(t, err)
	assert.Equal(t, "remote.bin", file.Name)

	require.Len(t, fake.Uploads, 1)
	assert.Equal(t, []byte{0x00, 0x01, 0x02}, fake.Uploads[0].Data)
	assert.Equal(t, OctetStream, fake.Uploads[0].MediaType)
}

func TestCreateFile_MissingSource(t *testing.T) {
	fake := drivetest.NewServer(t)
	var logs bytes.Buffer
	c := NewClient(Config{
		HTTPClient: fake.Client(),
		Endpoint:   fake.Endpoint(),
		Logger:     logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&logs, nil))),
	})
	require.NoError(t, c.Init(context.Background()))
	spans := recordSpans(t)

	_, err := c.CreateFile(context.Background(), filepath.Join(t.TempDir(), "nope"), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSource)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, fake.Uploads)
	assert.Contains(t, logs.String(), "upload failed")

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "google.drive.create_file", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
}

// recordSpans installs a recording tracer provider for the test.
func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return recorder
}

func TestUpload_Failure(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Fail[drivetest.OpCreate] = 403
	var logs bytes.Buffer
	c := NewClient(Config{
		HTTPClient: fake.Client(),
		Endpoint:   fake.Endpoint(),
		Logger:     logging.NewSlogAdapter(slog.New(slog.NewTextHandler(&logs, nil))),
	})
	require.NoError(t, c.Init(context.Background()))

	file, err := c.StoreFile(context.Background(), []byte("x"), "x.txt")
	require.Error(t, err)
	assert.Nil(t, file)
	assert.ErrorIs(t, err, ErrRequest)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, logs.String(), "upload failed")
	assert.Contains(t, logs.String(), "x.txt")
}

func TestUpload_EmptyName(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)

	_, err := c.StoreFile(context.Background(), []byte("x"), "")
	assert.ErrorIs(t, err, ErrInvalidArgument)
	assert.Zero(t, fake.Requests)
}

func TestShareFile_SingleBatch(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)

	var modeDuringBatch bool
	fake.OnBatch = func() { modeDuringBatch = c.BatchMode() }

	result, err := c.ShareFile(context.Background(), "file-1", []string{"a@x.com", "b@y.com"})
	require.NoError(t, err)

	assert.Equal(t, 1, fake.BatchRequests)
	assert.Equal(t, 1, fake.Requests)
	require.Len(t, fake.Grants, 2)
	assert.True(t, modeDuringBatch)
	assert.False(t, c.BatchMode())

	for i, email := range []string{"a@x.com", "b@y.com"} {
		g := fake.Grants[i]
		assert.Equal(t, "file-1", g.FileID)
		assert.Equal(t, "user", g.Type)
		assert.Equal(t, RoleWriter, g.Role)
		assert.Equal(t, email, g.EmailAddress)
		assert.Equal(t, "true", g.Query["transferOwnership"])
		assert.Equal(t, "true", g.Query["sendNotificationEmail"])
		assert.Equal(t, "id", g.Query["fields"])
	}

	require.NoError(t, result.Err())
	assert.Equal(t, "file-1", result.FileID)
	require.Len(t, result.Grants, 2)
	assert.Equal(t, "a@x.com", result.Grants[0].EmailAddress)
	assert.Equal(t, "perm-1", result.Grants[0].PermissionID)
	assert.Equal(t, "b@y.com", result.Grants[1].EmailAddress)
	assert.Equal(t, "perm-2", result.Grants[1].PermissionID)
	assert.Zero(t, result.Failed())
}

func TestShareFile_BatchFailureRestoresMode(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.Fail[drivetest.OpBatch] = 403
	c := newTestClient(t, fake)

	_, err := c.ShareFile(context.Background(), "file-1", []string{"a@x.com", "b@y.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.Equal(t, 1, fake.BatchRequests)
	assert.False(t, c.BatchMode())
}

func TestShareFile_NestedModeRestored(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)

	release := c.enterBatchMode()
	_, err := c.ShareFile(context.Background(), "file-1", []string{"a@x.com"})
	require.NoError(t, err)
	assert.True(t, c.BatchMode())

	release()
	assert.False(t, c.BatchMode())
}

func TestShareFile_PartialFailure(t *testing.T) {
	fake := drivetest.NewServer(t)
	fake.RejectEmails["bad@x.com"] = 400
	c := newTestClient(t, fake)

	result, err := c.ShareFile(context.Background(), "file-1", []string{"ok@x.com", "bad@x.com"})
	require.NoError(t, err)
	require.Len(t, result.Grants, 2)

	assert.NoError(t, result.Grants[0].Err)
	assert.Equal(t, 200, result.Grants[0].StatusCode)

	assert.Error(t, result.Grants[1].Err)
	assert.ErrorIs(t, result.Grants[1].Err, ErrBadRequest)
	assert.Equal(t, 400, result.Grants[1].StatusCode)

	assert.Equal(t, 1, result.Failed())
	assert.True(t, strings.HasPrefix(result.Err().Error(), "bad@x.com: "))
}

func TestShareFile_InvalidArguments(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := newTestClient(t, fake)
	ctx := context.Background()

	_, err := c.ShareFile(ctx, "", []string{"a@x.com"})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.ShareFile(ctx, "file-1", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = c.ShareFile(ctx, "file-1", []string{"a@x.com", ""})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	assert.Zero(t, fake.Requests)
	assert.False(t, c.BatchMode())
}

func TestShareFile_CustomOptions(t *testing.T) {
	fake := drivetest.NewServer(t)
	c := NewClient(Config{
		HTTPClient:    fake.Client(),
		Endpoint:      fake.Endpoint(),
		BatchEndpoint: fake.BatchEndpoint(),
		Share:         ShareOptions{Role: "reader"},
	})
	require.NoError(t, c.Init(context.Background()))

	_, err := c.ShareFile(context.Background(), "file-1", []string{"a@x.com"})
	require.NoError(t, err)
	require.Len(t, fake.Grants, 1)
	assert.Equal(t, "reader", fake.Grants[0].Role)
	assert.Equal(t, "false", fake.Grants[0].Query["sendNotificationEmail"])
	_, hasTransfer := fake.Grants[0].Query["transferOwnership"]
	assert.False(t, hasTransfer)
}
