package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/teemow/drivefacade/internal/google"
	"github.com/teemow/drivefacade/internal/instrumentation"
	"github.com/teemow/drivefacade/internal/logging"
)

const (
	// OctetStream is the media type every upload is tagged with
	OctetStream = "application/octet-stream"

	// RoleWriter is the role granted by ShareFile
	RoleWriter = "writer"

	// DefaultBatchEndpoint is the Drive v3 batch envelope URL
	DefaultBatchEndpoint = "https://www.googleapis.com/batch/drive/v3"

	// ShowFilesPageSize is the number of files ShowFiles lists
	ShowFilesPageSize = 10

	fileListFields = "nextPageToken, files(id, name)"
	fileFields     = "id, name"
)

// Operation names used in errors, logs and metrics.
const (
	opInit       = "init"
	opQuota      = "quota"
	opSearch     = "search"
	opList       = "list"
	opDownload   = "download"
	opDelete     = "delete"
	opCreateFile = "create_file"
	opStoreFile  = "store_file"
	opShare      = "share"
)

// Config configures a Client.
type Config struct {
	// CredentialsFile is the initial credentials path; see SetCredentials
	CredentialsFile string

	// InsecureSkipVerify disables TLS certificate verification. Off by default.
	InsecureSkipVerify bool

	// Endpoint overrides the Drive API base URL (e.g. "https://www.googleapis.com/drive/v3/")
	Endpoint string

	// BatchEndpoint overrides DefaultBatchEndpoint
	BatchEndpoint string

	// HTTPClient, when set, is used as-is and credential discovery is skipped
	HTTPClient *http.Client

	// PageSize is the page size used by SearchFiles (0 lets Drive decide)
	PageSize int64

	// Share overrides DefaultShareOptions when Role is set
	Share ShareOptions

	// Logger receives diagnostics; slog.Default() when nil
	Logger logging.Logger

	// Metrics records Google API operation metrics; optional
	Metrics *instrumentation.Metrics
}

// Client is a session against the Google Drive API.
//
// A Client is created uninitialized. Init binds the service handle; every
// other operation fails with ErrNotInitialized until then. A Client is not
// reentrant: run at most one operation at a time per Client.
type Client struct {
	config          Config
	credentialsFile string
	service         *drive.Service
	httpClient      *http.Client
	batchMode       bool
	logger          logging.Logger
	metrics         *instrumentation.Metrics
}

// NewClient returns an uninitialized Client.
func NewClient(config Config) *Client {
	if config.BatchEndpoint == "" {
		config.BatchEndpoint = DefaultBatchEndpoint
	}
	if config.Share.Role == "" {
		config.Share = DefaultShareOptions()
	}
	logger := config.Logger
	if logger == nil {
		logger = logging.DefaultLogger()
	}
	return &Client{
		config:          config,
		credentialsFile: config.CredentialsFile,
		logger:          logger,
		metrics:         config.Metrics,
	}
}

// SetCredentials sets the credentials file read by the next Init.
// It only affects this Client; the process environment is left alone.
func (c *Client) SetCredentials(path string) {
	c.credentialsFile = path
}

// CredentialsFile returns the credentials file the next Init will read.
func (c *Client) CredentialsFile() string {
	return c.credentialsFile
}

// Initialized reports whether Init has bound a service handle.
func (c *Client) Initialized() bool {
	return c.service != nil
}

// BatchMode reports whether the Client is currently assembling a batch.
func (c *Client) BatchMode() bool {
	return c.batchMode
}

// Init discovers credentials, builds the transport and binds the Drive
// service with the full drive scope. Calling it again rebinds the service.
func (c *Client) Init(ctx context.Context) error {
	httpClient := c.config.HTTPClient
	if httpClient == nil {
		var err error
		httpClient, err = google.NewHTTPClient(ctx, google.ClientOptions{
			CredentialsFile:    c.credentialsFile,
			InsecureSkipVerify: c.config.InsecureSkipVerify,
			Scopes:             google.DriveScopes,
		})
		if err != nil {
			return newError(opInit, KindInit, err)
		}
	}

	opts := []option.ClientOption{option.WithHTTPClient(httpClient)}
	if c.config.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.config.Endpoint))
	}

	service, err := drive.NewService(ctx, opts...)
	if err != nil {
		return newError(opInit, KindInit, fmt.Errorf("failed to create Drive service: %w", err))
	}

	c.service = service
	c.httpClient = httpClient
	c.logger.Debug("drive session initialized",
		logging.Operation(opInit),
		"credentials_file", c.credentialsFile,
		"insecure_skip_verify", c.config.InsecureSkipVerify)
	return nil
}

// Quota fetches the account storage quota. It returns ErrQuotaExhausted
// (together with the quota) when no bytes are available, and a request
// error when the call fails.
func (c *Client) Quota(ctx context.Context) (quota *QuotaInfo, err error) {
	if err := c.ready(opQuota); err != nil {
		return nil, err
	}
	ctx, done := c.observe(ctx, opQuota)
	defer func() { done(err) }()

	about, err := c.service.About.Get().Context(ctx).Fields("storageQuota").Do()
	if err != nil {
		return nil, requestError(opQuota, err)
	}

	quota = &QuotaInfo{}
	if about.StorageQuota != nil {
		quota.Limit = about.StorageQuota.Limit
		quota.Usage = about.StorageQuota.Usage
	}
	// Drive omits the limit for accounts with unlimited storage.
	quota.Unlimited = about.StorageQuota == nil || about.StorageQuota.Limit == 0

	if c.metrics != nil && !quota.Unlimited {
		c.metrics.RecordQuotaAvailable(ctx, quota.Available())
	}

	if !quota.Unlimited && quota.Available() <= 0 {
		return quota, newError(opQuota, KindQuotaExhausted,
			fmt.Errorf("limit %d, usage %d", quota.Limit, quota.Usage))
	}
	return quota, nil
}

// SearchFiles returns every file whose name contains namePart, following
// all result pages in order. A failure on any page discards the results
// gathered so far.
func (c *Client) SearchFiles(ctx context.Context, namePart string) (files []RemoteFile, err error) {
	if err := c.ready(opSearch); err != nil {
		return nil, err
	}
	ctx, done := c.observe(ctx, opSearch)
	defer func() { done(err) }()

	files = []RemoteFile{}
	pageToken := ""
	pages := 0
	for {
		call := c.service.Files.List().
			Context(ctx).
			Q(searchQuery(namePart)).
			Spaces("drive").
			Fields(fileListFields)
		if c.config.PageSize > 0 {
			call = call.PageSize(c.config.PageSize)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		list, err := call.Do()
		if err != nil {
			return nil, requestError(opSearch, err)
		}
		pages++
		for _, f := range list.Files {
			files = append(files, convertToRemoteFile(f))
		}

		pageToken = list.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Debug("search completed",
		logging.Operation(opSearch),
		"pages", pages,
		"files", len(files))
	return files, nil
}

// ListFiles returns up to n files in the order Drive lists them.
func (c *Client) ListFiles(ctx context.Context, n int64) (files []RemoteFile, err error) {
	if err := c.ready(opList); err != nil {
		return nil, err
	}
	if n <= 0 {
		return nil, invalidArgument(opList, "page size must be positive, got %d", n)
	}
	ctx, done := c.observe(ctx, opList)
	defer func() { done(err) }()

	list, err := c.service.Files.List().
		Context(ctx).
		PageSize(n).
		Fields(fileListFields).
		Do()
	if err != nil {
		return nil, requestError(opList, err)
	}

	files = make([]RemoteFile, len(list.Files))
	for i, f := range list.Files {
		files[i] = convertToRemoteFile(f)
	}
	return files, nil
}

// ShowFiles writes a listing of up to ShowFilesPageSize files to w.
func (c *Client) ShowFiles(ctx context.Context, w io.Writer) error {
	files, err := c.ListFiles(ctx, ShowFilesPageSize)
	if err != nil {
		return err
	}
	return writeListing(w, files)
}

func writeListing(w io.Writer, files []RemoteFile) error {
	if len(files) == 0 {
		_, err := fmt.Fprint(w, "No files found.\n")
		return err
	}
	var b strings.Builder
	b.WriteString("Files:\n")
	for _, f := range files {
		fmt.Fprintf(&b, "%s (%s)\n", f.Name, f.ID)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

// DownloadFile copies the content of a file into w and returns the number
// of bytes written.
func (c *Client) DownloadFile(ctx context.Context, fileID string, w io.Writer) (n int64, err error) {
	if err := c.ready(opDownload); err != nil {
		return 0, err
	}
	if fileID == "" {
		return 0, invalidArgument(opDownload, "fileID is required")
	}
	ctx, done := c.observe(ctx, opDownload)
	defer func() { done(err) }()

	resp, err := c.service.Files.Get(fileID).Context(ctx).Download()
	if err != nil {
		return 0, requestError(opDownload, err)
	}
	defer resp.Body.Close()

	n, err = io.Copy(w, resp.Body)
	if err != nil {
		return n, requestError(opDownload, fmt.Errorf("failed to read content of %s: %w", fileID, err))
	}
	return n, nil
}

// DeleteFile permanently deletes a file. There is no trash step.
func (c *Client) DeleteFile(ctx context.Context, fileID string) (err error) {
	if err := c.ready(opDelete); err != nil {
		return err
	}
	if fileID == "" {
		return invalidArgument(opDelete, "fileID is required")
	}
	ctx, done := c.observe(ctx, opDelete)
	defer func() { done(err) }()

	if err := c.service.Files.Delete(fileID).Context(ctx).Do(); err != nil {
		return requestError(opDelete, err)
	}
	return nil
}

// CreateFile uploads the content of the local file at path as a new Drive
// file named name.
func (c *Client) CreateFile(ctx context.Context, path, name string) (*RemoteFile, error) {
	if err := c.ready(opCreateFile); err != nil {
		return nil, err
	}
	return c.upload(ctx, opCreateFile, name, func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// StoreFile uploads data as a new Drive file named name.
func (c *Client) StoreFile(ctx context.Context, data []byte, name string) (*RemoteFile, error) {
	if err := c.ready(opStoreFile); err != nil {
		return nil, err
	}
	return c.upload(ctx, opStoreFile, name, func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

// upload opens the content and sends it in a single multipart request.
// Failures are logged here and returned.
func (c *Client) upload(ctx context.Context, op, name string, open func() (io.ReadCloser, error)) (file *RemoteFile, err error) {
	if name == "" {
		return nil, invalidArgument(op, "file name is required")
	}
	ctx, done := c.observe(ctx, op)
	defer func() { done(err) }()

	content, err := open()
	if err != nil {
		c.logger.Error("upload failed", logging.Operation(op), "name", name, logging.Err(err))
		return nil, newError(op, KindSource, err)
	}
	defer content.Close()

	created, err := c.service.Files.Create(&drive.File{Name: name}).
		Context(ctx).
		Media(content, googleapi.ContentType(OctetStream), googleapi.ChunkSize(0)).
		Fields(fileFields).
		Do()
	if err != nil {
		c.logger.Error("upload failed", logging.Operation(op), "name", name, logging.Err(err))
		return nil, requestError(op, err)
	}

	rf := convertToRemoteFile(created)
	return &rf, nil
}

// ShareFile grants each email a permission on fileID, sending all grants
// in one batch round trip. The result lists one GrantResult per email in
// order; individual grant failures are reported there. The returned error
// is non-nil only when the batch itself could not be executed.
func (c *Client) ShareFile(ctx context.Context, fileID string, emails []string) (result *ShareResult, err error) {
	if err := c.ready(opShare); err != nil {
		return nil, err
	}
	if fileID == "" {
		return nil, invalidArgument(opShare, "fileID is required")
	}
	if len(emails) == 0 {
		return nil, invalidArgument(opShare, "at least one email address is required")
	}
	for i, email := range emails {
		if email == "" {
			return nil, invalidArgument(opShare, "emails[%d] cannot be empty", i)
		}
	}

	release := c.enterBatchMode()
	defer release()

	ctx, done := c.observe(ctx, opShare)
	defer func() { done(err) }()

	b := newBatch(c.config.BatchEndpoint)
	for _, email := range emails {
		if err := b.addPermission(fileID, email, c.config.Share); err != nil {
			return nil, newError(opShare, KindInvalidArgument, err)
		}
	}
	if c.metrics != nil {
		c.metrics.RecordBatchSize(ctx, opShare, b.len())
	}

	instrumentation.AddSpanEvent(ctx, "batch.sent",
		attribute.String(instrumentation.SpanAttrFileID, fileID),
		attribute.Int(instrumentation.SpanAttrBatchCalls, b.len()))
	responses, err := b.execute(ctx, c.httpClient)
	if err != nil {
		return nil, requestError(opShare, err)
	}

	result = &ShareResult{FileID: fileID, Grants: make([]GrantResult, len(emails))}
	for i, email := range emails {
		result.Grants[i] = grantResult(email, responses[i])
		if c.metrics != nil {
			status := instrumentation.StatusSuccess
			if result.Grants[i].Err != nil {
				status = instrumentation.StatusError
			}
			c.metrics.RecordShareGrant(ctx, email, status)
		}
	}

	users := make([]string, len(emails))
	for i, email := range emails {
		users[i] = logging.AnonymizeEmail(email)
	}
	c.logger.Info("share batch executed",
		logging.Operation(opShare),
		logging.FileID(fileID),
		"grants", len(emails),
		"failed", result.Failed(),
		"user_hashes", users)
	instrumentation.AddSpanEvent(ctx, "batch.received",
		attribute.Int(instrumentation.SpanAttrFailed, result.Failed()))
	return result, nil
}

// enterBatchMode switches the Client into batch mode and returns a func
// that restores the previous mode.
func (c *Client) enterBatchMode() (release func()) {
	prev := c.batchMode
	c.batchMode = true
	return func() {
		c.batchMode = prev
	}
}

func (c *Client) ready(op string) error {
	if c.service == nil {
		return newError(op, KindNotInitialized, nil)
	}
	return nil
}

// observe starts a span for op and returns a func that ends it and records
// the operation metrics.
func (c *Client) observe(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := instrumentation.StartGoogleAPISpan(ctx, instrumentation.ServiceDrive, op)
	start := time.Now()
	return ctx, func(err error) {
		status := instrumentation.StatusSuccess
		if err != nil {
			status = instrumentation.StatusError
		}
		if c.metrics != nil {
			c.metrics.RecordGoogleAPIOperation(ctx, instrumentation.ServiceDrive, op, status, time.Since(start))
		}
		instrumentation.EndSpan(span, err)
	}
}

// searchQuery builds a Drive query matching names that contain namePart.
func searchQuery(namePart string) string {
	escaped := strings.NewReplacer(`\`, `\\`, `'`, `\'`).Replace(namePart)
	return "name contains '" + escaped + "'"
}

func convertToRemoteFile(f *drive.File) RemoteFile {
	return RemoteFile{ID: f.Id, Name: f.Name}
}
