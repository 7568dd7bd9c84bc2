package drive

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"

	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
)

// MaxBatchSize is the largest number of calls Drive accepts in one batch.
const MaxBatchSize = 100

const (
	batchPathPrefix     = "/drive/v3/"
	contentIDPrefix     = "item-"
	responseIDPrefix    = "response-"
	jsonContentType     = "application/json; charset=UTF-8"
	httpPartContentType = "application/http"
)

// batchCall is one API call serialized into the batch envelope.
type batchCall struct {
	method string
	path   string
	body   []byte
}

// batchResponse is the decoded answer to one batchCall.
type batchResponse struct {
	statusCode int
	body       []byte
	err        error
}

// batch groups Drive API calls into a single multipart/mixed request.
type batch struct {
	endpoint string
	calls    []batchCall
}

func newBatch(endpoint string) *batch {
	return &batch{endpoint: endpoint}
}

func (b *batch) len() int {
	return len(b.calls)
}

// addPermission queues a permissions.create call granting a user permission.
func (b *batch) addPermission(fileID, email string, opts ShareOptions) error {
	if len(b.calls) >= MaxBatchSize {
		return fmt.Errorf("batch is limited to %d calls", MaxBatchSize)
	}

	body, err := json.Marshal(&drive.Permission{
		Type:         "user",
		Role:         opts.Role,
		EmailAddress: email,
	})
	if err != nil {
		return fmt.Errorf("failed to encode permission for %s: %w", email, err)
	}

	params := url.Values{}
	params.Set("fields", "id")
	params.Set("sendNotificationEmail", strconv.FormatBool(opts.SendNotificationEmail))
	if opts.TransferOwnership {
		params.Set("transferOwnership", "true")
	}

	b.calls = append(b.calls, batchCall{
		method: http.MethodPost,
		path:   batchPathPrefix + "files/" + url.PathEscape(fileID) + "/permissions?" + params.Encode(),
		body:   body,
	})
	return nil
}

// encode writes the envelope and returns its content type.
func (b *batch) encode(w io.Writer) (string, error) {
	mw := multipart.NewWriter(w)
	for i, call := range b.calls {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", httpPartContentType)
		h.Set("Content-ID", "<"+contentIDPrefix+strconv.Itoa(i)+">")
		part, err := mw.CreatePart(h)
		if err != nil {
			return "", err
		}

		var req bytes.Buffer
		fmt.Fprintf(&req, "%s %s HTTP/1.1\r\n", call.method, call.path)
		fmt.Fprintf(&req, "Content-Type: %s\r\n", jsonContentType)
		fmt.Fprintf(&req, "Content-Length: %d\r\n\r\n", len(call.body))
		req.Write(call.body)
		if _, err := part.Write(req.Bytes()); err != nil {
			return "", err
		}
	}
	if err := mw.Close(); err != nil {
		return "", err
	}
	return "multipart/mixed; boundary=" + mw.Boundary(), nil
}

// execute sends every queued call in one round trip and returns the
// responses in call order. A call with no matching response part gets a
// batchResponse carrying an error.
func (b *batch) execute(ctx context.Context, client *http.Client) ([]*batchResponse, error) {
	if len(b.calls) == 0 {
		return nil, errors.New("batch is empty")
	}

	var body bytes.Buffer
	contentType, err := b.encode(&body)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create batch request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("batch request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return nil, err
	}

	decoded, err := decodeBatchResponse(resp)
	if err != nil {
		return nil, err
	}

	out := make([]*batchResponse, len(b.calls))
	for i := range out {
		if r, ok := decoded[i]; ok {
			out[i] = r
		} else {
			out[i] = &batchResponse{err: fmt.Errorf("no response for batch item %d", i)}
		}
	}
	return out, nil
}

// decodeBatchResponse parses a multipart/mixed batch response keyed by the
// index encoded in each part's Content-ID.
func decodeBatchResponse(resp *http.Response) (map[int]*batchResponse, error) {
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("invalid batch response content type: %w", err)
	}
	if !strings.HasPrefix(mediaType, "multipart/") {
		return nil, fmt.Errorf("unexpected batch response content type %q", mediaType)
	}

	out := make(map[int]*batchResponse)
	mr := multipart.NewReader(resp.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read batch response: %w", err)
		}

		idx, ok := parseContentID(part.Header.Get("Content-ID"))
		if !ok {
			part.Close()
			continue
		}
		out[idx] = decodePart(part)
		part.Close()
	}
	return out, nil
}

func decodePart(r io.Reader) *batchResponse {
	inner, err := http.ReadResponse(bufio.NewReader(r), nil)
	if err != nil {
		return &batchResponse{err: fmt.Errorf("malformed batch response part: %w", err)}
	}
	defer inner.Body.Close()

	if err := googleapi.CheckResponse(inner); err != nil {
		return &batchResponse{statusCode: inner.StatusCode, err: err}
	}
	body, err := io.ReadAll(inner.Body)
	if err != nil {
		return &batchResponse{statusCode: inner.StatusCode, err: err}
	}
	return &batchResponse{statusCode: inner.StatusCode, body: body}
}

// parseContentID extracts the call index from "<response-item-N>".
func parseContentID(id string) (int, bool) {
	id = strings.TrimSuffix(strings.TrimPrefix(strings.TrimSpace(id), "<"), ">")
	id = strings.TrimPrefix(id, responseIDPrefix)
	if !strings.HasPrefix(id, contentIDPrefix) {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimPrefix(id, contentIDPrefix))
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// grantResult turns a batch response into the GrantResult for email.
func grantResult(email string, r *batchResponse) GrantResult {
	g := GrantResult{EmailAddress: email, StatusCode: r.statusCode}
	if r.err != nil {
		g.Err = requestError(opShare, r.err)
		return g
	}

	var perm drive.Permission
	if err := json.Unmarshal(r.body, &perm); err != nil {
		g.Err = requestError(opShare, fmt.Errorf("failed to decode permission: %w", err))
		return g
	}
	g.PermissionID = perm.Id
	return g
}
