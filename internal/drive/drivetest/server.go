// Package drivetest provides an in-process fake of the Drive v3 endpoints
// used by the drive package, for tests.
package drivetest

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
)

// Operation names accepted by Server.Fail.
const (
	OpAbout    = "about"
	OpList     = "list"
	OpCreate   = "create"
	OpDelete   = "delete"
	OpDownload = "download"
	OpBatch    = "batch"
)

// File is a file known to the fake.
type File struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Content []byte `json:"-"`
}

// Upload records one files.create media upload.
type Upload struct {
	Name       string
	UploadType string
	MediaType  string
	Data       []byte
}

// Grant records one permissions.create call received inside a batch.
type Grant struct {
	FileID       string
	Type         string
	Role         string
	EmailAddress string
	Query        map[string]string
}

// Server is a fake Drive API. Configure the exported fields before issuing
// requests; read the recorded fields after.
type Server struct {
	srv *httptest.Server
	mu  sync.Mutex

	// Limit and Usage are returned by about.get; empty values are omitted
	Limit string
	Usage string

	// Pages are returned by files.list in order, linked by page tokens
	Pages [][]File

	// FailPage makes files.list fail with status 400 when serving this page
	// index; negative disables it
	FailPage int

	// Fail makes an operation answer with the given HTTP status
	Fail map[string]int

	// RejectEmails makes the grant for an email fail with the given status
	RejectEmails map[string]int

	// OnBatch runs while a batch request is being served
	OnBatch func()

	// Recorded traffic
	Queries       []string
	PageSizes     []string
	Uploads       []Upload
	Deleted       []string
	BatchRequests int
	Grants        []Grant
	Requests      int
}

// NewServer starts a fake that is closed when the test ends.
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{FailPage: -1, Fail: map[string]int{}, RejectEmails: map[string]int{}}
	s.srv = httptest.NewServer(http.HandlerFunc(s.serveHTTP))
	t.Cleanup(s.srv.Close)
	return s
}

// Endpoint is the Drive base URL to pass to option.WithEndpoint.
func (s *Server) Endpoint() string {
	return s.srv.URL + "/"
}

// BatchEndpoint is the batch envelope URL.
func (s *Server) BatchEndpoint() string {
	return s.srv.URL + "/batch/drive/v3"
}

// Client returns an HTTP client for the fake.
func (s *Server) Client() *http.Client {
	return s.srv.Client()
}

// Close shuts the fake down; later requests fail at the transport level.
func (s *Server) Close() {
	s.srv.Close()
}

// Files returns every file of every page, in order.
func (s *Server) Files() []File {
	var out []File
	for _, p := range s.Pages {
		out = append(out, p...)
	}
	return out
}

func (s *Server) serveHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.Requests++
	s.mu.Unlock()

	path := r.URL.Path
	switch {
	case path == "/batch/drive/v3" && r.Method == http.MethodPost:
		s.serveBatch(w, r)
	case strings.HasSuffix(path, "/about") && r.Method == http.MethodGet:
		s.serveAbout(w)
	case strings.HasSuffix(path, "/files") && r.Method == http.MethodGet:
		s.serveList(w, r)
	case strings.HasSuffix(path, "/files") && r.Method == http.MethodPost:
		s.serveCreate(w, r)
	case strings.Contains(path, "/files/") && r.Method == http.MethodDelete:
		s.serveDelete(w, r)
	case strings.Contains(path, "/files/") && r.Method == http.MethodGet:
		s.serveDownload(w, r)
	default:
		writeError(w, http.StatusNotFound, "unknown route "+r.Method+" "+path)
	}
}

func (s *Server) failed(w http.ResponseWriter, op string) bool {
	s.mu.Lock()
	code, ok := s.Fail[op]
	s.mu.Unlock()
	if !ok {
		return false
	}
	writeError(w, code, op+" failed")
	return true
}

func (s *Server) serveAbout(w http.ResponseWriter) {
	if s.failed(w, OpAbout) {
		return
	}
	quota := map[string]string{}
	if s.Usage != "" {
		quota["usage"] = s.Usage
	}
	if s.Limit != "" {
		quota["limit"] = s.Limit
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"storageQuota": quota})
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, OpList) {
		return
	}
	q := r.URL.Query()

	s.mu.Lock()
	s.Queries = append(s.Queries, q.Get("q"))
	s.PageSizes = append(s.PageSizes, q.Get("pageSize"))
	s.mu.Unlock()

	page := 0
	if token := q.Get("pageToken"); token != "" {
		if _, err := fmt.Sscanf(token, "page-%d", &page); err != nil {
			writeError(w, http.StatusBadRequest, "invalid page token")
			return
		}
	}
	if page == s.FailPage {
		writeError(w, http.StatusBadRequest, "invalid page")
		return
	}

	resp := map[string]interface{}{"files": []File{}}
	if page < len(s.Pages) {
		files := s.Pages[page]
		if files == nil {
			files = []File{}
		}
		resp["files"] = files
	}
	if page+1 < len(s.Pages) {
		resp["nextPageToken"] = fmt.Sprintf("page-%d", page+1)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) serveCreate(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, OpCreate) {
		return
	}

	upload := Upload{UploadType: r.URL.Query().Get("uploadType")}
	mediaType, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		writeError(w, http.StatusBadRequest, "expected a multipart upload")
		return
	}

	mr := multipart.NewReader(r.Body, params["boundary"])
	for i := 0; ; i++ {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		data, _ := io.ReadAll(part)
		if i == 0 {
			var meta File
			if err := json.Unmarshal(data, &meta); err != nil {
				writeError(w, http.StatusBadRequest, "invalid metadata")
				return
			}
			upload.Name = meta.Name
			continue
		}
		upload.MediaType = part.Header.Get("Content-Type")
		upload.Data = data
	}

	s.mu.Lock()
	s.Uploads = append(s.Uploads, upload)
	id := fmt.Sprintf("file-%d", len(s.Uploads))
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, File{ID: id, Name: upload.Name})
}

func (s *Server) serveDelete(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, OpDelete) {
		return
	}
	id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	s.mu.Lock()
	s.Deleted = append(s.Deleted, id)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) serveDownload(w http.ResponseWriter, r *http.Request) {
	if s.failed(w, OpDownload) {
		return
	}
	id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
	for _, f := range s.Files() {
		if f.ID == id {
			w.Header().Set("Content-Type", "application/octet-stream")
			_, _ = w.Write(f.Content)
			return
		}
	}
	writeError(w, http.StatusNotFound, "File not found: "+id)
}

func (s *Server) serveBatch(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.BatchRequests++
	onBatch := s.OnBatch
	s.mu.Unlock()
	if onBatch != nil {
		onBatch()
	}
	if s.failed(w, OpBatch) {
		return
	}

	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid content type")
		return
	}

	var out bytes.Buffer
	mw := multipart.NewWriter(&out)
	mr := multipart.NewReader(r.Body, params["boundary"])
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		contentID := strings.Trim(part.Header.Get("Content-ID"), "<>")
		inner, err := http.ReadRequest(bufio.NewReader(part))
		if err != nil {
			writeError(w, http.StatusBadRequest, "malformed batch part: "+err.Error())
			return
		}

		status, body := s.handleGrant(inner)

		h := make(textproto.MIMEHeader)
		h.Set("Content-Type", "application/http")
		h.Set("Content-ID", "<response-"+contentID+">")
		pw, _ := mw.CreatePart(h)
		fmt.Fprintf(pw, "HTTP/1.1 %d %s\r\nContent-Type: application/json; charset=UTF-8\r\n\r\n%s",
			status, http.StatusText(status), body)
	}
	_ = mw.Close()

	w.Header().Set("Content-Type", "multipart/mixed; boundary="+mw.Boundary())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Bytes())
}

func (s *Server) handleGrant(r *http.Request) (int, []byte) {
	// /drive/v3/files/{fileId}/permissions
	segments := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if r.Method != http.MethodPost || len(segments) != 5 || segments[4] != "permissions" {
		return http.StatusNotFound, errorBody(http.StatusNotFound, "unknown batch route "+r.URL.Path)
	}

	var perm struct {
		Type         string `json:"type"`
		Role         string `json:"role"`
		EmailAddress string `json:"emailAddress"`
	}
	if err := json.NewDecoder(r.Body).Decode(&perm); err != nil {
		return http.StatusBadRequest, errorBody(http.StatusBadRequest, "invalid permission")
	}

	query := map[string]string{}
	for k := range r.URL.Query() {
		query[k] = r.URL.Query().Get(k)
	}

	s.mu.Lock()
	s.Grants = append(s.Grants, Grant{
		FileID:       segments[3],
		Type:         perm.Type,
		Role:         perm.Role,
		EmailAddress: perm.EmailAddress,
		Query:        query,
	})
	n := len(s.Grants)
	code, rejected := s.RejectEmails[perm.EmailAddress]
	s.mu.Unlock()

	if rejected {
		return code, errorBody(code, "cannot share with "+perm.EmailAddress)
	}
	body, _ := json.Marshal(map[string]string{"id": fmt.Sprintf("perm-%d", n)})
	return http.StatusOK, body
}

func errorBody(code int, message string) []byte {
	body, _ := json.Marshal(map[string]interface{}{
		"error": map[string]interface{}{"code": code, "message": message},
	})
	return body
}

func writeError(w http.ResponseWriter, code int, message string) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_, _ = w.Write(errorBody(code, message))
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=UTF-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
