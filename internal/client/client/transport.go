package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/whatbmphotos/internal/common"
	"github.com/dmitrijs2005/whatbmphotos/internal/logging"
	"github.com/google/uuid"
)

// Multipart describes a single file part. Open is called once per attempt so
// a request can be replayed after a token refresh.
type Multipart struct {
	Field       string
	FileName    string
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// Request is a call against the API base URL.
//
// A JSON payload is sent as the request body; a POST without one sends "{}".
// Form takes precedence over JSON.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	JSON   any
	Form   *Multipart
	Bearer string
	Header http.Header
}

// Response is a fully read HTTP response.
type Response struct {
	Status int
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Decode unmarshals the JSON body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return &TransportError{Op: "decode response", Err: err}
	}
	return nil
}

// Err returns a *RequestError for non-2xx responses and nil otherwise.
func (r *Response) Err() error {
	if r.OK() {
		return nil
	}
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(r.Body, &body)

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	if msg == "" {
		msg = "Request failed."
	}
	return &RequestError{Status: r.Status, Message: msg}
}

// Transport issues requests against a single base origin.
type Transport struct {
	baseURL string
	http    *http.Client
	log     logging.Logger
}

func NewTransport(baseURL string, httpClient *http.Client, log logging.Logger) *Transport {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Transport{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     log.With("component", "transport"),
	}
}

// HTTPClient exposes the underlying client for out-of-API downloads.
func (t *Transport) HTTPClient() *http.Client {
	return t.http
}

// Do sends req and reads the whole response. Only failures to obtain a
// response are returned as errors; HTTP status handling is left to the
// caller via Response.Err.
func (t *Transport) Do(ctx context.Context, req *Request) (*Response, error) {
	httpReq, err := t.build(ctx, req)
	if err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(common.RequestIDHeaderName, requestID)

	start := time.Now()
	resp, err := t.http.Do(httpReq)
	if err != nil {
		t.log.Warn(ctx, "request failed",
			"method", req.Method, "path", req.Path, "request_id", requestID,
			"dur", time.Since(start), "error", err)
		return nil, &TransportError{Op: req.Method + " " + req.Path, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: "read body", Err: err}
	}

	t.log.Debug(ctx, "request",
		"method", req.Method, "path", req.Path, "status", resp.StatusCode,
		"request_id", requestID, "dur", time.Since(start))

	return &Response{Status: resp.StatusCode, Body: body}, nil
}

func (t *Transport) build(ctx context.Context, req *Request) (*http.Request, error) {
	method := req.Method
	if method == "" {
		method = http.MethodPost
	}

	query := url.Values{}
	for k, vs := range req.Query {
		query[k] = append([]string(nil), vs...)
	}

	var (
		body        io.Reader
		contentType string
	)

	switch {
	case req.Form != nil:
		b, ct, err := encodeMultipart(req.Form)
		if err != nil {
			return nil, err
		}
		body, contentType = b, ct
	case req.JSON != nil:
		b, err := json.Marshal(req.JSON)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		body, contentType = bytes.NewReader(b), "application/json"
	case method != http.MethodGet:
		body, contentType = bytes.NewReader([]byte("{}")), "application/json"
	}

	u := t.baseURL + req.Path
	if len(query) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + query.Encode()
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if req.Bearer != "" {
		httpReq.Header.Set(common.AuthorizationHeaderName, common.BearerPrefix+req.Bearer)
	}
	return httpReq, nil
}

func encodeMultipart(part *Multipart) (io.Reader, string, error) {
	if part.Open == nil {
		return nil, "", errors.New("multipart: no file source")
	}
	src, err := part.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`,
		escapeQuotes(part.Field), escapeQuotes(part.FileName)))
	if part.ContentType != "" {
		h.Set("Content-Type", part.ContentType)
	}

	fw, err := w.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := io.Copy(fw, src); err != nil {
		return nil, "", fmt.Errorf("read upload: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
