package detection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-resty/resty/v2"
)

const (
	// DefaultTimeout bounds a single detection round trip.
	DefaultTimeout = 30 * time.Second

	uploadField       = "file"
	uploadFilename    = "photo.jpg"
	uploadContentType = "image/jpeg"
)

// Detector sends one image to the detection service.
type Detector interface {
	Detect(ctx context.Context, img ImageHandle) (Result, error)
}

// Opener returns the encoded bytes behind a handle.
type Opener func(ImageHandle) (io.ReadCloser, error)

// Client talks to the remote detection service over HTTP. It performs a single
// attempt per call; retrying is left to the user.
type Client struct {
	endpoint string
	http     *resty.Client
	open     Opener
	logger   *slog.Logger
}

// NewClient constructs a client for endpoint. A non-positive timeout uses
// DefaultTimeout; a nil opener reads file:// URIs from disk.
func NewClient(endpoint string, timeout time.Duration, open Opener, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if open == nil {
		open = OpenFileURI
	}
	rc := resty.New().
		SetTimeout(timeout).
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	return &Client{endpoint: endpoint, http: rc, open: open, logger: logger}
}

// Endpoint returns the configured detection URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Detect uploads the JPEG bytes of img as multipart field "file" and parses
// the returned detections. Box coordinates are relative to img's dimensions;
// the response is never consulted for image size.
func (c *Client) Detect(ctx context.Context, img ImageHandle) (Result, error) {
	rc, err := c.open(img)
	if err != nil {
		return Result{}, fmt.Errorf("%w: open %s: %w", ErrDeviceError, img.URI, err)
	}
	defer rc.Close()

	start := time.Now()
	resp, err := c.http.R().
		SetContext(ctx).
		SetMultipartField(uploadField, uploadFilename, uploadContentType, rc).
		Post(c.endpoint)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if c.logger != nil {
		c.logger.Debug("detect response", "image", img.ID, "status", resp.StatusCode(), "elapsed", time.Since(start))
	}
	if !resp.IsSuccess() {
		return Result{}, &ServerError{Code: resp.StatusCode(), Message: errorMessage(resp.Body())}
	}
	res, err := ParseResponse(resp.Body())
	if err != nil {
		return Result{}, err
	}
	if res.AnnotatedURL != "" {
		res.AnnotatedURL = c.resolve(res.AnnotatedURL)
	}
	return res, nil
}

// FetchAnnotated downloads and decodes a server-rendered overlay image.
func (c *Client) FetchAnnotated(ctx context.Context, rawURL string) (image.Image, error) {
	resp, err := c.http.R().SetContext(ctx).SetHeader("Accept", "image/*").Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNetwork, err)
	}
	if !resp.IsSuccess() {
		return nil, &ServerError{Code: resp.StatusCode(), Message: errorMessage(resp.Body())}
	}
	img, err := imaging.Decode(bytes.NewReader(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("%w: annotated image: %w", ErrMalformedResponse, err)
	}
	return img, nil
}

// resolve interprets a relative image_url against the endpoint's origin.
func (c *Client) resolve(ref string) string {
	base, err := url.Parse(c.endpoint)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	if r.IsAbs() {
		return r.String()
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host, Path: "/"}
	return origin.ResolveReference(r).String()
}

type wireDetection struct {
	Name       *string  `json:"name"`
	Confidence *float64 `json:"confidence"`
	X1         *float64 `json:"x1"`
	Y1         *float64 `json:"y1"`
	X2         *float64 `json:"x2"`
	Y2         *float64 `json:"y2"`
	Class      *int     `json:"class"`
}

type wireEnvelope struct {
	Detections *[]wireDetection `json:"detections"`
	ImageURL   string           `json:"image_url"`
}

// ParseResponse decodes either response shape the service produces: a bare
// array of detections, or an object with "detections" and an optional
// "image_url". Every detection must carry a name, confidence and four corners.
func ParseResponse(body []byte) (Result, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return Result{}, fmt.Errorf("%w: empty body", ErrMalformedResponse)
	}
	var (
		items []wireDetection
		res   Result
	)
	switch body[0] {
	case '[':
		if err := json.Unmarshal(body, &items); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
	case '{':
		var env wireEnvelope
		if err := json.Unmarshal(body, &env); err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
		}
		if env.Detections == nil {
			return Result{}, fmt.Errorf("%w: missing detections", ErrMalformedResponse)
		}
		items = *env.Detections
		res.AnnotatedURL = env.ImageURL
	default:
		return Result{}, fmt.Errorf("%w: unexpected body", ErrMalformedResponse)
	}

	res.Detections = make([]Detection, 0, len(items))
	for i, w := range items {
		d, err := w.detection()
		if err != nil {
			return Result{}, fmt.Errorf("%w: detection %d: %w", ErrMalformedResponse, i, err)
		}
		res.Detections = append(res.Detections, d)
	}
	return res, nil
}

func (w wireDetection) detection() (Detection, error) {
	if w.Name == nil || w.Confidence == nil || w.X1 == nil || w.Y1 == nil || w.X2 == nil || w.Y2 == nil {
		return Detection{}, errors.New("missing field")
	}
	d := Detection{
		Label:      *w.Name,
		Confidence: *w.Confidence,
		X1:         *w.X1,
		Y1:         *w.Y1,
		X2:         *w.X2,
		Y2:         *w.Y2,
		ClassID:    -1,
	}
	if w.Class != nil {
		d.ClassID = *w.Class
	}
	return d, d.Validate()
}

// errorMessage extracts {"error": "..."} from a failure body when present.
func errorMessage(body []byte) string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &e) == nil {
		return e.Error
	}
	return ""
}

// OpenFileURI opens the file behind a file:// URI or a plain path.
func OpenFileURI(h ImageHandle) (io.ReadCloser, error) {
	return os.Open(PathFromURI(h.URI))
}

// FileURI converts a local path to an absolute file:// URI.
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return (&url.URL{Scheme: "file", Path: p}).String()
}

// PathFromURI is the inverse of FileURI. Non-file URIs are returned as is.
func PathFromURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return uri
	}
	p := u.Path
	if len(p) >= 3 && p[0] == '/' && p[2] == ':' { // drive letter
		p = p[1:]
	}
	return filepath.FromSlash(p)
}
