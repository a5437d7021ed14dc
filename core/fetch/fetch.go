package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"
	"unicode/utf8"
)

// Kind identifies which document is being fetched.
type Kind int

const (
	KindSettings Kind = iota
	KindMapping
	KindModList
	KindParFile
	KindKeyFile
	KindExtraFile
)

// Stage returns the stable stage name used in errors and logs.
func (k Kind) Stage() string {
	switch k {
	case KindSettings:
		return "fetch_settings"
	case KindMapping:
		return "fetch_mapping"
	case KindModList:
		return "fetch_modlist"
	case KindParFile:
		return "fetch_parfile"
	case KindKeyFile:
		return "fetch_key"
	case KindExtraFile:
		return "fetch_extra"
	default:
		return "fetch"
	}
}

func (k Kind) defaultMaxBytes() int64 {
	switch k {
	case KindExtraFile:
		return 64 * 1024 * 1024
	case KindMapping, KindModList:
		return 2 * 1024 * 1024
	case KindKeyFile:
		return 64 * 1024
	default:
		return 1 * 1024 * 1024
	}
}

// strictText reports whether text responses of this kind must be valid UTF-8.
// Par files are edited by hand on Windows boxes and are only "UTF-8-ish".
func (k Kind) strictText() bool {
	return k == KindSettings || k == KindMapping || k == KindModList
}

// Error codes carried by FetchError.
const (
	CodeInvalidArgument = "INVALID_ARGUMENT"
	CodeFailed          = "FETCH_FAILED"
	CodeTimeout         = "FETCH_TIMEOUT"
	CodeTooLarge        = "TOO_LARGE"
	CodeInvalidUTF8     = "FETCH_INVALID_UTF8"
)

// Options bounds every request made by a Fetcher.
type Options struct {
	Timeout      time.Duration // default 15s
	MaxBytes     int64         // default per kind
	MaxRedirects int           // default 5
}

// FetchError describes a failed fetch.
type FetchError struct {
	Code    string
	Message string
	Stage   string
	URL     string
	// Status is the upstream HTTP status when one was received.
	Status int
	Cause  error
}

func (e *FetchError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.URL)
	}
	return fmt.Sprintf("%s: %s (%s): %v", e.Code, e.Message, e.URL, e.Cause)
}

func (e *FetchError) Unwrap() error { return e.Cause }

var (
	errTooManyRedirects   = errors.New("too many redirects")
	errRedirectBadScheme  = errors.New("redirect target scheme is not http/https")
	errInvalidURLOrScheme = errors.New("invalid url or scheme")
)

// Fetcher performs bounded HTTP(S) GET requests.
type Fetcher struct {
	opt Options
}

// New creates a Fetcher, filling in defaults for zero options.
func New(opt Options) *Fetcher {
	if opt.Timeout == 0 {
		opt.Timeout = 15 * time.Second
	}
	if opt.MaxRedirects == 0 {
		opt.MaxRedirects = 5
	}
	return &Fetcher{opt: opt}
}

// Text fetches a text document and returns its body.
func (f *Fetcher) Text(ctx context.Context, kind Kind, rawURL string) (string, error) {
	body, err := f.get(ctx, kind, rawURL)
	if err != nil {
		return "", err
	}
	defer body.Close()

	data, err := f.readBounded(kind, rawURL, body)
	if err != nil {
		return "", err
	}
	if kind.strictText() && !utf8.Valid(data) {
		return "", &FetchError{
			Code:    CodeInvalidUTF8,
			Message: "remote resource is not valid UTF-8 text",
			Stage:   kind.Stage(),
			URL:     rawURL,
		}
	}
	return string(data), nil
}

// Download streams a binary resource into w and returns the number of bytes written.
func (f *Fetcher) Download(ctx context.Context, kind Kind, rawURL string, w io.Writer) (int64, error) {
	body, err := f.get(ctx, kind, rawURL)
	if err != nil {
		return 0, err
	}
	defer body.Close()

	data, err := f.readBounded(kind, rawURL, body)
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), fmt.Errorf("writing %s: %w", rawURL, err)
	}
	return int64(n), nil
}

func (f *Fetcher) maxBytes(kind Kind) int64 {
	if f.opt.MaxBytes > 0 {
		return f.opt.MaxBytes
	}
	return kind.defaultMaxBytes()
}

func (f *Fetcher) get(ctx context.Context, kind Kind, rawURL string) (io.ReadCloser, error) {
	stage := kind.Stage()

	u, err := url.Parse(rawURL)
	if err != nil || u == nil || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, &FetchError{
			Code:    CodeInvalidArgument,
			Message: "only http/https URLs are allowed",
			Stage:   stage,
			URL:     rawURL,
			Cause:   errors.Join(errInvalidURLOrScheme, err),
		}
	}

	maxRedirects := f.opt.MaxRedirects
	client := &http.Client{
		Timeout:   f.opt.Timeout,
		Transport: http.DefaultTransport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			// via holds the previous requests; 1st redirect => len(via)==1.
			if len(via) > maxRedirects {
				return errTooManyRedirects
			}
			if req.URL.Scheme != "http" && req.URL.Scheme != "https" {
				return errRedirectBadScheme
			}
			return nil
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, &FetchError{
			Code:    CodeInvalidArgument,
			Message: "invalid request URL",
			Stage:   stage,
			URL:     rawURL,
			Cause:   err,
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		if resp != nil && resp.Body != nil {
			_ = resp.Body.Close()
		}
		return nil, classifyTransportError(stage, rawURL, maxRedirects, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_ = resp.Body.Close()
		return nil, &FetchError{
			Code:    CodeFailed,
			Message: fmt.Sprintf("upstream returned non-2xx status: %d", resp.StatusCode),
			Stage:   stage,
			URL:     rawURL,
			Status:  resp.StatusCode,
		}
	}
	return resp.Body, nil
}

func (f *Fetcher) readBounded(kind Kind, rawURL string, body io.Reader) ([]byte, error) {
	maxBytes := f.maxBytes(kind)

	// Read at most maxBytes+1 to detect overflow deterministically.
	data, err := io.ReadAll(io.LimitReader(body, maxBytes+1))
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return nil, &FetchError{
				Code:    CodeTimeout,
				Message: "timed out reading remote resource",
				Stage:   kind.Stage(),
				URL:     rawURL,
				Cause:   err,
			}
		}
		return nil, &FetchError{
			Code:    CodeFailed,
			Message: "failed to read upstream response",
			Stage:   kind.Stage(),
			URL:     rawURL,
			Cause:   err,
		}
	}
	if int64(len(data)) > maxBytes {
		return nil, &FetchError{
			Code:    CodeTooLarge,
			Message: fmt.Sprintf("remote resource too large (>%d bytes)", maxBytes),
			Stage:   kind.Stage(),
			URL:     rawURL,
		}
	}
	return data, nil
}

func classifyTransportError(stage, rawURL string, maxRedirects int, err error) error {
	if errors.Is(err, errTooManyRedirects) {
		return &FetchError{
			Code:    CodeFailed,
			Message: fmt.Sprintf("too many redirects (>%d)", maxRedirects),
			Stage:   stage,
			URL:     rawURL,
			Cause:   err,
		}
	}
	if errors.Is(err, errRedirectBadScheme) {
		return &FetchError{
			Code:    CodeInvalidArgument,
			Message: "redirect target must be http/https",
			Stage:   stage,
			URL:     rawURL,
			Cause:   err,
		}
	}

	// Go may wrap timeouts (e.g. *url.Error).
	var ne net.Error
	if (errors.As(err, &ne) && ne.Timeout()) || errors.Is(err, context.DeadlineExceeded) {
		return &FetchError{
			Code:    CodeTimeout,
			Message: "timed out fetching remote resource",
			Stage:   stage,
			URL:     rawURL,
			Cause:   err,
		}
	}

	return &FetchError{
		Code:    CodeFailed,
		Message: "failed to fetch remote resource",
		Stage:   stage,
		URL:     rawURL,
		Cause:   err,
	}
}
