// Package source loads diagram text from a file, stdin or an http(s) URL.
//
//	src, err := source.New().Load(ctx, "https://example.com/plan.mmd")
//
// Remote fetches are retried on network errors and 5xx responses. Every
// source is read up to one byte past [errors.MaxSourceBytes], so oversized
// input still fails validation downstream instead of being read in full.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/matzehuels/flowform/pkg/buildinfo"
	"github.com/matzehuels/flowform/pkg/cache"
	"github.com/matzehuels/flowform/pkg/errors"
)

// Stdin is the reference that reads from the loader's Stdin.
const Stdin = "-"

// DefaultTimeout bounds one HTTP attempt.
const DefaultTimeout = 30 * time.Second

// Loader resolves diagram references.
type Loader struct {
	Client    *http.Client
	Stdin     io.Reader
	UserAgent string
}

// New returns a loader reading stdin from os.Stdin.
func New() *Loader {
	return &Loader{
		Client:    &http.Client{Timeout: DefaultTimeout},
		Stdin:     os.Stdin,
		UserAgent: "flowform/" + buildinfo.Version,
	}
}

// IsURL reports whether ref names an http or https resource.
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Load returns the text behind ref: "-" for stdin, an http(s) URL, or a
// file path.
func (l *Loader) Load(ctx context.Context, ref string) (string, error) {
	switch {
	case ref == Stdin:
		data, err := readLimited(l.Stdin)
		if err != nil {
			return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read stdin")
		}
		return string(data), nil
	case IsURL(ref):
		return l.fetch(ctx, ref)
	default:
		return readFile(ref)
	}
}

func readFile(path string) (string, error) {
	if err := errors.ValidatePath(path); err != nil {
		return "", err
	}
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return "", errors.New(errors.ErrCodeFileNotFound, "%s does not exist", path)
	}
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "open %s", path)
	}
	defer f.Close()

	data, err := readLimited(f)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidInput, err, "read %s", path)
	}
	return string(data), nil
}

func (l *Loader) fetch(ctx context.Context, rawURL string) (string, error) {
	var text string
	err := cache.RetryWithBackoff(ctx, func() error {
		data, err := l.get(ctx, rawURL)
		if err != nil {
			return err
		}
		text = string(data)
		return nil
	})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (l *Loader) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidPath, err, "bad url %s", rawURL)
	}
	if l.UserAgent != "" {
		req.Header.Set("User-Agent", l.UserAgent)
	}
	req.Header.Set("Accept", "text/plain, */*")

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeFetch, err, "fetch %s", rawURL))
	}
	defer resp.Body.Close()

	if err := checkStatus(rawURL, resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := readLimited(resp.Body)
	if err != nil {
		return nil, cache.Retryable(errors.Wrap(errors.ErrCodeFetch, err, "read %s", rawURL))
	}
	return data, nil
}

func checkStatus(rawURL string, code int) error {
	switch {
	case code == http.StatusOK:
		return nil
	case code == http.StatusNotFound:
		return errors.New(errors.ErrCodeFileNotFound, "%s: not found", rawURL)
	case code >= 500:
		return cache.Retryable(errors.New(errors.ErrCodeFetch, "%s: status %d", rawURL, code))
	default:
		return errors.New(errors.ErrCodeFetch, "%s: status %d", rawURL, code)
	}
}

func readLimited(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("no input")
	}
	return io.ReadAll(io.LimitReader(r, errors.MaxSourceBytes+1))
}
