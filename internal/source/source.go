// Package source fetches animation assets.
package source

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"golang.org/x/crypto/blake2b"
)

// MaxAssetBytes bounds the size of an animation asset.
const MaxAssetBytes = 32 << 20

var (
	// ErrEmptySource indicates no asset URL was supplied.
	ErrEmptySource = errors.New("asset source is empty")
	// ErrUnsupportedScheme indicates a URL scheme the loader cannot fetch.
	ErrUnsupportedScheme = errors.New("unsupported asset scheme")
	// ErrAssetTooLarge indicates the asset exceeds MaxAssetBytes.
	ErrAssetTooLarge = errors.New("asset too large")
)

// Asset is a fetched animation file.
type Asset struct {
	URL    string
	Data   []byte
	Digest string
}

// Loader fetches animation assets.
type Loader interface {
	Load(ctx context.Context, source string) (*Asset, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, source string) (*Asset, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, source string) (*Asset, error) {
	return f(ctx, source)
}

// DefaultLoader fetches http(s) URLs over HTTP and everything else from the
// local filesystem.
type DefaultLoader struct {
	Client *http.Client
}

// NewDefaultLoader returns a loader with a bounded HTTP timeout.
func NewDefaultLoader() *DefaultLoader {
	return &DefaultLoader{Client: &http.Client{Timeout: 30 * time.Second}}
}

// Load implements Loader.
func (l *DefaultLoader) Load(ctx context.Context, source string) (*Asset, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return nil, ErrEmptySource
	}

	var (
		data []byte
		err  error
	)
	if path, ok := LocalPath(source); ok {
		data, err = readFile(path)
	} else {
		data, err = l.fetch(ctx, source)
	}
	if err != nil {
		return nil, err
	}

	return NewAsset(source, data), nil
}

// NewAsset wraps data and computes its digest.
func NewAsset(source string, data []byte) *Asset {
	return &Asset{URL: source, Data: data, Digest: Digest(data)}
}

// Digest returns the hex BLAKE2b-256 digest of data.
func Digest(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// LocalPath reports whether source refers to the local filesystem and
// returns the path.
func LocalPath(source string) (string, bool) {
	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// No scheme, or a Windows drive letter.
		return source, true
	}
	if u.Scheme == "file" {
		return u.Path, true
	}
	return "", false
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open asset %s: %w", path, err)
	}
	defer f.Close()
	return readLimited(f, path)
}

func (l *DefaultLoader) fetch(ctx context.Context, source string) ([]byte, error) {
	u, err := url.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse asset url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedScheme, u.Scheme)
	}

	client := l.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build asset request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch asset %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch asset %s: unexpected status %s", source, resp.Status)
	}
	return readLimited(resp.Body, source)
}

func readLimited(r io.Reader, name string) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxAssetBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read asset %s: %w", name, err)
	}
	if len(data) > MaxAssetBytes {
		return nil, fmt.Errorf("%w: %s", ErrAssetTooLarge, name)
	}
	return data, nil
}
