// Package sharefetch downloads a daily archive from the remote share service.
//
// A fetch is a fixed sequence of three requests on one cookie session:
// unlock the share with its code, read the transfer token, then download the
// archive. The archive is written to <OutputDir>/<name>.zip. Nothing is
// retried; the first failing step ends the fetch.
package sharefetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"dataplatform/internal/config"
	"dataplatform/internal/logging"
)

const (
	shareCodePath = "/efile/share/code.action"
	initInfoPath  = "/efile/initInfo.action"
	downloadPath  = "/efile/multiDownload.action"
)

var (
	ErrBaseURLRequired   = errors.New("share base url is required")
	ErrShareCodeRequired = errors.New("share code is required")
	ErrNoToken           = errors.New("init info carries no file transfer token")
)

// StatusError is a non-2xx answer from one step of the fetch.
type StatusError struct {
	Step string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.Step, e.Code)
}

// Result describes a downloaded archive.
type Result struct {
	Name  string
	Path  string
	Bytes int64
}

// Client talks to one share. It is not safe for concurrent fetches because
// the session lives in its cookie jar.
type Client struct {
	cfg  config.ShareConfig
	http *http.Client
	now  func() time.Time
}

// Option customises a Client.
type Option func(*Client)

// WithTransport replaces the base round tripper (the default is
// http.DefaultTransport). It is still wrapped for tracing.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) {
		c.http.Transport = otelhttp.NewTransport(rt)
	}
}

// WithClock sets the time source used to pick the default archive name.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New builds a Client for cfg.
func New(cfg config.ShareConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, ErrBaseURLRequired
	}
	if cfg.ShareCode == "" {
		return nil, ErrShareCodeRequired
	}
	if cfg.OutputDir == "" {
		cfg.OutputDir = "."
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	c := &Client{
		cfg: cfg,
		http: &http.Client{
			Jar:       jar,
			Timeout:   cfg.Timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ArchiveName returns name, or yesterday's date (20060102) followed by the
// configured suffix when name is empty.
func (c *Client) ArchiveName(name string) string {
	if name != "" {
		return name
	}
	return c.now().Add(-24*time.Hour).Format("20060102") + c.cfg.NameSuffix
}

// Fetch runs the whole sequence for the archive called name (see ArchiveName).
func (c *Client) Fetch(ctx context.Context, name string) (*Result, error) {
	logger := logging.FromContext(ctx)
	name = c.ArchiveName(name)

	if err := c.unlock(ctx); err != nil {
		return nil, err
	}
	logger.Debug("share unlocked")

	token, err := c.token(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.download(ctx, name, token)
	if err != nil {
		return nil, err
	}
	logger.Info("archive downloaded", "name", res.Name, "path", res.Path, "bytes", res.Bytes)
	return res, nil
}

func (c *Client) unlock(ctx context.Context) error {
	q := url.Values{}
	q.Set("shareCode", c.cfg.ShareCode)
	q.Set("lockFileName", c.cfg.LockFileName)

	resp, err := c.get(ctx, shareCodePath, q)
	if err != nil {
		return fmt.Errorf("unlock share: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		return &StatusError{Step: "unlock share", Code: resp.StatusCode}
	}
	return nil
}

type initInfo struct {
	Data struct {
		UserInfo struct {
			FileTransferToken string `json:"fileTransferToken"`
		} `json:"userInfo"`
	} `json:"data"`
}

func (c *Client) token(ctx context.Context) (string, error) {
	resp, err := c.get(ctx, initInfoPath, nil)
	if err != nil {
		return "", fmt.Errorf("init info: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return "", &StatusError{Step: "init info", Code: resp.StatusCode}
	}

	var info initInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", fmt.Errorf("decode init info: %w", err)
	}
	if info.Data.UserInfo.FileTransferToken == "" {
		return "", ErrNoToken
	}
	return info.Data.UserInfo.FileTransferToken, nil
}

func (c *Client) download(ctx context.Context, name, token string) (*Result, error) {
	q := url.Values{}
	q.Set("paths", path.Join(c.cfg.RemoteDir, name))
	q.Set("token", token)

	resp, err := c.get(ctx, downloadPath, q)
	if err != nil {
		return nil, fmt.Errorf("download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return nil, &StatusError{Step: "download", Code: resp.StatusCode}
	}

	if err := os.MkdirAll(c.cfg.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	dst := filepath.Join(c.cfg.OutputDir, name+".zip")

	// dst only ever holds a complete archive.
	tmp, err := os.CreateTemp(c.cfg.OutputDir, name+".*.part")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	n, err := io.Copy(tmp, resp.Body)
	if err != nil {
		tmp.Close()
		return nil, fmt.Errorf("write archive: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}
	if err := os.Rename(tmp.Name(), dst); err != nil {
		return nil, fmt.Errorf("move archive: %w", err)
	}

	return &Result{Name: name, Path: dst, Bytes: n}, nil
}

func (c *Client) get(ctx context.Context, p string, q url.Values) (*http.Response, error) {
	u := c.cfg.BaseURL + p
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	return c.http.Do(req)
}
