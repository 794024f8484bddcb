package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/conradoqg/maintenance-gate/internal/config"
	"github.com/conradoqg/maintenance-gate/internal/logx"
)

const gistRawURL = "https://gist.githubusercontent.com/%s/raw/maintenance-status.json"

// Bodies larger than this are not status documents.
const maxDocumentSize = 64 << 10

// Source reads the remote status document.
type Source interface {
	Fetch(ctx context.Context) (Document, error)
	URL() string
}

// ResolveURL picks the document location: the direct URL first, then the gist raw URL.
// It returns "" when neither is configured.
func ResolveURL(directURL, gistID string) string {
	if u := strings.TrimSpace(directURL); u != "" {
		return u
	}
	id := strings.TrimSpace(gistID)
	if id == "" || id == config.GistPlaceholder {
		return ""
	}
	return fmt.Sprintf(gistRawURL, id)
}

// NewHTTPClient returns a client bounded by timeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

type HTTPSource struct {
	url       string
	userAgent string
	client    *http.Client
	now       func() time.Time
}

// FromConfig builds the HTTP source for cfg. It returns nil when no remote is configured.
func FromConfig(cfg *config.Config) *HTTPSource {
	u := ResolveURL(cfg.Maintenance.DirectURL, cfg.Maintenance.GistID)
	if u == "" {
		return nil
	}
	return NewHTTPSource(u, cfg.Common.UserAgent, NewHTTPClient(cfg.Common.Timeout))
}

func NewHTTPSource(rawURL, userAgent string, client *http.Client) *HTTPSource {
	if client == nil {
		client = NewHTTPClient(10 * time.Second)
	}
	return &HTTPSource{
		url:       rawURL,
		userAgent: userAgent,
		client:    client,
		now:       time.Now,
	}
}

func (s *HTTPSource) URL() string { return s.url }

// Fetch performs one cache-busting GET. Every failure wraps ErrUnavailable.
func (s *HTTPSource) Fetch(ctx context.Context) (Document, error) {
	target, err := s.bustedURL()
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	logx.Debugf("remote fetch url=%s", target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Accept", "application/json")
	if s.userAgent != "" {
		req.Header.Set("User-Agent", s.userAgent)
	}
	res, err := s.client.Do(req)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer res.Body.Close()
	if res.StatusCode < 200 || res.StatusCode > 299 {
		return Document{}, fmt.Errorf("%w: unexpected status: %s", ErrUnavailable, res.Status)
	}
	body, err := io.ReadAll(io.LimitReader(res.Body, maxDocumentSize))
	if err != nil {
		return Document{}, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	doc, err := ParseDocument(body)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	logx.Debugf("remote document maintenanceMode=%v url=%s", doc.Raw, s.url)
	return doc, nil
}

// bustedURL appends t=<unix ms> and leaves any existing query exactly as written.
func (s *HTTPSource) bustedURL() (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("parse url: %w", err)
	}
	t := "t=" + strconv.FormatInt(s.now().UnixMilli(), 10)
	if u.RawQuery == "" {
		u.RawQuery = t
	} else {
		u.RawQuery += "&" + t
	}
	return u.String(), nil
}
