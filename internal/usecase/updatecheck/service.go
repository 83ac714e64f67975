package updatecheck

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// DefaultAPIBase is the release-metadata host
const DefaultAPIBase = "https://api.github.com"

// Config describes where releases are published
type Config struct {
	APIBase        string
	Owner          string
	Repo           string
	CurrentVersion string
	Timeout        time.Duration
}

// Result reports the outcome of an update check
type Result struct {
	Latest  string
	Current string
	URL     string
	Newer   bool
}

// UpdateService looks up the latest published release
type UpdateService struct {
	cfg    Config
	client *http.Client
}

// NewUpdateService creates a new UpdateService instance
func NewUpdateService(cfg Config) *UpdateService {
	if cfg.APIBase == "" {
		cfg.APIBase = DefaultAPIBase
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &UpdateService{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
}

type latestRelease struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Check fetches the latest release and compares it with the running version
func (s *UpdateService) Check(ctx context.Context) (*Result, error) {
	url := fmt.Sprintf("%s/repos/%s/%s/releases/latest",
		strings.TrimRight(s.cfg.APIBase, "/"), s.cfg.Owner, s.cfg.Repo)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build release request: %w", err)
	}
	req.Header.Set("User-Agent", "fundquota/"+s.cfg.CurrentVersion)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("release lookup returned status %d", resp.StatusCode)
	}

	var release latestRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return nil, fmt.Errorf("failed to decode release: %w", err)
	}
	if release.TagName == "" {
		return nil, fmt.Errorf("release has no tag name")
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	current := strings.TrimPrefix(s.cfg.CurrentVersion, "v")

	result := &Result{
		Latest:  latest,
		Current: current,
		URL:     release.HTMLURL,
		Newer:   CompareVersions(latest, current) > 0,
	}

	log.Debug().
		Str("latest", result.Latest).
		Str("current", result.Current).
		Bool("newer", result.Newer).
		Msg("update check completed")

	return result, nil
}

// CompareVersions compares dotted numeric versions segment by segment.
// It returns -1, 0 or 1. Missing segments count as zero, and any suffix after
// the leading digits of a segment (e.g. "0-rc1") is ignored.
func CompareVersions(a, b string) int {
	as := strings.Split(strings.TrimPrefix(a, "v"), ".")
	bs := strings.Split(strings.TrimPrefix(b, "v"), ".")

	n := len(as)
	if len(bs) > n {
		n = len(bs)
	}

	for i := 0; i < n; i++ {
		x, y := segment(as, i), segment(bs, i)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
	}
	return 0
}

func segment(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	p := parts[i]
	end := 0
	for end < len(p) && p[end] >= '0' && p[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(p[:end])
	if err != nil {
		return 0
	}
	return n
}
