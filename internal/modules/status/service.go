// Package status summarises the uptime monitor's view of the site into
// a single indicator for the front-end footer.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/folio-space/core/internal/config"
	"github.com/folio-space/core/internal/pkg/kv"
	"go.uber.org/zap"
)

// Overall site states, ordered worst-wins.
const (
	StateOperational = "operational"
	StateDegraded    = "degraded"
	StateDown        = "down"
	StateUnknown     = "unknown"
)

const (
	cacheTTL = time.Minute
	cacheKey = "status:summary"

	defaultBaseURL = "https://api.uptimerobot.com/v2"
)

// Summary is the condensed monitor state.
type Summary struct {
	State     string    `json:"state"`
	Monitors  int       `json:"monitors"`
	Up        int       `json:"up"`
	Down      int       `json:"down"`
	CheckedAt time.Time `json:"checked_at"`
}

// Fetcher reads raw monitor states from the uptime provider.
type Fetcher interface {
	MonitorStates(ctx context.Context) ([]int, error)
}

// Client talks to the UptimeRobot v2 API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.UptimeConfig) *Client {
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	return &Client{
		baseURL:    base,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// MonitorStates returns the provider's per-monitor status codes
// (2 = up, 8/9 = down, others = paused or not yet checked).
func (c *Client) MonitorStates(ctx context.Context) ([]int, error) {
	form := url.Values{"api_key": {c.apiKey}, "format": {"json"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/getMonitors", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("uptime request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("uptime responded %d", resp.StatusCode)
	}

	var body struct {
		Stat     string `json:"stat"`
		Monitors []struct {
			Status int `json:"status"`
		} `json:"monitors"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("uptime decode: %w", err)
	}
	if body.Stat != "ok" {
		return nil, fmt.Errorf("uptime api stat %q", body.Stat)
	}

	states := make([]int, 0, len(body.Monitors))
	for _, m := range body.Monitors {
		states = append(states, m.Status)
	}
	return states, nil
}

type Service struct {
	uptime Fetcher
	cache  kv.Store
	log    *zap.Logger

	now func() time.Time
}

func NewService(uptime Fetcher, cache kv.Store, log *zap.Logger) *Service {
	return &Service{uptime: uptime, cache: cache, log: log, now: time.Now}
}

// Summary condenses the monitor list: everything up is operational,
// everything down is down, anything in between is degraded. A provider
// outage reports unknown rather than an error.
func (s *Service) Summary(ctx context.Context) Summary {
	var cached Summary
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return cached
	}

	states, err := s.uptime.MonitorStates(ctx)
	if err != nil {
		s.log.Warn("uptime provider unreachable", zap.Error(err))
		return Summary{State: StateUnknown, CheckedAt: s.now().UTC()}
	}

	sum := Summary{Monitors: len(states), CheckedAt: s.now().UTC()}
	for _, st := range states {
		switch st {
		case 2:
			sum.Up++
		case 8, 9:
			sum.Down++
		}
	}
	switch {
	case sum.Monitors == 0:
		sum.State = StateUnknown
	case sum.Down == 0:
		sum.State = StateOperational
	case sum.Up == 0:
		sum.State = StateDown
	default:
		sum.State = StateDegraded
	}

	if err := s.cache.Put(ctx, cacheKey, sum, cacheTTL); err != nil {
		s.log.Warn("status cache write failed", zap.Error(err))
	}
	return sum
}
