package estimator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/time/rate"

	"github.com/saadjs/tdee-cli/internal/model"
)

const estimatePath = "/v1/estimate"

type ClientConfig struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// RPS caps outgoing requests per second; zero means unlimited.
	RPS float64
}

// Client posts log snapshots to the estimation service.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

func NewClient(cfg ClientConfig) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, fmt.Errorf("estimator base url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	c := resty.New().
		SetBaseURL(base).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.Token != "" {
		c.SetAuthToken(cfg.Token)
	}

	limit := rate.Inf
	if cfg.RPS > 0 {
		limit = rate.Limit(cfg.RPS)
	}
	return &Client{http: c, limiter: rate.NewLimiter(limit, 1)}, nil
}

type estimateDay struct {
	Date     string   `json:"date"`
	WeightKg *float64 `json:"weight_kg,omitempty"`
	Calories *int     `json:"calories,omitempty"`
}

type estimateRequest struct {
	LogID int64              `json:"log_id"`
	Title string             `json:"title"`
	Goal  model.GoalCategory `json:"goal,omitempty"`
	Days  []estimateDay      `json:"days"`
}

type estimateResponse struct {
	Estimate   float64 `json:"estimate"`
	LatestDate string  `json:"latest_date"`
	Confidence string  `json:"confidence"`
}

func (c *Client) Estimate(ctx context.Context, log model.LogSummary) (*Payload, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("estimate rate limit: %w", err)
	}

	req := estimateRequest{LogID: log.ID, Title: log.Title, Goal: log.Goal, Days: make([]estimateDay, 0, len(log.Entries))}
	for _, e := range log.Entries {
		req.Days = append(req.Days, estimateDay{Date: e.Date.Format("2006-01-02"), WeightKg: e.WeightKg, Calories: e.Calories})
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&req).
		Post(estimatePath)
	if err != nil {
		return nil, fmt.Errorf("estimate request: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("estimate status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	var out estimateResponse
	if err := json.Unmarshal(resp.Body(), &out); err != nil {
		return nil, fmt.Errorf("decode estimate response: %w", err)
	}
	latest, err := parseLatestDate(out.LatestDate)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Estimate:   out.Estimate,
		LatestDate: latest,
		Confidence: out.Confidence,
		Raw:        json.RawMessage(append([]byte(nil), resp.Body()...)),
	}, nil
}

func parseLatestDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("decode estimate latest_date %q", raw)
}
