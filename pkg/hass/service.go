// Package hass reads entity states and history from the Home Assistant REST API.
package hass

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NotCoffee418/energy_monitor/pkg/config"
	"github.com/NotCoffee418/energy_monitor/pkg/types"
	"go.uber.org/zap"
)

type Client struct {
	baseURL string
	key     string
	client  *http.Client
	logger  *zap.Logger
	obs     Observer
}

// New creates a client for the configured instance. obs may be nil.
func New(cfg config.HomeAssistantConfig, logger *zap.Logger, obs Observer) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		key:     fmt.Sprintf("Bearer %s", cfg.Token),
		client: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
		logger: logger,
		obs:    obs,
	}
}

// States returns the full state registry in host order.
func (c *Client) States(ctx context.Context) (types.StateSnapshot, error) {
	var entities []types.EntityState
	if err := c.getJSON(ctx, "/api/states", nil, &entities); err != nil {
		return types.StateSnapshot{}, fmt.Errorf("failed to read states: %w", err)
	}
	c.logger.Debug("read host states", zap.Int("count", len(entities)))
	return types.NewStateSnapshot(entities), nil
}

// State returns one entity, ErrEntityNotFound if the host does not know it.
func (c *Client) State(ctx context.Context, entityID string) (types.EntityState, error) {
	var e types.EntityState
	err := c.getJSON(ctx, "/api/states/"+url.PathEscape(entityID), nil, &e)
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound {
		return types.EntityState{}, ErrEntityNotFound
	}
	if err != nil {
		return types.EntityState{}, err
	}
	return e, nil
}

// History returns the raw samples of one entity between start and end, in host order.
func (c *Client) History(ctx context.Context, entityID string, start, end time.Time) (types.Series, error) {
	q := url.Values{}
	q.Set("filter_entity_id", entityID)
	q.Set("end_time", end.UTC().Format(time.RFC3339))
	q.Set("significant_changes_only", "0")

	var payload [][]historyState
	path := "/api/history/period/" + url.PathEscape(start.UTC().Format(time.RFC3339))
	if err := c.getJSON(ctx, path, q, &payload); err != nil {
		return nil, err
	}

	series := types.Series{}
	for _, states := range payload {
		for _, s := range states {
			if s.EntityID != "" && s.EntityID != entityID {
				continue
			}
			series = append(series, s.sample())
		}
	}
	return series, nil
}

// FetchSeries returns the samples of one entity over the whole days of the period.
// Any failure, including an unknown entity, yields an empty series.
func (c *Client) FetchSeries(ctx context.Context, entityID string, period types.Period) types.Series {
	logger := c.logger.With(zap.String("entity_id", entityID), zap.Stringer("period", period))

	if _, err := c.State(ctx, entityID); err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			logger.Warn("entity not found on host")
		} else {
			logger.Warn("entity state check failed", zap.Error(err))
		}
		c.fetchFailed(entityID)
		return types.Series{}
	}

	series, err := c.History(ctx, entityID, period.Start.StartUTC(), period.End.EndUTC())
	if err != nil {
		var httpErr *HTTPError
		switch {
		case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound:
			logger.Error("history not found, entity may not have historical data", zap.Error(err))
		case errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusServiceUnavailable:
			logger.Error("history service unavailable, recorder may not be running", zap.Error(err))
		default:
			logger.Error("history query failed", zap.Error(err))
		}
		c.fetchFailed(entityID)
		return types.Series{}
	}

	if len(series) == 0 {
		logger.Warn("no history data")
	} else {
		logger.Debug("history data points found", zap.Int("points", len(series)))
	}
	return series
}

func (c *Client) fetchFailed(entityID string) {
	if c.obs != nil {
		c.obs.FetchFailed(entityID)
	}
}

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", c.key)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &HTTPError{Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(b))}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse JSON from %s: %w", path, err)
	}
	return nil
}
