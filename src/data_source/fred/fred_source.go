// Package fred ingests series from the FRED statistics API.
package fred

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"
)

const missingMarker = "."

type FREDSource struct {
	Config  models.MFREDConfig
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

type categoryResponse struct {
	Seriess []struct {
		ID string `json:"id"`
	} `json:"seriess"`
	Series []struct {
		ID string `json:"id"`
	} `json:"series"`
}

type observationsResponse struct {
	Observations []struct {
		Date  string `json:"date"`
		Value string `json:"value"`
	} `json:"observations"`
}

// -----------------------------------------------------------------------------

func NewFREDSource(cfg models.MFREDConfig, netMgr interfaces.INetworkManager, log *logger.Logger) *FREDSource {
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	return &FREDSource{Config: cfg, Network: netMgr, Logger: log}
}

// -----------------------------------------------------------------------------

func (s *FREDSource) Name() string {
	return "fred"
}

// -----------------------------------------------------------------------------

func (s *FREDSource) params(extra map[string]string) map[string]string {
	p := map[string]string{
		"api_key":   s.Config.APIKey,
		"file_type": "json",
	}
	for k, v := range extra {
		p[k] = v
	}
	return p
}

// -----------------------------------------------------------------------------

// ListSeries returns the configured series ids, or the ids of the configured
// category when none are listed.
func (s *FREDSource) ListSeries(ctx context.Context) ([]string, error) {
	if len(s.Config.Series) > 0 {
		return models.NormalizeSelection(s.Config.Series), nil
	}

	body, err := s.Network.Get(ctx, s.Config.BaseURL+"category/series", s.params(map[string]string{
		"category_id": strconv.Itoa(s.Config.CategoryID),
		"limit":       strconv.Itoa(s.Config.Limit),
	}))
	if err != nil {
		return nil, fmt.Errorf("FRED category %d: %w", s.Config.CategoryID, err)
	}

	var resp categoryResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("FRED category %d: malformed response: %w", s.Config.CategoryID, err)
	}

	ids := make([]string, 0, len(resp.Seriess)+len(resp.Series))
	for _, entry := range resp.Seriess {
		ids = append(ids, entry.ID)
	}
	for _, entry := range resp.Series {
		ids = append(ids, entry.ID)
	}
	s.Logger.Info("FRED category %d lists %d series", s.Config.CategoryID, len(ids))
	return models.NormalizeSelection(ids), nil
}

// -----------------------------------------------------------------------------

// LoadSeries downloads the full observation history of one series.
func (s *FREDSource) LoadSeries(ctx context.Context, seriesID string) ([]models.MObservation, error) {
	body, err := s.Network.Get(ctx, s.Config.BaseURL+"series/observations", s.params(map[string]string{
		"series_id": seriesID,
	}))
	if err != nil {
		return nil, fmt.Errorf("FRED series %s: %w", seriesID, err)
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("FRED series %s: malformed response: %w", seriesID, err)
	}

	observations := make([]models.MObservation, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		date, err := models.ParseDate(o.Date)
		if err != nil {
			return nil, fmt.Errorf("FRED series %s: %w", seriesID, err)
		}
		var value *float64
		if raw := strings.TrimSpace(o.Value); raw != missingMarker {
			if v, err := strconv.ParseFloat(raw, 64); err == nil {
				value = models.Float(v)
			}
		}
		observations = append(observations, models.MObservation{Date: date, Value: value})
	}
	return observations, nil
}
