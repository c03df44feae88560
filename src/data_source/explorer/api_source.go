// Package explorer is the client side of the data service REST API.
package explorer

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"series-explorer/src/helpers"
	"series-explorer/src/interfaces"
	"series-explorer/src/logger"
	"series-explorer/src/models"
)

// APISource reads the catalogue and series from the data service.
type APISource struct {
	BaseURL string
	Network interfaces.INetworkManager
	Logger  *logger.Logger
}

// -----------------------------------------------------------------------------

func NewAPISource(baseURL string, netMgr interfaces.INetworkManager, log *logger.Logger) *APISource {
	return &APISource{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Network: netMgr,
		Logger:  log,
	}
}

// -----------------------------------------------------------------------------

func (s *APISource) Name() string {
	return "explorer-api"
}

// -----------------------------------------------------------------------------

// FetchCatalogue returns the dataset ids, or a CatalogueLoadError.
func (s *APISource) FetchCatalogue(ctx context.Context) ([]string, error) {
	body, err := s.Network.Get(ctx, s.BaseURL+"/api/datasets", nil)
	if err != nil {
		s.Logger.Error("Catalogue request failed: %v", err)
		return nil, helpers.NewCatalogueLoadError(err)
	}

	var ids []string
	if err := json.Unmarshal(body, &ids); err != nil {
		return nil, helpers.NewCatalogueLoadError(fmt.Errorf("expected a JSON array of ids: %w", err))
	}
	s.Logger.Info("Loaded catalogue with %d datasets", len(ids))
	return ids, nil
}

// -----------------------------------------------------------------------------

// FetchSeries requests one series with the query's set fields as parameters.
func (s *APISource) FetchSeries(ctx context.Context, seriesID string, query models.MQueryDescriptor) ([]models.MObservation, error) {
	endpoint := s.BaseURL + "/api/data/" + url.PathEscape(seriesID)
	body, err := s.Network.Get(ctx, endpoint, query.Params())
	if err != nil {
		return nil, err
	}
	return ParseSeriesPayload(seriesID, body)
}
