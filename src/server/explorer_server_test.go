package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"series-explorer/src/logger"
	"series-explorer/src/models"
	"series-explorer/src/orchestrator"
	"series-explorer/src/utils"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// -----------------------------------------------------------------------------

type stubFetcher struct{}

func (stubFetcher) Fetch(_ context.Context, ids []string, _ models.MQueryDescriptor) (map[string][]models.MObservation, error) {
	out := make(map[string][]models.MObservation, len(ids))
	for _, id := range ids {
		out[id] = []models.MObservation{obs("2021-01-01", 1), obs("2021-02-01", 2)}
	}
	return out, nil
}

type stubCatalogue struct {
	ids []string
	err error
}

func (s stubCatalogue) Name() string { return "stub" }

func (s stubCatalogue) FetchCatalogue(context.Context) ([]string, error) {
	return s.ids, s.err
}

func (s stubCatalogue) FetchSeries(context.Context, string, models.MQueryDescriptor) ([]models.MObservation, error) {
	return nil, errors.New("not used")
}

func newExplorerServer(t *testing.T, catalogue stubCatalogue) *ExplorerServer {
	t.Helper()
	log := logger.NewLogger("test")
	history := utils.NewRingBuffer[models.MFetchMetrics](10)
	orch := orchestrator.New(stubFetcher{}, 10*time.Millisecond, history, log)

	srv := NewExplorerServer(&models.MExplorerConfig{Host: "127.0.0.1"}, orch, catalogue, history, log)
	t.Cleanup(func() {
		srv.Stop()
		orch.Close()
	})
	return srv
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(rec, req)
	return rec
}

// -----------------------------------------------------------------------------

func TestExplorerServer_SelectionOverREST(t *testing.T) {
	srv := newExplorerServer(t, stubCatalogue{})
	h := srv.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/selection/toggle", `{}`).Code)
	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/selection/toggle", `{"series":"UNRATE"}`).Code)

	require.Eventually(t, func() bool {
		state := srv.LatestState()
		return state.Phase == models.PhaseSettled && len(state.Table.Dates) == 2
	}, 2*time.Second, 5*time.Millisecond, "published state reaches the server cache")

	rec := do(t, h, http.MethodGet, "/api/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selection":["UNRATE"]`)
	assert.Contains(t, rec.Body.String(), `"dates":["2021-01-01","2021-02-01"]`)

	require.Eventually(t, func() bool {
		rec := do(t, h, http.MethodGet, "/api/metrics", "")
		return rec.Code == http.StatusOK && strings.Contains(rec.Body.String(), `"outcome":"success"`)
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPut, "/api/selection", `{"series":[]}`).Code)
	require.Eventually(t, func() bool {
		return srv.LatestState().Table.IsEmpty()
	}, time.Second, 5*time.Millisecond)
}

func TestExplorerServer_Filters(t *testing.T) {
	srv := newExplorerServer(t, stubCatalogue{})
	h := srv.Handler()

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/api/filters", `not json`).Code)

	rec := do(t, h, http.MethodPut, "/api/filters", `{"start":"2021-01-01","frequency":"monthly"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Contains(t, rec.Body.String(), `"frequency":"monthly"`)
}

func TestExplorerServer_RefreshRefetchesSameSelection(t *testing.T) {
	srv := newExplorerServer(t, stubCatalogue{})
	h := srv.Handler()

	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPut, "/api/selection", `{"series":["UNRATE"]}`).Code)
	require.Eventually(t, func() bool {
		state := srv.LatestState()
		return state.Phase == models.PhaseSettled && state.Epoch == 1
	}, 2*time.Second, 5*time.Millisecond)

	// the same selection again changes nothing
	require.Equal(t, http.StatusAccepted, do(t, h, http.MethodPut, "/api/selection", `{"series":["UNRATE"]}`).Code)
	time.Sleep(40 * time.Millisecond)
	assert.EqualValues(t, 1, srv.LatestState().Epoch)

	assert.Equal(t, http.StatusAccepted, do(t, h, http.MethodPost, "/api/refresh", "").Code)
	require.Eventually(t, func() bool {
		state := srv.LatestState()
		return state.Phase == models.PhaseSettled && state.Epoch == 2 && len(state.Table.Dates) == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestExplorerServer_Catalogue(t *testing.T) {
	ok := newExplorerServer(t, stubCatalogue{ids: []string{"UNRATE", "DGS10"}})
	rec := do(t, ok.Handler(), http.MethodGet, "/api/catalogue", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"catalogue":["DGS10","UNRATE"]}`, rec.Body.String())

	failing := newExplorerServer(t, stubCatalogue{err: errors.New("connection refused")})
	rec = do(t, failing.Handler(), http.MethodGet, "/api/catalogue", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Contains(t, failing.Orchestrator.State().CatalogueError, "connection refused")
}

func TestExplorerServer_Health(t *testing.T) {
	srv := newExplorerServer(t, stubCatalogue{})
	rec := do(t, srv.Handler(), http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
	assert.Contains(t, rec.Body.String(), `"phase":"idle"`)
}

// -----------------------------------------------------------------------------

func dial(t *testing.T, srv *ExplorerServer) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) models.MStateMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg models.MStateMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil skips broadcasts until a message of the given type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, kind string) models.MStateMessage {
	t.Helper()
	for {
		msg := readMessage(t, conn)
		if msg.Type == kind {
			return msg
		}
		require.Equal(t, models.MessageUpdate, msg.Type)
	}
}

func TestExplorerServer_WebsocketCommands(t *testing.T) {
	srv := newExplorerServer(t, stubCatalogue{})
	conn := dial(t, srv)

	initial := readMessage(t, conn)
	assert.Equal(t, models.MessageInitial, initial.Type)
	require.NotNil(t, initial.State)
	assert.Empty(t, initial.State.Selection)

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: models.CommandToggle, Series: "UNRATE"}))

	// Updates may coalesce; read until the fetched table arrives.
	for {
		msg := readMessage(t, conn)
		require.Equal(t, models.MessageUpdate, msg.Type)
		if msg.State.Phase == models.PhaseSettled {
			assert.Equal(t, []string{"UNRATE"}, msg.State.Selection)
			assert.Len(t, msg.State.Table.Series["UNRATE"], 2)
			break
		}
	}

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: "zoom"}))
	msg := readUntil(t, conn, models.MessageError)
	assert.Equal(t, models.MessageError, msg.Type)
	assert.Contains(t, msg.Error, "zoom")

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: models.CommandSubscribe}))
	msg = readUntil(t, conn, models.MessageInitial)
	assert.Equal(t, []string{"UNRATE"}, msg.State.Selection)

	require.NoError(t, conn.WriteJSON(models.MClientCommand{Command: models.CommandRefresh}))
	for {
		msg = readUntil(t, conn, models.MessageUpdate)
		if msg.State.Phase == models.PhaseSettled && msg.State.Epoch == 2 {
			break
		}
	}
	assert.Equal(t, []string{"UNRATE"}, msg.State.Selection)
	assert.Len(t, msg.State.Table.Series["UNRATE"], 2)
}
