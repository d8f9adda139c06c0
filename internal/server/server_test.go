//go:build !integration

package server

import (
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/buffer-dashboard/internal/config"
	"github.com/sells-group/buffer-dashboard/internal/dashboard"
	"github.com/sells-group/buffer-dashboard/internal/dataset"
	"github.com/sells-group/buffer-dashboard/internal/geometry"
	"github.com/sells-group/buffer-dashboard/internal/present"
	"github.com/sells-group/buffer-dashboard/internal/query"
)

func dashConfig() config.DashboardConfig {
	return config.DashboardConfig{
		Roads:       config.SliderConfig{Min: 0, Max: 10000, Step: 100, Default: 500},
		Ports:       config.SliderConfig{Min: 0, Max: 50000, Step: 1000, Default: 20000},
		DefaultZoom: 6,
		MapStyle:    "carto-darkmatter",
	}
}

func testDashboard(t *testing.T) *dashboard.Dashboard {
	t.Helper()

	proj, err := geometry.NewReprojector(geometry.HTRS96)
	require.NoError(t, err)

	mls := geom.NewMultiLineString(geom.XY)
	require.NoError(t, mls.Push(geom.NewLineStringFlat(geom.XY, []float64{500000, 5000000, 510000, 5000000})))

	b, err := dataset.NewBundle(
		[]dataset.Road{{Class: 3, Geom: mls}},
		[]dataset.Settlement{
			{Name: "Near", Population: 1500, Position: geom.Coord{505000, 5000200}},
			{Name: "Far City", Population: 25000, Position: geom.Coord{505000, 5020000}},
		},
		[]dataset.Port{
			{Name: "Marina X", Position: geom.Coord{505000, 5021000}},
			{Name: "Remote", Position: geom.Coord{540000, 5090000}},
		},
		proj,
		dataset.Options{RoadClasses: []int{1, 3}, LargeSettlementMin: 10000},
	)
	require.NoError(t, err)
	return dashboard.New(b, nil, geometry.NewGEOS(), dashConfig())
}

func failedDashboard() *dashboard.Dashboard {
	loadErr := &dataset.LoadError{File: "m_luke.csv", Err: os.ErrNotExist}
	return dashboard.New(nil, loadErr, geometry.NewGEOS(), dashConfig())
}

func newTestServer(d *dashboard.Dashboard) *Server {
	return New(d, config.ServerConfig{Port: 8050, CorsOrigins: []string{"*"}})
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	rec := get(t, newTestServer(testDashboard(t)), "/health")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestIndex(t *testing.T) {
	rec := get(t, newTestServer(testDashboard(t)), "/")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/config")
}

func TestConfigEndpoint(t *testing.T) {
	rec := get(t, newTestServer(testDashboard(t)), "/api/config")
	require.Equal(t, http.StatusOK, rec.Code)

	var body configResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.False(t, body.Failed)
	assert.Equal(t, dashboard.Control{Min: 0, Max: 10000, Step: 100, Default: 500}, body.Sections[dashboard.Roads])
	assert.Equal(t, 50000.0, body.Sections[dashboard.Ports].Max)
}

func TestSectionEndpoint(t *testing.T) {
	srv := newTestServer(testDashboard(t))

	rec := get(t, srv, "/api/sections/roads?distance=500")
	require.Equal(t, http.StatusOK, rec.Code)

	var out present.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Population within 500 meters: 1,500", out.Title)
	assert.Len(t, out.Map.Layers, 3)
	assert.Equal(t, 6.0, out.Map.Viewport.Zoom)
}

func TestSectionEndpoint_DefaultDistance(t *testing.T) {
	rec := get(t, newTestServer(testDashboard(t)), "/api/sections/ports")
	require.Equal(t, http.StatusOK, rec.Code)

	var out present.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "Number of ports within 20.0 km of large settlements: 1", out.Title)
}

func TestSectionEndpoint_Viewport(t *testing.T) {
	rec := get(t, newTestServer(testDashboard(t)), "/api/sections/roads?distance=500&lat=45.5&lon=16.25&zoom=9")
	require.Equal(t, http.StatusOK, rec.Code)

	var out present.Output
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, present.Viewport{Center: present.LatLon{Lat: 45.5, Lon: 16.25}, Zoom: 9}, *out.Map.Viewport)
}

func TestSectionEndpoint_BadRequests(t *testing.T) {
	srv := newTestServer(testDashboard(t))

	tests := []struct {
		name   string
		target string
		status int
	}{
		{"negative distance", "/api/sections/roads?distance=-1", http.StatusBadRequest},
		{"not a number", "/api/sections/roads?distance=abc", http.StatusBadRequest},
		{"nan", "/api/sections/ports?distance=NaN", http.StatusBadRequest},
		{"partial viewport", "/api/sections/roads?lat=45", http.StatusBadRequest},
		{"bad zoom", "/api/sections/roads?lat=45&lon=16&zoom=x", http.StatusBadRequest},
		{"unknown section", "/api/sections/rivers", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, srv, tt.target)
			assert.Equal(t, tt.status, rec.Code)
			assert.Contains(t, rec.Body.String(), `"error"`)
		})
	}
}

func TestSectionEndpoint_LoadFailure(t *testing.T) {
	srv := newTestServer(failedDashboard())

	for _, target := range []string{
		"/api/sections/roads?distance=500",
		"/api/sections/ports?distance=0",
		"/api/sections/roads?distance=-1",
		"/api/sections/ports?distance=abc&lat=1",
	} {
		rec := get(t, srv, target)
		require.Equal(t, http.StatusOK, rec.Code)

		var out present.Output
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		assert.True(t, out.Error)
		assert.Equal(t, "Error: Could not load data file 'm_luke.csv'. Make sure all data files are in the same directory.", out.Title)
	}

	rec := get(t, srv, "/api/config")
	var body configResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Failed)
	assert.Contains(t, body.Message, "m_luke.csv")
}

func TestChartEndpoint(t *testing.T) {
	srv := newTestServer(testDashboard(t))

	rec := get(t, srv, "/api/sections/roads/chart.png?distance=500&width=300&height=400")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	rec = get(t, srv, "/api/sections/roads/chart.png?width=99999")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportEndpoint(t *testing.T) {
	srv := newTestServer(testDashboard(t))

	rec := get(t, srv, "/api/sections/roads/export.fgb?distance=500")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/flatgeobuf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "roads-500.fgb")
	assert.NotZero(t, rec.Body.Len())

	rec = get(t, srv, "/api/sections/roads/export.fgb?distance=0")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = get(t, srv, "/api/sections/ports/export.xlsx?distance=20000")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "ports-20000.xlsx")

	rec = get(t, newTestServer(failedDashboard()), "/api/sections/ports/export.fgb")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = get(t, newTestServer(failedDashboard()), "/api/sections/roads/export.xlsx?distance=-1")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(eris.Wrap(query.ErrInvalidDistance, "x")))
	assert.Equal(t, http.StatusNotFound, statusFor(dashboard.ErrUnknownSection))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(dashboard.ErrUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(eris.New("boom")))
}

type wsMessage struct {
	Section string          `json:"section"`
	Output  *present.Output `json:"output"`
	Error   string          `json:"error"`
}

func dialWS(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Second))
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) wsMessage {
	t.Helper()
	var msg wsMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestWebSocket_Session(t *testing.T) {
	conn := dialWS(t, newTestServer(testDashboard(t)))

	first := readMessage(t, conn)
	assert.Equal(t, "roads", first.Section)
	assert.Equal(t, "Population within 500 meters: 1,500", first.Output.Title)
	second := readMessage(t, conn)
	assert.Equal(t, "ports", second.Section)

	require.NoError(t, conn.WriteJSON(map[string]any{
		"section": "roads", "type": "viewport",
		"viewport": map[string]any{"center": map[string]float64{"lat": 45.2, "lon": 16.1}, "zoom": 10},
	}))
	msg := readMessage(t, conn)
	require.NotNil(t, msg.Output)
	assert.Equal(t, 10.0, msg.Output.Map.Viewport.Zoom)

	require.NoError(t, conn.WriteJSON(map[string]any{"section": "roads", "type": "distance", "distance": 30000}))
	msg = readMessage(t, conn)
	assert.Equal(t, "Population within 30000 meters: 26,500", msg.Output.Title)
	assert.Equal(t, 10.0, msg.Output.Map.Viewport.Zoom, "viewport survives a distance change")
}

func TestWebSocket_RejectsBadEvents(t *testing.T) {
	conn := dialWS(t, newTestServer(testDashboard(t)))
	readMessage(t, conn)
	readMessage(t, conn)

	require.NoError(t, conn.WriteJSON(map[string]any{"section": "roads", "type": "distance", "distance": -3}))
	msg := readMessage(t, conn)
	assert.Equal(t, "roads", msg.Section)
	assert.Contains(t, msg.Error, "non-negative")
	assert.Nil(t, msg.Output)

	require.NoError(t, conn.WriteJSON(map[string]any{"section": "rivers", "type": "distance", "distance": 3}))
	msg = readMessage(t, conn)
	assert.Equal(t, "unknown section", msg.Error)

	require.NoError(t, conn.WriteJSON(map[string]any{"section": "ports", "type": "pan"}))
	msg = readMessage(t, conn)
	assert.Equal(t, "invalid event", msg.Error)

	for _, raw := range []string{
		`{"section":"roads","type":"distance","distance":"x"}`,
		`{"section":"roads","type":"distance","distance":1e400}`,
		`{"section":"roads",`,
	} {
		require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
		msg = readMessage(t, conn)
		assert.Equal(t, "invalid event", msg.Error, raw)
		assert.Nil(t, msg.Output)
	}

	// The session keeps working after rejected events.
	require.NoError(t, conn.WriteJSON(map[string]any{"section": "ports", "type": "distance", "distance": 500}))
	msg = readMessage(t, conn)
	assert.Equal(t, "Number of ports within 0.5 km of large settlements: 0", msg.Output.Title)
}

func TestWebSocket_LoadFailure(t *testing.T) {
	conn := dialWS(t, newTestServer(failedDashboard()))

	for i := 0; i < 2; i++ {
		msg := readMessage(t, conn)
		require.NotNil(t, msg.Output)
		assert.True(t, msg.Output.Error)
		assert.Contains(t, msg.Output.Title, "m_luke.csv")
	}
}
