//go:build !integration

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/buffer-dashboard/internal/config"
	"github.com/sells-group/buffer-dashboard/internal/server"
)

func emptyDirConfig(t *testing.T) *config.Config {
	return &config.Config{
		Data: config.DataConfig{
			Dir:                t.TempDir(),
			RoadsFile:          "ROADS.shp",
			SettlementsFile:    "naselja.csv",
			PortsFile:          "m_luke.csv",
			Delimiter:          ";",
			CSVEncoding:        "utf-8",
			ShapefileEncoding:  "windows-1252",
			RoadClasses:        []int{1, 3},
			LargeSettlementMin: 10000,
		},
		Dashboard: config.DashboardConfig{
			Roads:       config.SliderConfig{Min: 0, Max: 10000, Step: 100, Default: 500},
			Ports:       config.SliderConfig{Min: 0, Max: 50000, Step: 1000, Default: 20000},
			DefaultZoom: 6,
			MapStyle:    "carto-darkmatter",
		},
		Server: config.ServerConfig{Port: 8050},
	}
}

func TestBuildDashboard_MissingFilesStillServes(t *testing.T) {
	c := emptyDirConfig(t)
	dash := buildDashboard(context.Background(), c)

	failed, msg := dash.Failed()
	require.True(t, failed)
	assert.Contains(t, msg, "Error: Could not load data file '")

	h := server.New(dash, c.Server)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sections/roads?distance=500", nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Title string `json:"title"`
		Error bool   `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.True(t, out.Error)
	assert.Equal(t, msg, out.Title)
}

func TestQueryCommand_Errors(t *testing.T) {
	cfg = emptyDirConfig(t)
	queryCmd.SetContext(context.Background())

	err := queryCmd.RunE(queryCmd, []string{"rivers"})
	assert.Error(t, err)

	err = queryCmd.RunE(queryCmd, []string{"roads"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Could not load data file")
}

func TestConfigCommand_PrintsYAML(t *testing.T) {
	cfg = emptyDirConfig(t)

	var out bytes.Buffer
	configCmd.SetOut(&out)
	t.Cleanup(func() { configCmd.SetOut(nil) })

	require.NoError(t, configCmd.RunE(configCmd, nil))
	assert.Contains(t, out.String(), "settlements_file: naselja.csv")
	assert.Contains(t, out.String(), "port: 8050")
}
