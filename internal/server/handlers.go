package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/buffer-dashboard/internal/dashboard"
	"github.com/sells-group/buffer-dashboard/internal/export"
	"github.com/sells-group/buffer-dashboard/internal/present"
	"github.com/sells-group/buffer-dashboard/internal/query"
)

const (
	defaultChartWidth  = 480
	defaultChartHeight = 640
	maxChartSide       = 2000
)

type configResponse struct {
	Sections map[dashboard.SectionName]dashboard.Control `json:"sections"`
	Failed   bool                                        `json:"failed"`
	Message  string                                      `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleConfig(w http.ResponseWriter, _ *http.Request) {
	failed, msg := s.dash.Failed()
	respondWithJSON(w, http.StatusOK, configResponse{
		Sections: s.dash.Controls(),
		Failed:   failed,
		Message:  msg,
	})
}

func (s *Server) handleSection(w http.ResponseWriter, r *http.Request) {
	section, ctrl, ok := s.section(w, r)
	if !ok {
		return
	}

	distance, ok := s.distance(w, r, ctrl)
	if !ok {
		return
	}
	var vp *present.Viewport
	if failed, _ := s.dash.Failed(); !failed {
		var err error
		if vp, err = parseViewport(r); err != nil {
			respondWithError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	out, err := s.dash.Update(section, dashboard.Params{Distance: distance, Viewport: vp})
	if err != nil {
		s.fail(w, section, err)
		return
	}
	respondWithJSON(w, http.StatusOK, out)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	section, ctrl, ok := s.section(w, r)
	if !ok {
		return
	}

	distance, ok := s.distance(w, r, ctrl)
	if !ok {
		return
	}
	width, err := parseSide(r, "width", defaultChartWidth)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	height, err := parseSide(r, "height", defaultChartHeight)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	spec, err := s.dash.Chart(section, distance)
	if err != nil {
		s.fail(w, section, err)
		return
	}

	var buf bytes.Buffer
	if err := present.RenderPNG(&buf, spec, width, height); err != nil {
		s.fail(w, section, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleExport(format export.Format) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		section, ctrl, ok := s.section(w, r)
		if !ok {
			return
		}

		distance, ok := s.distance(w, r, ctrl)
		if !ok {
			return
		}

		var buf bytes.Buffer
		err := s.dash.Export(&buf, section, distance, format)
		switch {
		case eris.Is(err, export.ErrEmpty):
			w.WriteHeader(http.StatusNoContent)
			return
		case err != nil:
			s.fail(w, section, err)
			return
		}

		w.Header().Set("Content-Type", format.ContentType())
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="%s-%s.%s"`, section, strconv.FormatFloat(distance, 'f', -1, 64), format))
		_, _ = w.Write(buf.Bytes())
	}
}

// section resolves the {section} URL parameter, writing a 404 when unknown.
func (s *Server) section(w http.ResponseWriter, r *http.Request) (dashboard.SectionName, dashboard.Control, bool) {
	section, err := dashboard.ParseSection(chi.URLParam(r, "section"))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "unknown section")
		return "", dashboard.Control{}, false
	}
	ctrl, err := s.dash.Control(section)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "unknown section")
		return "", dashboard.Control{}, false
	}
	return section, ctrl, true
}

func (s *Server) fail(w http.ResponseWriter, section dashboard.SectionName, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("section request failed", zap.String("section", string(section)), zap.Error(err))
	}
	respondWithError(w, status, errorText(err))
}

func statusFor(err error) int {
	switch {
	case eris.Is(err, query.ErrInvalidDistance):
		return http.StatusBadRequest
	case eris.Is(err, dashboard.ErrUnknownSection):
		return http.StatusNotFound
	case eris.Is(err, dashboard.ErrUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func errorText(err error) string {
	switch statusFor(err) {
	case http.StatusBadRequest:
		return "distance must be a finite, non-negative number of meters"
	case http.StatusNotFound:
		return "unknown section"
	case http.StatusServiceUnavailable:
		return "datasets not loaded"
	default:
		return "internal error"
	}
}

// distance reads the distance parameter, writing a 400 when it is invalid.
// After a load failure the parameter is ignored so every request gets the
// same error placeholder.
func (s *Server) distance(w http.ResponseWriter, r *http.Request, ctrl dashboard.Control) (float64, bool) {
	if failed, _ := s.dash.Failed(); failed {
		return ctrl.Default, true
	}
	d, err := parseDistance(r, ctrl.Default)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return 0, false
	}
	return d, true
}

func parseDistance(r *http.Request, def float64) (float64, error) {
	raw := r.URL.Query().Get("distance")
	if raw == "" {
		return def, nil
	}
	d, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Errorf("invalid distance %q", raw)
	}
	if err := query.ValidateDistance(d); err != nil {
		return 0, eris.Errorf("invalid distance %q", raw)
	}
	return d, nil
}

// parseViewport reads lat, lon and zoom. All three or none must be given.
func parseViewport(r *http.Request) (*present.Viewport, error) {
	q := r.URL.Query()
	lat, lon, zoom := q.Get("lat"), q.Get("lon"), q.Get("zoom")
	if lat == "" && lon == "" && zoom == "" {
		return nil, nil
	}
	if lat == "" || lon == "" || zoom == "" {
		return nil, eris.New("viewport needs lat, lon and zoom")
	}

	var vp present.Viewport
	var err error
	if vp.Center.Lat, err = strconv.ParseFloat(lat, 64); err != nil {
		return nil, eris.Errorf("invalid lat %q", lat)
	}
	if vp.Center.Lon, err = strconv.ParseFloat(lon, 64); err != nil {
		return nil, eris.Errorf("invalid lon %q", lon)
	}
	if vp.Zoom, err = strconv.ParseFloat(zoom, 64); err != nil {
		return nil, eris.Errorf("invalid zoom %q", zoom)
	}
	return &vp, nil
}

func parseSide(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 || n > maxChartSide {
		return 0, eris.Errorf("%s must be between 1 and %d", name, maxChartSide)
	}
	return n, nil
}

func respondWithJSON(w http.ResponseWriter, status int, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("encode response", zap.Error(err))
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func respondWithError(w http.ResponseWriter, status int, msg string) {
	respondWithJSON(w, status, map[string]string{"error": msg})
}
