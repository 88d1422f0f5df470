package dashboard

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/vaservices/internal/boundary"
	"github.com/sells-group/vaservices/internal/model"
	"github.com/sells-group/vaservices/internal/servicemap"
)

const geoJSONType = "application/geo+json"

type markerJSON struct {
	City  string   `json:"city"`
	Title string   `json:"title"`
	Lat   float64  `json:"lat"`
	Lon   float64  `json:"lon"`
	Lines []string `json:"lines"`
	Popup string   `json:"popup"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleServices(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.src.ChoroplethCatalog().Services)
}

func (s *Server) handleChoropleth(w http.ResponseWriter, r *http.Request) {
	field := r.URL.Query().Get("service")
	if field == "" {
		writeError(w, r, http.StatusBadRequest, "service parameter is required")
		return
	}

	view, err := s.src.Choropleth(r.Context(), field)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	regions := make([]model.Region, len(view.Features))
	for i, f := range view.Features {
		regions[i] = f.Region
	}
	body, err := boundary.FeatureCollection(regions, func(i int, r model.Region) map[string]any {
		f := view.Features[i]
		return map[string]any{
			"name":     r.Name,
			"category": f.Category,
			"label":    f.Label,
			"color":    servicemap.CategoryColor(f.Category),
		}
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}

	if len(view.Unmatched) > 0 {
		w.Header().Set("X-Unmatched-Keys", strconv.Itoa(len(view.Unmatched)))
	}
	writeBody(w, http.StatusOK, geoJSONType, body)
}

func (s *Server) handleMarkers(w http.ResponseWriter, r *http.Request) {
	markers, err := s.src.Markers(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	out := make([]markerJSON, len(markers))
	for i, m := range markers {
		out[i] = markerJSON{
			City:  m.City,
			Title: m.Title,
			Lat:   m.Point.Lat,
			Lon:   m.Point.Lon,
			Lines: m.Lines,
			Popup: m.Popup(),
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleOutlines(w http.ResponseWriter, r *http.Request) {
	regions, err := s.src.Regions(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}

	body, err := boundary.FeatureCollection(regions, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeBody(w, http.StatusOK, geoJSONType, body)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.src.CacheStats())
}

func (s *Server) handlePurgeCaches(w http.ResponseWriter, _ *http.Request) {
	s.src.PurgeCaches()
	writeJSON(w, http.StatusOK, s.src.CacheStats())
}

// fail maps pipeline errors to a status and logs server-side failures.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	if eris.Is(err, model.ErrUnknownService) {
		status = http.StatusBadRequest
	} else {
		zap.L().Error("dashboard: render failed",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}
	writeError(w, r, status, err.Error())
}

func writeError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	writeJSON(w, status, map[string]string{
		"error":      msg,
		"request_id": middleware.GetReqID(r.Context()),
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"encode response"}`, http.StatusInternalServerError)
		return
	}
	writeBody(w, status, "application/json", body)
}

func writeBody(w http.ResponseWriter, status int, contentType string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	_, _ = w.Write(body)
}
