package dashboard

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"github.com/sells-group/vaservices/internal/model"
	"github.com/sells-group/vaservices/internal/servicemap"
)

//go:embed templates/*.html
var templateFS embed.FS

type pages struct {
	choropleth *template.Template
	markers    *template.Template
}

func loadPages() *pages {
	return &pages{
		choropleth: template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/choropleth.html")),
		markers:    template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/markers.html")),
	}
}

type legendEntry struct {
	Category model.Category
	Color    string
	Count    int
}

type pageData struct {
	Title     string
	CenterLat float64
	CenterLon float64
	Zoom      int
	Services  []model.Service
	Selected  string
	Legend    []legendEntry
}

func (s *Server) pageData() pageData {
	return pageData{
		Title:     s.opts.Map.Title,
		CenterLat: s.opts.Map.CenterLat,
		CenterLon: s.opts.Map.CenterLon,
		Zoom:      s.opts.Map.Zoom,
		Services:  s.src.ChoroplethCatalog().Services,
	}
}

// legend lists every category in legend order with its county count.
func legend(summary map[model.Category]int) []legendEntry {
	out := make([]legendEntry, len(model.Categories))
	for i, c := range model.Categories {
		out[i] = legendEntry{Category: c, Color: servicemap.CategoryColor(c), Count: summary[c]}
	}
	return out
}

func (s *Server) handleChoroplethPage(w http.ResponseWriter, r *http.Request) {
	data := s.pageData()
	catalog := s.src.ChoroplethCatalog()

	data.Selected = r.URL.Query().Get("service")
	if data.Selected == "" && len(catalog.Services) > 0 {
		data.Selected = catalog.Services[0].Field
	}

	view, err := s.src.Choropleth(r.Context(), data.Selected)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	data.Legend = legend(view.Summary)

	s.render(w, r, s.pages.choropleth, data)
}

func (s *Server) handleMarkersPage(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, s.pages.markers, s.pageData())
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, t *template.Template, data pageData) {
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		s.fail(w, r, err)
		return
	}
	writeBody(w, http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}
