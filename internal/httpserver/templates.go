package httpserver

import (
	"embed"
	"encoding/json"
	"html/template"
	"io"

	"github.com/radiusdt/marketing-dashboard/internal/dashboard"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(
	template.New("").Funcs(template.FuncMap{
		"cell": dashboard.Cell,
		"json": toJSON,
	}).ParseFS(templateFS, "templates/*.html"),
)

func toJSON(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

type navItem struct {
	Label  string
	Slug   string
	Active bool
}

type errorView struct {
	Title   string
	Message string
}

// layoutData feeds the layout template. Exactly one of Page and Error is set.
type layoutData struct {
	AppTitle string
	Nav      []navItem
	Next     string
	Page     *dashboard.Page
	Error    *errorView
}

func navigation(active dashboard.View, hasActive bool) []navItem {
	items := make([]navItem, 0, len(dashboard.Views()))
	for _, v := range dashboard.Views() {
		items = append(items, navItem{
			Label:  v.Label(),
			Slug:   v.Slug(),
			Active: hasActive && v == active,
		})
	}
	return items
}

func renderLayout(w io.Writer, data layoutData) error {
	return templates.ExecuteTemplate(w, "layout", data)
}
