package server

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
)

// homePageTemplate lists every screen with its registered actions.
const homePageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1">
  <title>Bulk Actions</title>
  <style>
    * { box-sizing: border-box; }
    body { background: #fff; color: #000; font-family: system-ui, sans-serif; margin: 0; padding: 2rem; line-height: 1.5; }
    h1, h2 { color: #0066cc; }
    table { border-collapse: collapse; width: 100%; max-width: 900px; margin-top: 0.5rem; }
    th, td { text-align: left; padding: 0.5rem 0.75rem; border: 1px solid #ccc; }
    th { background: #f0f4f8; color: #0066cc; }
    .meta { color: #333; font-size: 0.9rem; }
    .inert { color: #999; }
  </style>
</head>
<body>
  <h1>Bulk Actions</h1>
  <p class="meta">{{len .Screens}} screen(s) wired.</p>
  {{range .Screens}}
  <section>
    <h2>{{.Screen}}</h2>
    <p class="meta">{{.ObjectType}} / {{.Subtype}}</p>
    <table>
      <thead><tr><th>Key</th><th>Label</th><th>Capability</th></tr></thead>
      <tbody>
        {{range .Actions}}
        <tr{{if not .Invocable}} class="inert"{{end}}><td>{{.Key}}</td><td>{{.Label}}</td><td>{{.Capability}}</td></tr>
        {{end}}
      </tbody>
    </table>
  </section>
  {{else}}
  <p>No bulk actions registered.</p>
  {{end}}
</body>
</html>
`

type homeAction struct {
	Key        string
	Label      string
	Capability string
	Invocable  bool
}

type homeScreen struct {
	Screen     string
	ObjectType string
	Subtype    string
	Actions    []homeAction
}

type homeData struct {
	Screens []homeScreen
}

func (s *Server) homeData() homeData {
	var data homeData
	for _, b := range s.wiring.Bindings() {
		scr := homeScreen{Screen: b.Screen(), ObjectType: b.Adapter.ObjectType, Subtype: b.Subtype}
		for _, def := range s.reg.List(b.Scope()).All() {
			scr.Actions = append(scr.Actions, homeAction{
				Key:        def.Key,
				Label:      def.Label,
				Capability: def.Capability,
				Invocable:  def.Invocable(),
			})
		}
		data.Screens = append(data.Screens, scr)
	}
	return data
}

func (s *Server) handleHome() http.HandlerFunc {
	tmpl := template.Must(template.New("home").Parse(homePageTemplate))
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := tmpl.Execute(w, s.homeData()); err != nil {
			slog.Error(fmt.Sprintf("%s - home template execute: %v", httpLogPrefix, err))
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
	}
}
