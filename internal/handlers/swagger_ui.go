package handlers

import (
	"bytes"
	"html/template"
	"net/http"

	"ncaa-baseball/pkg/logging"
)

const openAPIPath = "/api/docs/openapi.json"

var swaggerPage = template.Must(template.New("swagger").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>{{.Title}}</title>
    <link rel="stylesheet" type="text/css" href="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui.css">
    <style>
        html { box-sizing: border-box; overflow-y: scroll; }
        *, *:before, *:after { box-sizing: inherit; }
        body { margin:0; padding:0; }
    </style>
</head>
<body>
    <div id="swagger-ui"></div>
    <script src="https://unpkg.com/swagger-ui-dist@5.10.0/swagger-ui-bundle.js"></script>
    <script>
        window.onload = function() {
            window.ui = SwaggerUIBundle({
                url: "{{.SpecURL}}",
                dom_id: '#swagger-ui',
                deepLinking: true,
                presets: [SwaggerUIBundle.presets.apis],
                layout: "BaseLayout"
            });
        };
    </script>
</body>
</html>`))

type swaggerPageData struct {
	Title   string
	SpecURL string
}

// SwaggerUI serves the interactive API documentation page
func (h *StatsHandler) SwaggerUI(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := swaggerPage.Execute(&buf, swaggerPageData{Title: "NCAA Baseball Stats API", SpecURL: openAPIPath}); err != nil {
		h.logger.Error(r.Context(), "[API_DOCS_ERROR] Failed to render documentation page", logging.Fields{}, err)
		h.sendError(w, r, "failed to render documentation", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	h.write(w, r, buf.Bytes())
}
