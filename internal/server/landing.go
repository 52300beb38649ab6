package server

import (
	"fmt"

	"github.com/valyala/fasttemplate"

	"github.com/datascopehq/datascope-cli/internal/appstate"
)

const landingPage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{app}}</title>
<style>
body { font-family: -apple-system, "Segoe UI", Helvetica, Arial, sans-serif; margin: 48px auto; max-width: 640px; color: #333; }
code { background: #f4f4f4; padding: 2px 5px; border-radius: 3px; }
h1 { font-weight: 600; }
.muted { color: #888; }
</style>
</head>
<body>
<h1>{{app}}</h1>
<p class="muted">version {{version}} &middot; session <code>{{session}}</code> &middot; {{dataset}}</p>
<p>The API lives under <code>/api</code>. Upload a dataset with
<code>POST /api/datasets</code> (multipart field <code>file</code>), then
explore <code>/api/datasets/{id}/stats</code>,
<code>/correlations</code>, <code>/models</code>, <code>/charts</code>,
<code>/figures</code> and <code>/report</code>.</p>
</body>
</html>
`

func renderLanding(version string, st *appstate.State) string {
	t := fasttemplate.New(landingPage, "{{", "}}")
	return t.ExecuteString(map[string]any{
		"app":     appName,
		"version": version,
		"session": st.SessionID,
		"dataset": datasetLine(st),
	})
}

// datasetLine summarizes the session's active dataset for the landing page.
func datasetLine(st *appstate.State) string {
	if st.Dataset.IsNone() {
		return "no dataset loaded"
	}
	ref, _ := st.Dataset.Get()
	return fmt.Sprintf("%s (%d rows, %d cols)", ref.Name, ref.Rows, ref.Cols)
}
