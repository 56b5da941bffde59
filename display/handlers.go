package display

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/hazyhaar/codecapture/shield"
	"github.com/hazyhaar/codecapture/submission"
)

// Texts shown on the page.
const (
	MsgNoSubmission = "No submissions stored yet"
	MsgNoCode       = "No code available to analyze"
	MsgNoCodeFound  = "No code found"
)

// pageView is the template projection of the stored submission and, after
// POST /analyze, of the review.
type pageView struct {
	Empty     bool
	LoadError string

	Success   bool
	SavedOn   string
	Title     string
	Error     string
	Code      string
	PageURL   string
	SafeURL   bool
	CanReview bool

	Analyzed      bool
	Analysis      []template.HTML
	AnalysisError string

	Now string
}

var pageTmpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en"><head><meta charset="UTF-8"><meta name="viewport" content="width=device-width,initial-scale=1">
<title>codecapture</title>
<style>
body{font-family:system-ui,sans-serif;max-width:860px;margin:2rem auto;padding:0 1rem;color:#222;background:#fafafa}
h1{font-size:1.4rem;border-bottom:2px solid #e0e0e0;padding-bottom:.5rem}
.section{background:#fff;border:1px solid #e0e0e0;border-radius:6px;padding:1rem;margin-bottom:1rem}
.success-badge,.error-badge{font-size:.75rem;padding:.15rem .5rem;border-radius:4px;color:#fff;margin-left:.5rem}
.success-badge{background:#2e7d32}.error-badge{background:#c62828}
.timestamp{font-size:.8rem;color:#666}
.error{color:#c62828}
.error-details{background:#fff5f5;border-left:3px solid #c62828;padding:.25rem .75rem}
pre{background:#f4f4f4;padding:.75rem;overflow-x:auto}
.analysis-item{border-top:1px solid #eee;padding:.5rem 0}
form{display:inline}
button{margin-right:.5rem}
</style></head><body>
<h1>codecapture</h1>
{{- if .LoadError}}
<div class="error">Error: {{.LoadError}}</div>
{{- else if .Empty}}
<div class="error">` + MsgNoSubmission + `</div>
{{- else}}
<div class="section">
<h3>Latest Submission {{if .Success}}<span class="success-badge">Success</span>{{else}}<span class="error-badge">Failed</span>{{end}}</h3>
<div class="timestamp">Saved on: {{.SavedOn}}</div>
<p><strong>Problem:</strong> {{.Title}}{{if and .PageURL .SafeURL}} (<a href="{{.PageURL}}">open</a>){{end}}</p>
{{- if .Error}}
<div class="error-details"><p><strong>Error:</strong> {{.Error}}</p></div>
{{- end}}
<div class="code-section"><h3>Your Code:</h3><pre><code>{{.Code}}</code></pre></div>
</div>
{{- end}}
<p>
<form method="post" action="/analyze"><button type="submit">Analyze Code</button></form>
<form method="post" action="/clear"><button type="submit">Clear</button></form>
</p>
{{- if .Analyzed}}
{{- if .AnalysisError}}
<div class="error">{{.AnalysisError}}</div>
{{- else}}
<div class="section analysis-section"><h3>Analysis Results</h3>
<div class="analysis">{{range .Analysis}}<div class="analysis-item">{{.}}</div>{{end}}</div>
</div>
{{- end}}
{{- end}}
<p class="timestamp">{{.Now}}</p>
</body></html>`))

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	view, _ := s.loadView(r)
	s.render(w, r, view)
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	view, stored := s.loadView(r)
	view.Analyzed = true

	switch {
	case view.LoadError != "":
		view.AnalysisError = "Error: " + view.LoadError
	case !view.CanReview:
		view.AnalysisError = MsgNoCode
	default:
		resp, err := s.analyze(r.Context(), *stored)
		switch {
		case err != nil:
			view.AnalysisError = "Error: " + err.Error()
		case !resp.Success:
			view.AnalysisError = "Error: " + resp.Error
		default:
			view.Analysis = s.formatAnalysis(resp.Analysis)
		}
	}
	s.render(w, r, view)
}

func (s *Server) handleClearForm(w http.ResponseWriter, r *http.Request) {
	if _, err := s.clearProblem(r.Context()); err != nil {
		shield.GetLogger(r.Context()).Error("display: clear failed", "error", err)
		http.Error(w, "clear failed: "+err.Error(), http.StatusBadGateway)
		return
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (s *Server) handleGetJSON(w http.ResponseWriter, r *http.Request) {
	resp, err := s.getProblem(r.Context())
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleClearJSON(w http.ResponseWriter, r *http.Request) {
	resp, err := s.clearProblem(r.Context())
	if err != nil {
		jsonErr(w, err.Error(), http.StatusBadGateway)
		return
	}
	writeJSON(w, resp)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// loadView reads the stored submission. A failed read is shown on the
// page rather than answered with an error status.
func (s *Server) loadView(r *http.Request) (pageView, *submission.Snapshot) {
	view := pageView{Now: s.now().Format("2006-01-02 15:04:05")}

	stored, err := s.getProblem(r.Context())
	if err != nil {
		shield.GetLogger(r.Context()).Warn("display: load submission", "error", err)
		view.LoadError = err.Error()
		return view, nil
	}
	if stored.ProblemInfo == nil {
		view.Empty = true
		return view, nil
	}

	p := stored.ProblemInfo
	view.Success = p.SubmissionResult.Success
	view.SavedOn = formatSavedOn(stored.LastUpdated)
	view.Title = p.Title
	view.Error = p.SubmissionResult.Error
	view.Code = p.UserCode
	if view.Code == "" {
		view.Code = MsgNoCodeFound
	}
	view.PageURL = p.PageURL
	view.SafeURL = isSafeURL(p.PageURL)
	view.CanReview = p.HasCode()
	return view, p
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, view pageView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pageTmpl.Execute(w, view); err != nil {
		shield.GetLogger(r.Context()).Error("display: render", "error", err)
	}
}

// formatSavedOn renders an RFC 3339 timestamp in local time.
func formatSavedOn(ts string) string {
	if ts == "" {
		return "Unknown"
	}
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

// isSafeURL returns true if the URL uses http or https scheme.
func isSafeURL(u string) bool {
	lower := strings.ToLower(u)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func jsonErr(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
