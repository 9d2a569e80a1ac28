package handlers

import (
	"html/template"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/streets-name-id/internal/street"
)

// ReportHandler renders the human-readable run report.
type ReportHandler struct {
	Source RunSource
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"statusClass": statusClass,
}).Parse(`<!DOCTYPE html>
<html dir="rtl" lang="he">
<head>
<meta charset="utf-8">
<title>דו"ח התאמת רחובות: {{.Diagnostics.Settlement}}</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 4px 8px; text-align: right; }
tr.confident { background: #d7f0d7; }
tr.arbitration { background: #fdf3cf; }
tr.missing { background: #f5d5d5; }
.summary span { margin-left: 2em; }
</style>
</head>
<body>
<h1>{{.Diagnostics.Settlement}}</h1>
<div class="summary">
<span>קטעים: {{.Diagnostics.TotalSegments}}</span>
<span>הותאמו: {{.Diagnostics.TotalMatched}}</span>
<span>בוררות הצליחה: {{.Diagnostics.ArbitrationResolved}}</span>
<span>בוררות נכשלה: {{.Diagnostics.ArbitrationFailed}}</span>
<span>ללא התאמה: {{.Diagnostics.UnmatchedSegments}}</span>
</div>
<table>
<tr><th>מזהה קטע</th><th>שם</th><th>סטטוס</th><th>מזהה מרשם</th><th>שם במרשם</th><th>ציון</th></tr>
{{range .Classifications}}
<tr class="{{statusClass .Status}}">
<td>{{.SegmentID}}</td>
<td>{{.SegmentName}}</td>
<td>{{.Status}}</td>
<td>{{.BestRegistryID}}</td>
<td>{{.BestName}}</td>
<td>{{printf "%.1f" .BestScore}}</td>
</tr>
{{end}}
</table>
{{if .Diagnostics.UnmatchedRegistry}}
<h2>רשומות מרשם ללא התאמה</h2>
<ul>
{{range .Diagnostics.UnmatchedRegistry}}<li>{{.ID}}: {{.Name}}</li>{{end}}
</ul>
{{end}}
</body>
</html>`))

func statusClass(status street.Status) string {
	switch status {
	case street.StatusConfident:
		return "confident"
	case street.StatusNeedsArbitration:
		return "arbitration"
	default:
		return "missing"
	}
}

type reportPage struct {
	Diagnostics     street.Diagnostics
	Classifications []street.ClassificationResult
}

// RenderReport serves the color-coded HTML report for a settlement's
// latest run.
func (h *ReportHandler) RenderReport(w http.ResponseWriter, r *http.Request) {
	settlement := mux.Vars(r)["settlement"]
	runID, diagnostics, err := h.Source.LatestRun(r.Context(), settlement)
	if err != nil {
		http.Error(w, "no completed run for settlement "+settlement, http.StatusNotFound)
		return
	}
	classifications, err := h.Source.RunResults(r.Context(), runID)
	if err != nil {
		http.Error(w, "database error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := reportTemplate.Execute(w, reportPage{diagnostics, classifications}); err != nil {
		http.Error(w, "render error", http.StatusInternalServerError)
	}
}
