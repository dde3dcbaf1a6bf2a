package http

import (
	"net/http"

	httpmiddleware "github.com/gestaozabele/painelpregao/internal/http/middleware"
	"github.com/gestaozabele/painelpregao/internal/report"
)

// ReportSummary agrega os pregões do perfil.
func (h *Handler) ReportSummary(w http.ResponseWriter, r *http.Request) {
	ws := httpmiddleware.GetWorkspace(r.Context())
	items, err := ws.Monitor.Items(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, report.Build(items))
}
