package handlers

import (
	"net/http"
	"regexp"

	"github.com/danceschool/portal/internal/ui/auth"
	"github.com/danceschool/portal/internal/ui/templates"
)

// periods accepted by the financial summary: a year, a quarter or a month
var periodPattern = regexp.MustCompile(`^\d{4}(-(0[1-9]|1[0-2]|Q[1-4]))?$`)

func (h *HandlerService) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	summary, err := h.ApiClient.GetDashboardSummary(r.Context(), session.AccessToken())
	if err != nil {
		h.handleClientError(w, r, err, "loading dashboard summary")
		return
	}

	h.render(w, r, http.StatusOK, templates.DashboardPage(navItems(session), session.Name(), summary, h.Money))
}

// HandleFinancial renders the financial summary for the period query parameter (the current month when absent)
func (h *HandlerService) HandleFinancial(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	period := r.URL.Query().Get("period")
	if period != "" && !periodPattern.MatchString(period) {
		h.RenderError(w, r, http.StatusBadRequest, "Invalid period, use YYYY, YYYY-MM or YYYY-Q1..Q4.")
		return
	}

	summary, err := h.ApiClient.GetFinancialSummary(r.Context(), session.AccessToken(), period)
	if err != nil {
		h.handleClientError(w, r, err, "loading financial summary")
		return
	}

	h.render(w, r, http.StatusOK, templates.FinancialSummaryPage(navItems(session), summary, h.Money))
}
