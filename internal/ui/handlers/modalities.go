package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/danceschool/portal/internal/apperrors"
	"github.com/danceschool/portal/internal/logger"
	"github.com/danceschool/portal/internal/ui/auth"
	"github.com/danceschool/portal/internal/ui/forms"
	"github.com/danceschool/portal/internal/ui/templates"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HandleModalities renders the modality list
func (h *HandlerService) HandleModalities(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	page := 1
	if p := r.URL.Query().Get("page"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 1 {
			h.RenderError(w, r, http.StatusBadRequest, "Invalid page number.")
			return
		}
		page = n
	}
	search := r.URL.Query().Get("search")

	modalities, err := h.ApiClient.ListModalities(r.Context(), session.AccessToken(), page, search)
	if err != nil {
		h.handleClientError(w, r, err, "listing modalities")
		return
	}

	h.render(w, r, http.StatusOK, templates.ModalitiesPage(navItems(session), modalities, search, modalityActions(session), h.Money))
}

// HandleCreateModality creates a modality and returns its table row
func (h *HandlerService) HandleCreateModality(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	req, err := forms.ParseModalityForm(r)
	if err != nil {
		h.renderFormError(w, r, err)
		return
	}

	modality, err := h.ApiClient.CreateModality(r.Context(), session.AccessToken(), req)
	if err != nil {
		h.handleClientError(w, r, err, "creating modality")
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/modalities", http.StatusSeeOther)
		return
	}
	h.render(w, r, http.StatusOK, templates.ModalityRow(*modality, modalityActions(session), h.Money))
}

// HandleModalityRow returns the current row for a modality, used to restore a row after an abandoned edit
func (h *HandlerService) HandleModalityRow(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	id, ok := h.modalityID(w, r)
	if !ok {
		return
	}

	modality, err := h.ApiClient.GetModality(r.Context(), session.AccessToken(), id)
	if err != nil {
		h.handleClientError(w, r, err, "fetching modality")
		return
	}

	h.render(w, r, http.StatusOK, templates.ModalityRow(*modality, modalityActions(session), h.Money))
}

// HandleUpdateModality replaces a modality and returns its updated row
func (h *HandlerService) HandleUpdateModality(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	id, ok := h.modalityID(w, r)
	if !ok {
		return
	}

	req, err := forms.ParseModalityForm(r)
	if err != nil {
		h.renderFormError(w, r, err)
		return
	}

	modality, err := h.ApiClient.UpdateModality(r.Context(), session.AccessToken(), id, req)
	if err != nil {
		h.handleClientError(w, r, err, "updating modality")
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/modalities", http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, templates.ModalityRow(*modality, modalityActions(session), h.Money))
}

// HandleSetModalityActive enables or disables a modality and returns its updated row
func (h *HandlerService) HandleSetModalityActive(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	id, ok := h.modalityID(w, r)
	if !ok {
		return
	}

	active, err := strconv.ParseBool(r.FormValue("active"))
	if err != nil {
		h.RenderError(w, r, http.StatusBadRequest, "Invalid status value.")
		return
	}

	modality, err := h.ApiClient.SetModalityActive(r.Context(), session.AccessToken(), id, active)
	if err != nil {
		h.handleClientError(w, r, err, "changing modality status")
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/modalities", http.StatusSeeOther)
		return
	}

	h.render(w, r, http.StatusOK, templates.ModalityRow(*modality, modalityActions(session), h.Money))
}

// HandleDeleteModality deletes a modality. The empty HTMX response removes the row, plain form posts are
// redirected back to the list.
func (h *HandlerService) HandleDeleteModality(w http.ResponseWriter, r *http.Request) {
	session := auth.ContextSession(r.Context())

	id, ok := h.modalityID(w, r)
	if !ok {
		return
	}

	if err := h.ApiClient.DeleteModality(r.Context(), session.AccessToken(), id); err != nil {
		h.handleClientError(w, r, err, "deleting modality")
		return
	}

	if !isHTMX(r) {
		http.Redirect(w, r, "/modalities", http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// modalityID reads and validates the {id} URL parameter
func (h *HandlerService) modalityID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		reqLogger := logger.ContextRequestLogger(r.Context())
		reqLogger.Debug("invalid modality id",
			slog.String("error_code", string(apperrors.ErrCodeInvalidURLParam)),
			slog.String("id", chi.URLParam(r, "id")),
		)
		h.RenderError(w, r, http.StatusBadRequest, "Invalid modality ID.")
		return "", false
	}
	return id.String(), true
}

func (h *HandlerService) renderFormError(w http.ResponseWriter, r *http.Request, err error) {
	reqLogger := logger.ContextRequestLogger(r.Context())

	var verrs forms.ValidationErrors
	if errors.As(err, &verrs) {
		reqLogger.Debug("modality form rejected",
			slog.String("error_code", string(apperrors.ErrCodeValidationFailed)),
			slog.String("error", verrs.Error()),
		)
		h.RenderError(w, r, http.StatusUnprocessableEntity, "Please correct the form: "+verrs.Error())
		return
	}

	reqLogger.Error("could not process modality form",
		slog.String("error_code", string(apperrors.ErrCodeMalformedBody)),
		slog.String("error", err.Error()),
	)
	h.RenderError(w, r, http.StatusBadRequest, "The form could not be read.")
}
