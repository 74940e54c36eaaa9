// internal/app/features/contact/handler.go
package contact

import (
	"embed"
	"errors"
	"net/http"

	"github.com/foliokit/contactd/httputil"
	"github.com/foliokit/contactd/internal/app/visitor"
	"github.com/foliokit/contactd/internal/domain/models"
	"github.com/foliokit/contactd/templates"
	"github.com/gorilla/schema"
	"go.uber.org/zap"
)

//go:embed templates/*.gohtml
var templateFS embed.FS

// TemplateSet is the page template set for the contact form.
func TemplateSet() templates.Set {
	return templates.Set{Name: "contact", FS: templateFS, Patterns: []string{"templates/*.gohtml"}}
}

const (
	pageTemplate  = "contact_page"
	panelTemplate = "contact_panel"
	panelTarget   = "contact-panel"
)

// Handler serves the contact page and its endpoints.
type Handler struct {
	holders   HolderSource
	submitter *Submitter
	engine    *templates.Engine
	motion    Motion
	title     string
	logger    *zap.Logger
	decoder   *schema.Decoder
}

// NewHandler wires a Handler. title is the page <title>.
func NewHandler(holders HolderSource, submitter *Submitter, engine *templates.Engine, motion Motion, title string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	dec := schema.NewDecoder()
	dec.IgnoreUnknownKeys(true)
	return &Handler{
		holders:   holders,
		submitter: submitter,
		engine:    engine,
		motion:    motion,
		title:     title,
		logger:    logger,
		decoder:   dec,
	}
}

type pageData struct {
	Title  string
	View   View
	Toasts []models.Toast
}

func (h *Handler) holder(r *http.Request) Holder {
	return h.holders.Holder(visitor.FromContext(r.Context()))
}

// ServePage renders the form with the visitor's current state.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	data, err := h.page(r, h.holder(r), nil)
	if err != nil {
		h.serverError(w, "load form state", err)
		return
	}
	h.engine.RenderAuto(w, r, http.StatusOK, pageTemplate, map[string]string{panelTarget: panelTemplate}, data)
}

// ServeField applies one edit: form fields "field" (input name) and "value".
func (h *Handler) ServeField(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", "could not parse form body")
		return
	}
	err := ApplyChange(r.Context(), h.holder(r), r.PostForm.Get("field"), r.PostForm.Get("value"))
	switch {
	case errors.Is(err, models.ErrUnknownField):
		httputil.JSONError(w, http.StatusBadRequest, "unknown_field", err.Error())
	case err != nil:
		h.serverError(w, "apply field change", err)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

// ServeSubmit handles the urlencoded form post. Browsers without
// JavaScript get the full page back; htmx gets the panel.
func (h *Handler) ServeSubmit(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", "could not parse form body")
		return
	}
	var in models.FormRecord
	if err := h.decoder.Decode(&in, r.PostForm); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	holder := h.holder(r)
	toasts, _, err := h.submit(r, holder, in)
	if err != nil {
		h.serverError(w, "submit", err)
		return
	}
	data, err := h.page(r, holder, toasts)
	if err != nil {
		h.serverError(w, "load form state", err)
		return
	}
	h.engine.RenderAuto(w, r, http.StatusOK, pageTemplate, map[string]string{panelTarget: panelTemplate}, data)
}

// APIResponse is the body of POST /api/contact.
type APIResponse struct {
	Outcome      Outcome           `json:"outcome"`
	SubmissionID string            `json:"submission_id,omitempty"`
	Toasts       []models.Toast    `json:"toasts"`
	Form         models.FormRecord `json:"form"`
	InFlight     bool              `json:"in_flight"`
	SubmitLabel  string            `json:"submit_label"`
}

var apiStatus = map[Outcome]int{
	OutcomeSent:     http.StatusOK,
	OutcomeRejected: http.StatusUnprocessableEntity,
	OutcomeBusy:     http.StatusConflict,
	OutcomeFailed:   http.StatusBadGateway,
}

// ServeAPI is the JSON form of ServeSubmit.
func (h *Handler) ServeAPI(w http.ResponseWriter, r *http.Request) {
	var in models.FormRecord
	if err := httputil.BindJSON(r, &in); err != nil {
		httputil.JSONError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	holder := h.holder(r)
	toasts, res, err := h.submit(r, holder, in)
	if err != nil {
		h.serverError(w, "submit", err)
		return
	}
	form, err := holder.Form(r.Context())
	if err != nil {
		h.serverError(w, "load form state", err)
		return
	}
	busy, err := holder.InFlight(r.Context())
	if err != nil {
		h.serverError(w, "load form state", err)
		return
	}

	view := Render(form, busy, h.motion)
	httputil.WriteJSON(w, apiStatus[res.Outcome], APIResponse{
		Outcome:      res.Outcome,
		SubmissionID: res.SubmissionID,
		Toasts:       toasts,
		Form:         form,
		InFlight:     busy,
		SubmitLabel:  view.SubmitLabel,
	})
}

func (h *Handler) submit(r *http.Request, holder Holder, in models.FormRecord) (Toasts, Result, error) {
	toasts := Toasts{}
	res, err := h.submitter.SubmitForm(r.Context(), holder, in, &toasts)
	return toasts, res, err
}

func (h *Handler) page(r *http.Request, holder Holder, toasts Toasts) (pageData, error) {
	form, err := holder.Form(r.Context())
	if err != nil {
		return pageData{}, err
	}
	busy, err := holder.InFlight(r.Context())
	if err != nil {
		return pageData{}, err
	}
	return pageData{Title: h.title, View: Render(form, busy, h.motion), Toasts: toasts}, nil
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	h.logger.Error("contact handler failed", zap.String("op", op), zap.Error(err))
	httputil.JSONError(w, http.StatusInternalServerError, "internal_error", "something went wrong")
}
