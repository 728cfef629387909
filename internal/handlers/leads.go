package handlers

import (
	"errors"
	"net/http"
	"strings"

	"lead-crm/internal/cache"
	"lead-crm/internal/middleware"
	"lead-crm/internal/models"

	"github.com/google/uuid"
)

type LeadsHandler struct {
	*Deps
}

func NewLeadsHandler(d *Deps) *LeadsHandler {
	return &LeadsHandler{Deps: d}
}

// leadForm holds the raw form values so a rejected submit keeps what was typed.
type leadForm struct {
	ID          string
	Name        string
	Phone       string
	Email       string
	CourseID    string
	OriginID    string
	Status      string
	Stage       string
	Description string
}

func readLeadForm(r *http.Request) leadForm {
	return leadForm{
		Name:        strings.TrimSpace(r.FormValue("name")),
		Phone:       strings.TrimSpace(r.FormValue("phone")),
		Email:       strings.TrimSpace(r.FormValue("email")),
		CourseID:    r.FormValue("course_id"),
		OriginID:    r.FormValue("origin_id"),
		Status:      r.FormValue("status"),
		Stage:       r.FormValue("stage"),
		Description: strings.TrimSpace(r.FormValue("description")),
	}
}

func formFromLead(l *models.Lead) leadForm {
	f := leadForm{
		ID:     l.ID.String(),
		Name:   l.Name,
		Phone:  l.Phone.String,
		Email:  l.Email.String,
		Status: l.Status,
		Stage:  l.Stage,
	}
	if l.CourseID.Valid {
		f.CourseID = l.CourseID.UUID.String()
	}
	if l.OriginID.Valid {
		f.OriginID = l.OriginID.UUID.String()
	}
	return f
}

func readLeadFilter(r *http.Request) models.LeadFilter {
	q := r.URL.Query()
	return models.LeadFilter{
		Search:   strings.TrimSpace(q.Get("search")),
		Status:   q.Get("status"),
		CourseID: q.Get("course_id"),
	}
}

// List renders the leads panel with its search, status and course filters.
func (h *LeadsHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := readLeadFilter(r)
	h.Config.Debugf("leads list: %+v", filter)

	cat, err := h.catalog(r.Context())
	if err != nil {
		h.serverError(w, "failed to load catalog", err)
		return
	}

	leads, err := h.Store.ListLeads(r.Context(), filter)
	if err != nil {
		if fieldErrors(err) == nil {
			h.serverError(w, "failed to load leads", err)
			return
		}
		filter.CourseID = ""
		if leads, err = h.Store.ListLeads(r.Context(), filter); err != nil {
			h.serverError(w, "failed to load leads", err)
			return
		}
	}

	h.render(w, r, http.StatusOK, "leads_list.html", map[string]interface{}{
		"Title":    "Leads - CRM",
		"Leads":    leads,
		"Filter":   filter,
		"Courses":  cat.Courses,
		"Statuses": models.Statuses,
	})
}

func (h *LeadsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, form leadForm, errs map[string]string) {
	cat, err := h.catalog(r.Context())
	if err != nil {
		h.serverError(w, "failed to load catalog", err)
		return
	}
	title := "Novo Lead - CRM"
	if form.ID != "" {
		title = "Editar Lead - CRM"
	}
	h.render(w, r, status, "lead_form.html", map[string]interface{}{
		"Title":    title,
		"Form":     form,
		"Errors":   errs,
		"Courses":  cat.Courses,
		"Origins":  cat.Origins,
		"Statuses": models.Statuses,
		"Stages":   cat.Stages,
	})
}

func (h *LeadsHandler) NewForm(w http.ResponseWriter, r *http.Request) {
	h.renderForm(w, r, http.StatusOK, leadForm{Status: models.StatusWarm, Stage: models.StageContact}, nil)
}

// Create inserts the lead and its first interaction in one call.
func (h *LeadsHandler) Create(w http.ResponseWriter, r *http.Request) {
	form := readLeadForm(r)
	n := models.NewLead{
		Name:        form.Name,
		Phone:       form.Phone,
		Email:       form.Email,
		CourseID:    formUUID(r, "course_id"),
		OriginID:    formUUID(r, "origin_id"),
		Status:      form.Status,
		Stage:       form.Stage,
		Description: form.Description,
	}
	if id, ok := middleware.GetIdentity(r); ok {
		n.OwnerID = uuid.NullUUID{UUID: id.UserID, Valid: true}
	}

	id, err := h.Store.CreateLeadWithInteraction(r.Context(), n)
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			h.renderForm(w, r, http.StatusUnprocessableEntity, form, errs)
			return
		}
		h.failure(w, r, "Erro ao criar lead", err)
		http.Redirect(w, r, "/leads/new", http.StatusSeeOther)
		return
	}

	h.invalidate(r.Context(), cache.NamespaceDashboard, cache.NamespaceConversions)
	h.success(w, r, "Lead criado", n.Name+" foi adicionado.")
	http.Redirect(w, r, "/leads/"+id.String(), http.StatusSeeOther)
}

// Detail shows the lead, its owner and the interaction timeline.
func (h *LeadsHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	detail, err := h.Store.GetLeadDetail(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, "failed to load lead", err)
		return
	}

	types := make([]string, 0, len(models.InteractionTypes))
	for _, t := range models.InteractionTypes {
		if t != "cadastro" {
			types = append(types, t)
		}
	}

	h.render(w, r, http.StatusOK, "lead_detail.html", map[string]interface{}{
		"Title":            detail.Lead.Name + " - CRM",
		"Detail":           detail,
		"InteractionTypes": types,
	})
}

func (h *LeadsHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	lead, err := h.Store.GetLead(r.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		http.NotFound(w, r)
		return
	}
	if err != nil {
		h.serverError(w, "failed to load lead", err)
		return
	}
	h.renderForm(w, r, http.StatusOK, formFromLead(lead), nil)
}

func (h *LeadsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	form := readLeadForm(r)
	form.ID = id.String()

	err = h.Store.UpdateLead(r.Context(), id, models.LeadUpdate{
		Name:     form.Name,
		Phone:    form.Phone,
		Email:    form.Email,
		CourseID: formUUID(r, "course_id"),
		OriginID: formUUID(r, "origin_id"),
		Status:   form.Status,
		Stage:    form.Stage,
	})
	if err != nil {
		if errs := fieldErrors(err); errs != nil {
			h.renderForm(w, r, http.StatusUnprocessableEntity, form, errs)
			return
		}
		h.failure(w, r, "Erro ao atualizar lead", err)
		http.Redirect(w, r, "/leads/"+id.String()+"/edit", http.StatusSeeOther)
		return
	}

	h.invalidate(r.Context(), cache.NamespaceDashboard, cache.NamespaceConversions)
	h.success(w, r, "Lead atualizado", "")
	http.Redirect(w, r, "/leads/"+id.String(), http.StatusSeeOther)
}

func (h *LeadsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	if err := h.Store.DeleteLead(r.Context(), id); err != nil {
		h.failure(w, r, "Erro ao excluir lead", err)
		http.Redirect(w, r, "/leads/"+id.String(), http.StatusSeeOther)
		return
	}
	h.invalidate(r.Context(), cache.NamespaceDashboard, cache.NamespaceConversions)
	h.success(w, r, "Lead excluído", "")
	http.Redirect(w, r, "/leads", http.StatusSeeOther)
}

// AddInteraction records a contact from the detail page.
func (h *LeadsHandler) AddInteraction(w http.ResponseWriter, r *http.Request) {
	leadID, err := urlID(r)
	if err != nil {
		http.NotFound(w, r)
		return
	}

	n := models.NewInteraction{
		LeadID:      leadID,
		Type:        r.FormValue("type"),
		Description: r.FormValue("description"),
	}
	if id, ok := middleware.GetIdentity(r); ok {
		n.UserID = uuid.NullUUID{UUID: id.UserID, Valid: true}
	}

	if _, err := h.Store.AddInteraction(r.Context(), n); err != nil {
		h.failure(w, r, "Erro ao registrar interação", err)
	} else {
		h.invalidate(r.Context(), cache.NamespaceDashboard)
		h.success(w, r, "Interação registrada", models.InteractionDisplayName(n.Type))
	}
	http.Redirect(w, r, "/leads/"+leadID.String(), http.StatusSeeOther)
}

// Export downloads the filtered leads as an .xlsx spreadsheet.
func (h *LeadsHandler) Export(w http.ResponseWriter, r *http.Request) {
	leads, err := h.Store.ListLeads(r.Context(), readLeadFilter(r))
	if err != nil {
		if fieldErrors(err) != nil {
			http.Error(w, "Filtro inválido", http.StatusBadRequest)
			return
		}
		h.serverError(w, "failed to export leads", err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="leads-`+h.now().In(h.location()).Format("2006-01-02")+`.xlsx"`)
	if err := writeLeadsXLSX(w, leads, h.location()); err != nil {
		h.Logger.Error("failed to write spreadsheet", "error", err)
	}
}
