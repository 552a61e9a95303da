// internal/controller/campaign_controller.go
package controller

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	appErrors "github.com/garageware/crm-backend/internal/errors"
	"github.com/garageware/crm-backend/internal/service"
)

type CampaignController struct {
	CampaignService *service.CampaignService
	Renderer        *service.Renderer
}

// companyID reads the tenant from the internal CRM front end header.
func companyID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(r.Header.Get("X-Company-ID"))
	if err != nil || id <= 0 {
		return 0, errors.New("missing or invalid X-Company-ID header")
	}
	return id, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	var notFound *appErrors.ErrCampaignNotFound
	switch {
	case appErrors.IsValidation(err):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"message": err.Error()})
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"message": err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": err.Error()})
	}
}

func (c *CampaignController) CreateCampaign(w http.ResponseWriter, r *http.Request) {
	company, err := companyID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		Subject     string  `json:"subject"`
		Preheader   string  `json:"preheader"`
		TemplateID  int     `json:"template_id"`
		FromAddress string  `json:"from_address"`
		ReplyTo     string  `json:"reply_to"`
		TagIDs      []int64 `json:"tag_ids"`
		ScheduledAt *string `json:"scheduled_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	campaign, contactCount, err := c.CampaignService.CreateCampaign(service.CreateCampaignInput{
		CompanyID:   company,
		Subject:     body.Subject,
		Preheader:   body.Preheader,
		TemplateID:  body.TemplateID,
		FromAddress: body.FromAddress,
		ReplyTo:     body.ReplyTo,
		TagIDs:      body.TagIDs,
		ScheduledAt: body.ScheduledAt,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"campaign":      campaign,
		"contact_count": contactCount,
	})
}

func (c *CampaignController) ListCampaigns(w http.ResponseWriter, r *http.Request) {
	company, err := companyID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	status := r.URL.Query().Get("status")

	campaigns, pagination, err := c.CampaignService.ListCampaigns(company, page, pageSize, status)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"data":       campaigns,
		"pagination": pagination,
	})
}

func (c *CampaignController) GetCampaignDetails(w http.ResponseWriter, r *http.Request) {
	company, err := companyID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	details, err := c.CampaignService.GetCampaignDetailsWithStats(company, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, details)
}

func (c *CampaignController) ListContacts(w http.ResponseWriter, r *http.Request) {
	company, err := companyID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	contacts, err := c.CampaignService.ListContacts(company, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"data": contacts})
}

func (c *CampaignController) SendCampaign(w http.ResponseWriter, r *http.Request) {
	company, err := companyID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	publicID := chi.URLParam(r, "id")
	if err := c.CampaignService.TriggerSend(company, publicID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"campaign_id": publicID,
		"status":      "dispatch queued",
	})
}

func (c *CampaignController) PersonalizedPreview(w http.ResponseWriter, r *http.Request) {
	company, err := companyID(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	var body struct {
		CustomerID int `json:"customer_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}

	rendered, err := c.CampaignService.RenderPreview(company, chi.URLParam(r, "id"), body.CustomerID, c.Renderer)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rendered_message": rendered,
		"customer_id":      body.CustomerID,
	})
}
