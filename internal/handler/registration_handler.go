package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/camp-registry-api/internal/service"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
	"github.com/noah-isme/camp-registry-api/pkg/response"
)

// RegistrationHandler exposes the per-camp registration operations.
type RegistrationHandler struct {
	service *service.RegistrationService
}

// NewRegistrationHandler creates a new handler.
func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

// List godoc
// @Summary List registrations
// @Description Sync the camp's feed and return the classified registration history
// @Tags Registrations
// @Produce json
// @Param campID path string true "Camp ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /camps/{campID}/registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	set, err := h.service.List(c.Request.Context(), c.Param("campID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Classified(c, http.StatusOK, set, set.Classification)
}

// Add godoc
// @Summary Add registration
// @Description Append a locally created registration with the next id
// @Tags Registrations
// @Accept json
// @Produce json
// @Param campID path string true "Camp ID"
// @Param payload body service.AddRegistrationRequest true "Registration payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID}/registrations [post]
func (h *RegistrationHandler) Add(c *gin.Context) {
	var req service.AddRegistrationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid registration payload"))
		return
	}

	set, err := h.service.Add(c.Request.Context(), c.Param("campID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Classified(c, http.StatusCreated, set, set.Classification)
}

// Modify godoc
// @Summary Modify registrations
// @Description Merge columns into one registration or a batch; the batch is all-or-nothing
// @Tags Registrations
// @Accept json
// @Produce json
// @Param campID path string true "Camp ID"
// @Param payload body []service.ModifyRegistrationRequest true "Updates"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID}/registrations [put]
func (h *RegistrationHandler) Modify(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable request body"))
		return
	}

	// The payload may be one update object or an array of them.
	var updates []service.ModifyRegistrationRequest
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &updates)
	} else {
		var single service.ModifyRegistrationRequest
		if err = json.Unmarshal(trimmed, &single); err == nil {
			updates = []service.ModifyRegistrationRequest{single}
		}
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid update payload"))
		return
	}

	set, err := h.service.Modify(c.Request.Context(), c.Param("campID"), updates)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Classified(c, http.StatusOK, set, set.Classification)
}

// Delete godoc
// @Summary Delete registration
// @Description Remove one registration and renumber the remaining ids
// @Tags Registrations
// @Produce json
// @Param campID path string true "Camp ID"
// @Param id path int true "Registration ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID}/registrations/{id} [delete]
func (h *RegistrationHandler) Delete(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id < 1 {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "registration id must be a positive integer"))
		return
	}

	set, err := h.service.Delete(c.Request.Context(), c.Param("campID"), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Classified(c, http.StatusOK, set, set.Classification)
}

// UpdateAcceptance godoc
// @Summary Update acceptance status
// @Description Set the workflow state for a set of registrations
// @Tags Registrations
// @Accept json
// @Produce json
// @Param campID path string true "Camp ID"
// @Param payload body service.AcceptanceRequest true "Acceptance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID}/registrations/acceptance [post]
func (h *RegistrationHandler) UpdateAcceptance(c *gin.Context) {
	var req service.AcceptanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid acceptance payload"))
		return
	}

	set, err := h.service.UpdateAcceptance(c.Request.Context(), c.Param("campID"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Classified(c, http.StatusOK, set, set.Classification)
}

// Classification godoc
// @Summary Get classification counts
// @Description Return the camp's current classification summary without syncing the feed
// @Tags Registrations
// @Produce json
// @Param campID path string true "Camp ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID}/registrations/classification [get]
func (h *RegistrationHandler) Classification(c *gin.Context) {
	counts, err := h.service.Classification(c.Request.Context(), c.Param("campID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, counts, nil)
}
