package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/camp-registry-api/internal/models"
	"github.com/noah-isme/camp-registry-api/internal/service"
	appErrors "github.com/noah-isme/camp-registry-api/pkg/errors"
	"github.com/noah-isme/camp-registry-api/pkg/response"
)

// CampHandler exposes camp provisioning endpoints.
type CampHandler struct {
	service *service.CampService
}

// NewCampHandler creates a new handler.
func NewCampHandler(svc *service.CampService) *CampHandler {
	return &CampHandler{service: svc}
}

// List godoc
// @Summary List camps
// @Description List provisioned camps with optional search and pagination
// @Tags Camps
// @Produce json
// @Param search query string false "Search by name or slug"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /camps [get]
func (h *CampHandler) List(c *gin.Context) {
	filter := models.CampFilter{
		Search:    c.Query("search"),
		SortBy:    c.Query("sort_by"),
		SortOrder: c.Query("sort_order"),
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}

	camps, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, camps, pagination)
}

// Get godoc
// @Summary Get camp
// @Description Fetch a single camp by id
// @Tags Camps
// @Produce json
// @Param campID path string true "Camp ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID} [get]
func (h *CampHandler) Get(c *gin.Context) {
	camp, err := h.service.Get(c.Request.Context(), c.Param("campID"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, camp, nil)
}

// Create godoc
// @Summary Provision camp
// @Description Provision a camp bound to one sheet feed
// @Tags Camps
// @Accept json
// @Produce json
// @Param payload body service.CreateCampRequest true "Camp payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /camps [post]
func (h *CampHandler) Create(c *gin.Context) {
	var req service.CreateCampRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid camp payload"))
		return
	}

	camp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, camp)
}

// Delete godoc
// @Summary Delete camp
// @Description Remove a camp and its registration history
// @Tags Camps
// @Produce json
// @Param campID path string true "Camp ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /camps/{campID} [delete]
func (h *CampHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("campID")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
