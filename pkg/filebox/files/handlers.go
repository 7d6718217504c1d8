package files

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/filebox/pkg/filebox/apierr"
	"github.com/mikepea/filebox/pkg/filebox/auth"
	"github.com/mikepea/filebox/pkg/filebox/models"
)

// Handler handles file-related requests
type Handler struct {
	files *Service
}

// NewHandler creates a new files handler
func NewHandler(files *Service) *Handler {
	return &Handler{files: files}
}

// CreateFileRequest represents the request to record an uploaded file.
// Type may be given directly or derived from ContentType.
type CreateFileRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	FileID      *string `json:"file_id"`
	Type        string  `json:"type" binding:"omitempty,oneof=image pdf csv"`
	ContentType string  `json:"content_type"`
	OrgID       string  `json:"org_id" binding:"required"`
}

// FavoriteResponse reports the favorite state after a toggle
type FavoriteResponse struct {
	FileID    uint `json:"file_id"`
	Favorited bool `json:"favorited"`
}

func parseFileID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid file ID"})
		return 0, false
	}
	return uint(id), true
}

// GenerateUploadURL issues a single-use upload destination
// @Summary Generate an upload URL
// @Description Mint a single-use URL to upload a file's bytes to. Pass the returned storage_id as file_id when creating the file.
// @Tags files
// @Produce json
// @Success 200 {object} storage.Upload
// @Failure 401 {object} map[string]string "Not logged in"
// @Security BearerAuth
// @Router /files/upload-url [post]
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	upload, err := h.files.GenerateUploadURL(c.Request.Context(), auth.GetIdentity(c))
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, upload)
}

// Create records an uploaded file in an organization
// @Summary Create a file
// @Description Record a file uploaded through an upload URL in an organization
// @Tags files
// @Accept json
// @Produce json
// @Param request body CreateFileRequest true "File details"
// @Success 201 {object} models.File
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Not logged in"
// @Failure 403 {object} map[string]string "No access to the organization"
// @Security BearerAuth
// @Router /files [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var fileType *models.FileType
	switch {
	case req.Type != "":
		t := models.FileType(req.Type)
		fileType = &t
	case req.ContentType != "":
		t, ok := models.FileTypeForMIME(req.ContentType)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unsupported content type: " + req.ContentType})
			return
		}
		fileType = &t
	}

	file, err := h.files.Create(c.Request.Context(), auth.GetIdentity(c), CreateInput{
		Name:   req.Name,
		FileID: req.FileID,
		Type:   fileType,
		OrgID:  req.OrgID,
	})
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

// List returns the files of an organization
// @Summary List files
// @Description List the files of an organization with their download URLs. Returns an empty list when not logged in or without access.
// @Tags files
// @Produce json
// @Param org_id query string true "Organization ID"
// @Param query query string false "Case-insensitive name search"
// @Param favorites query bool false "Only the caller's favorites"
// @Param type query string false "File type (image, pdf, csv or all)"
// @Success 200 {array} FileWithURL
// @Failure 400 {object} map[string]string "Invalid filter"
// @Security BearerAuth
// @Router /files [get]
func (h *Handler) List(c *gin.Context) {
	filter := ListFilter{Query: c.Query("query")}

	if v := c.Query("favorites"); v != "" {
		favorites, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid favorites filter"})
			return
		}
		filter.Favorites = favorites
	}

	switch t := c.Query("type"); t {
	case "", "all":
	case string(models.FileTypeImage), string(models.FileTypePDF), string(models.FileTypeCSV):
		filter.Type = models.FileType(t)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid type filter"})
		return
	}

	files, err := h.files.List(c.Request.Context(), auth.GetIdentity(c), c.Query("org_id"), filter)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}

// Delete removes a file
// @Summary Delete a file
// @Description Delete a file, its favorites and its stored blob
// @Tags files
// @Param id path int true "File ID"
// @Success 204 "No Content"
// @Failure 400 {object} map[string]string "Invalid file ID"
// @Failure 401 {object} map[string]string "Not logged in"
// @Failure 403 {object} map[string]string "No access to the organization"
// @Failure 404 {object} map[string]string "File not found"
// @Security BearerAuth
// @Router /files/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseFileID(c)
	if !ok {
		return
	}

	if err := h.files.Delete(c.Request.Context(), auth.GetIdentity(c), id); err != nil {
		apierr.Respond(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ToggleFavorite favorites or unfavorites a file for the caller
// @Summary Toggle a favorite
// @Description Favorite the file, or unfavorite it when it already is one
// @Tags files
// @Produce json
// @Param id path int true "File ID"
// @Success 200 {object} FavoriteResponse
// @Failure 400 {object} map[string]string "Invalid file ID"
// @Failure 401 {object} map[string]string "Not logged in"
// @Failure 403 {object} map[string]string "No access to the organization"
// @Failure 404 {object} map[string]string "File not found"
// @Security BearerAuth
// @Router /files/{id}/favorite [post]
func (h *Handler) ToggleFavorite(c *gin.Context) {
	id, ok := parseFileID(c)
	if !ok {
		return
	}

	favorited, err := h.files.ToggleFavorite(c.Request.Context(), auth.GetIdentity(c), id)
	if err != nil {
		apierr.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, FavoriteResponse{FileID: id, Favorited: favorited})
}

// RegisterRoutes registers file routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/files/upload-url", h.GenerateUploadURL)
	rg.POST("/files", h.Create)
	rg.GET("/files", h.List)
	rg.DELETE("/files/:id", h.Delete)
	rg.POST("/files/:id/favorite", h.ToggleFavorite)
}
