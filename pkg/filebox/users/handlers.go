package users

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/filebox/pkg/filebox/apierr"
)

// Handler handles user-related requests
type Handler struct {
	users *Service
}

// NewHandler creates a new users handler
func NewHandler(users *Service) *Handler {
	return &Handler{users: users}
}

// GetProfile returns the public profile of a user
// @Summary Get a user's profile
// @Description Get the display name and image of a user, e.g. the uploader of a file
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} Profile
// @Failure 400 {object} map[string]string "Invalid user ID"
// @Router /users/{id}/profile [get]
func (h *Handler) GetProfile(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID"})
		return
	}

	profile, err := h.users.Profile(c.Request.Context(), uint(userID))
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

// RegisterRoutes registers user routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/users/:id/profile", h.GetProfile)
}
