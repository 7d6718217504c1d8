package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mikepea/filebox/pkg/filebox/apierr"
	"github.com/mikepea/filebox/pkg/filebox/models"
	"github.com/mikepea/filebox/pkg/filebox/users"
)

// Handler handles session-related requests
type Handler struct {
	users *users.Service
}

// NewHandler creates a new auth handler
func NewHandler(users *users.Service) *Handler {
	return &Handler{users: users}
}

// UserResponse represents the signed-in user in API responses
type UserResponse struct {
	ID              uint     `json:"id"`
	TokenIdentifier string   `json:"token_identifier"`
	Name            string   `json:"name"`
	Image           string   `json:"image,omitempty"`
	OrgIDs          []string `json:"org_ids"`
}

// ToUserResponse converts a user into its API representation
func ToUserResponse(user *models.User) UserResponse {
	orgIDs := []string(user.OrgIDs)
	if orgIDs == nil {
		orgIDs = []string{}
	}
	return UserResponse{
		ID:              user.ID,
		TokenIdentifier: user.TokenIdentifier,
		Name:            user.Name,
		Image:           user.Image,
		OrgIDs:          orgIDs,
	}
}

// Me returns the current user
// @Summary Get current user
// @Description Get the authenticated user's profile and organizations
// @Tags auth
// @Produce json
// @Success 200 {object} UserResponse
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 404 {object} map[string]string "User not provisioned"
// @Security BearerAuth
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	identity := GetIdentity(c)

	user, err := h.users.Resolve(c.Request.Context(), identity.TokenIdentifier)
	if err != nil {
		apierr.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, ToUserResponse(user))
}

// Logout ends the session
// @Summary Logout
// @Description Logout the current user (client-side token invalidation)
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logged out successfully"
// @Router /auth/logout [post]
func (h *Handler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// RegisterRoutes registers auth routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", RequireAuth(), h.Me)
	rg.POST("/logout", h.Logout)
}
