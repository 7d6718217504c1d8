// Package oidc signs users in through an OpenID Connect provider and hands
// out session tokens.
package oidc

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/gin-gonic/gin"
	"github.com/mikepea/filebox/pkg/filebox/auth"
	"github.com/mikepea/filebox/pkg/filebox/users"
	"golang.org/x/oauth2"
)

const stateCookie = "filebox_oidc_state"

// Config describes the OIDC provider
type Config struct {
	Issuer       string
	ClientID     string
	ClientSecret string
	BaseURL      string
	Scopes       []string
}

// Handler handles OIDC-related requests
type Handler struct {
	users    *users.Service
	baseURL  string
	config   oauth2.Config
	verifier *oidc.IDTokenVerifier
}

// StateData is carried through the provider round trip
type StateData struct {
	ReturnURL string `json:"return_url"`
	Nonce     string `json:"nonce"`
}

// NewHandler discovers the provider and creates a new OIDC handler
func NewHandler(ctx context.Context, users *users.Service, cfg Config) (*Handler, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("failed to discover OIDC provider: %w", err)
	}

	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{oidc.ScopeOpenID, "profile", "email"}
	}

	config := oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     provider.Endpoint(),
		RedirectURL:  strings.TrimSuffix(cfg.BaseURL, "/") + "/api/oidc/callback",
		Scopes:       scopes,
	}

	verifier := provider.Verifier(&oidc.Config{ClientID: cfg.ClientID})
	return newHandler(users, cfg.BaseURL, config, verifier), nil
}

func newHandler(users *users.Service, baseURL string, config oauth2.Config, verifier *oidc.IDTokenVerifier) *Handler {
	return &Handler{
		users:    users,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		config:   config,
		verifier: verifier,
	}
}

// LoginResponse is returned by the callback when no return URL was given
type LoginResponse struct {
	Token string            `json:"token"`
	User  auth.UserResponse `json:"user"`
}

// Login redirects to the provider's authorization page
// @Summary Start OIDC sign-in
// @Description Redirect to the identity provider. After sign-in the callback returns a session token, or redirects to return_url with ?token=.
// @Tags oidc
// @Param return_url query string false "Path or URL on this site to return to"
// @Success 302 "Redirect to the identity provider"
// @Failure 400 {object} map[string]string "Invalid return URL"
// @Router /oidc/login [get]
func (h *Handler) Login(c *gin.Context) {
	returnURL := c.Query("return_url")
	if returnURL != "" && !h.allowedReturnURL(returnURL) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid return URL"})
		return
	}

	nonce := generateRandomString(32)
	state := encodeState(StateData{ReturnURL: returnURL, Nonce: nonce})

	secure := strings.HasPrefix(h.baseURL, "https://")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(stateCookie, state, int((10 * time.Minute).Seconds()), "/api/oidc", "", secure, true)

	c.Redirect(http.StatusFound, h.config.AuthCodeURL(state, oidc.Nonce(nonce)))
}

// Callback handles the OIDC callback
// @Summary Complete OIDC sign-in
// @Description Exchange the authorization code, provision the user and issue a session token
// @Tags oidc
// @Produce json
// @Param code query string true "Authorization code"
// @Param state query string true "State from the login redirect"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} map[string]string "Invalid state or failed sign-in"
// @Router /oidc/callback [get]
func (h *Handler) Callback(c *gin.Context) {
	stateParam := c.Query("state")
	cookie, err := c.Cookie(stateCookie)
	if err != nil || stateParam == "" || cookie != stateParam {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
		return
	}
	c.SetCookie(stateCookie, "", -1, "/api/oidc", "", false, true)

	stateData, err := decodeState(stateParam)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid state"})
		return
	}

	code := c.Query("code")
	if code == "" {
		errorDesc := c.Query("error_description")
		if errorDesc == "" {
			errorDesc = c.Query("error")
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Authentication failed: " + errorDesc})
		return
	}

	ctx := c.Request.Context()
	oauth2Token, err := h.config.Exchange(ctx, code)
	if err != nil {
		slog.Error("oidc token exchange failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to exchange token"})
		return
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No ID token in response"})
		return
	}

	idToken, err := h.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		slog.Warn("oidc id token rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to verify ID token"})
		return
	}

	if idToken.Nonce != stateData.Nonce {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid nonce"})
		return
	}

	var claims struct {
		Email      string `json:"email"`
		Name       string `json:"name"`
		GivenName  string `json:"given_name"`
		FamilyName string `json:"family_name"`
		Picture    string `json:"picture"`
	}
	if err := idToken.Claims(&claims); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse claims"})
		return
	}

	name := claims.Name
	if name == "" {
		name = strings.TrimSpace(claims.GivenName + " " + claims.FamilyName)
	}
	if name == "" && claims.Email != "" {
		name = strings.Split(claims.Email, "@")[0]
	}

	tokenIdentifier := idToken.Issuer + "|" + idToken.Subject
	user, err := h.users.Upsert(ctx, tokenIdentifier, name, claims.Picture)
	if err != nil {
		slog.Error("oidc user provisioning failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to process user"})
		return
	}

	token, err := auth.GenerateToken(user.TokenIdentifier, user.Name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	slog.Info("user signed in", "user_id", user.ID)

	if stateData.ReturnURL != "" {
		c.Redirect(http.StatusFound, stateData.ReturnURL+"?token="+token)
		return
	}

	c.JSON(http.StatusOK, LoginResponse{Token: token, User: auth.ToUserResponse(user)})
}

// allowedReturnURL accepts local paths and URLs under the base URL
func (h *Handler) allowedReturnURL(u string) bool {
	if strings.ContainsAny(u, "?#\\") {
		return false
	}
	if strings.HasPrefix(u, "/") && !strings.HasPrefix(u, "//") {
		return true
	}
	return h.baseURL != "" && (u == h.baseURL || strings.HasPrefix(u, h.baseURL+"/"))
}

func encodeState(s StateData) string {
	stateJSON, _ := json.Marshal(s)
	return base64.URLEncoding.EncodeToString(stateJSON)
}

func decodeState(state string) (StateData, error) {
	var s StateData
	stateJSON, err := base64.URLEncoding.DecodeString(state)
	if err != nil {
		return s, err
	}
	if err := json.Unmarshal(stateJSON, &s); err != nil {
		return s, err
	}
	if s.Nonce == "" {
		return s, errors.New("state without nonce")
	}
	return s, nil
}

// RegisterRoutes registers public OIDC routes
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/login", h.Login)
	rg.GET("/callback", h.Callback)
}

func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.URLEncoding.EncodeToString(b)[:length]
}
