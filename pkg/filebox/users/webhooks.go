package users

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	standardwebhooks "github.com/standard-webhooks/standard-webhooks/libraries/go"
)

// maxWebhookBody caps the size of an identity event payload
const maxWebhookBody = 1 << 20

// WebhookHandler applies identity provider events to the user store
type WebhookHandler struct {
	users  *Service
	issuer string
	verify *standardwebhooks.Webhook
}

// NewWebhookHandler creates a webhook handler. issuer prefixes the provider's
// user ids to form token identifiers. An empty secret disables signature
// verification.
func NewWebhookHandler(users *Service, issuer, secret string) (*WebhookHandler, error) {
	h := &WebhookHandler{users: users, issuer: issuer}
	if secret != "" {
		wh, err := standardwebhooks.NewWebhook(secret)
		if err != nil {
			return nil, fmt.Errorf("failed to create webhook verifier: %w", err)
		}
		h.verify = wh
	}
	return h, nil
}

// TokenIdentifier returns the token identifier for a provider user id
func (h *WebhookHandler) TokenIdentifier(providerUserID string) string {
	return h.issuer + "|" + providerUserID
}

type identityEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type userData struct {
	ID        string `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	ImageURL  string `json:"image_url"`
}

func (d userData) name() string {
	return strings.TrimSpace(d.FirstName + " " + d.LastName)
}

type membershipData struct {
	Organization struct {
		ID string `json:"id"`
	} `json:"organization"`
	PublicUserData struct {
		UserID string `json:"user_id"`
	} `json:"public_user_data"`
}

// Receive handles a signed identity event
// @Summary Receive identity provider events
// @Description Apply user.created, user.updated and organizationMembership.created events
// @Tags webhooks
// @Accept json
// @Produce json
// @Success 200 {object} map[string]string "Event applied"
// @Failure 400 {object} map[string]string "Invalid payload or signature"
// @Router /webhooks/identity [post]
func (h *WebhookHandler) Receive(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
		return
	}

	if err := h.verifySignature(payload, c.Request.Header); err != nil {
		slog.Warn("identity webhook rejected", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	if err := h.Apply(c.Request.Context(), payload); err != nil {
		slog.Error("identity webhook failed", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "ok"})
}

func (h *WebhookHandler) verifySignature(payload []byte, header http.Header) error {
	if h.verify == nil {
		slog.Warn("identity webhook secret not configured, skipping signature verification")
		return nil
	}

	// Svix-delivered events carry the same values under svix-* names
	headers := http.Header{}
	for _, name := range []string{"id", "timestamp", "signature"} {
		v := header.Get("webhook-" + name)
		if v == "" {
			v = header.Get("svix-" + name)
		}
		headers.Set("webhook-"+name, v)
	}
	return h.verify.Verify(payload, headers)
}

// Apply decodes an identity event and updates the user store accordingly.
// Unknown event types are ignored.
func (h *WebhookHandler) Apply(ctx context.Context, payload []byte) error {
	var event identityEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("failed to parse event: %w", err)
	}

	slog.Info("identity webhook received", "event_type", event.Type)

	switch event.Type {
	case "user.created":
		var data userData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ID == "" {
			return fmt.Errorf("invalid user.created payload")
		}
		// Redelivered, or the user signed in before the event arrived
		_, err := h.users.Upsert(ctx, h.TokenIdentifier(data.ID), data.name(), data.ImageURL)
		return err
	case "user.updated":
		var data userData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ID == "" {
			return fmt.Errorf("invalid user.updated payload")
		}
		return h.users.Update(ctx, h.TokenIdentifier(data.ID), data.name(), data.ImageURL)
	case "organizationMembership.created":
		var data membershipData
		if err := json.Unmarshal(event.Data, &data); err != nil ||
			data.Organization.ID == "" || data.PublicUserData.UserID == "" {
			return fmt.Errorf("invalid organizationMembership.created payload")
		}
		return h.users.AddOrgID(ctx, h.TokenIdentifier(data.PublicUserData.UserID), data.Organization.ID)
	default:
		slog.Warn("identity webhook unknown event type", "event_type", event.Type)
		return nil
	}
}

// RegisterRoutes registers the webhook route
func (h *WebhookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/identity", h.Receive)
}
