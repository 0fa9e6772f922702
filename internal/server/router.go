package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/draftroomhq/draftroom/backend/internal/comments"
	"github.com/draftroomhq/draftroom/backend/internal/documents"
	"github.com/draftroomhq/draftroom/backend/internal/notify"
	"github.com/draftroomhq/draftroom/backend/internal/publishing"
	"github.com/draftroomhq/draftroom/backend/internal/users"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ActorHeader carries the acting user's id, set by the trusted host
// environment. Authentication itself is the host's responsibility.
const ActorHeader = "X-Draftroom-User"

const actorContextKey = "draftroom_actor_id"

var (
	errMissingPublishingService = errors.New("publishing service dependency required")
	errMissingUserService       = errors.New("user service dependency required")
	errMissingDocumentStore     = errors.New("document store dependency required")
	errMissingOptOutValidator   = errors.New("opt-out token validator dependency required")
)

// OptOutTokenValidator checks unsubscribe-link tokens.
type OptOutTokenValidator interface {
	ValidateOptOutToken(token string) (userID, category string, err error)
}

// Dependencies wires the HTTP layer to the services behind it.
type Dependencies struct {
	PublishingService *publishing.Service
	UserService       *users.Service
	DocumentStore     *documents.Store
	OptOutTokens      OptOutTokenValidator
	Logger            *zap.Logger
}

// NewHTTPHandler builds the API router.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.PublishingService == nil {
		return nil, errMissingPublishingService
	}
	if deps.UserService == nil {
		return nil, errMissingUserService
	}
	if deps.DocumentStore == nil {
		return nil, errMissingDocumentStore
	}
	if deps.OptOutTokens == nil {
		return nil, errMissingOptOutValidator
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type", ActorHeader},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		publishing: deps.PublishingService,
		users:      deps.UserService,
		documents:  deps.DocumentStore,
		optOut:     deps.OptOutTokens,
		logger:     logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/unsubscribe", handler.handleUnsubscribe)

	acting := router.Group("/")
	acting.Use(handler.requireActor)
	acting.POST("/documents/:id/save", handler.handleDocumentSave)
	acting.GET("/documents/:id/comments", handler.handleDocumentComments)
	acting.PUT("/users/:id", handler.handleUserProfileSave)
	acting.GET("/users/:id/settings", handler.handleUserSettings)
	acting.PUT("/users/:id/settings", handler.handleUserSettingsSave)

	return router, nil
}

type httpHandler struct {
	publishing *publishing.Service
	users      *users.Service
	documents  *documents.Store
	optOut     OptOutTokenValidator
	logger     *zap.Logger
}

// requireActor extracts the host-asserted actor id. Requests without one are
// rejected: every mutating operation needs an attributable user.
func (h *httpHandler) requireActor(c *gin.Context) {
	actorID := strings.TrimSpace(c.GetHeader(ActorHeader))
	if actorID == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_actor"})
		return
	}
	c.Set(actorContextKey, actorID)
	c.Next()
}

func (h *httpHandler) actorID(c *gin.Context) string {
	value, _ := c.Get(actorContextKey)
	actorID, _ := value.(string)
	return actorID
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type savePayload struct {
	AuthorID string              `json:"authorId"`
	Title    string              `json:"title"`
	Comments comments.Collection `json:"comments"`
}

type saveResponsePayload struct {
	NewComments       int `json:"newComments"`
	NotificationsSent int `json:"notificationsSent"`
}

func (h *httpHandler) handleDocumentSave(c *gin.Context) {
	var payload savePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	result, err := h.publishing.HandleSave(c.Request.Context(), publishing.SaveRequest{
		DocumentID: c.Param("id"),
		AuthorID:   payload.AuthorID,
		Title:      payload.Title,
		ActorID:    h.actorID(c),
		Comments:   payload.Comments,
	})
	if err != nil {
		var serviceErr *publishing.ServiceError
		if errors.As(err, &serviceErr) && strings.Contains(serviceErr.Code(), "invalid_collection") {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_comments"})
			return
		}
		h.logger.Error("document save failed", zap.String("document_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}

	c.JSON(http.StatusOK, saveResponsePayload{
		NewComments:       result.NewComments,
		NotificationsSent: result.NotificationsSent,
	})
}

func (h *httpHandler) handleDocumentComments(c *gin.Context) {
	collection, err := h.documents.CurrentComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("comment snapshot read failed", zap.String("document_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read_failed"})
		return
	}
	if collection == nil {
		collection = comments.Collection{}
	}
	c.JSON(http.StatusOK, gin.H{"comments": collection})
}

type profilePayload struct {
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
}

func (h *httpHandler) handleUserProfileSave(c *gin.Context) {
	var payload profilePayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	err := h.users.SaveProfile(c.Request.Context(), users.User{
		UserID:      c.Param("id"),
		Email:       payload.Email,
		DisplayName: payload.DisplayName,
		FirstName:   payload.FirstName,
		LastName:    payload.LastName,
	})
	if errors.Is(err, users.ErrInvalidProfile) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_profile"})
		return
	}
	if err != nil {
		h.logger.Error("profile save failed", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleUserSettings returns the effective toggle per category: explicit
// choices merged over the enabled default.
func (h *httpHandler) handleUserSettings(c *gin.Context) {
	stored, err := h.users.Settings(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("settings read failed", zap.String("user_id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read_failed"})
		return
	}

	effective := make(map[string]bool, len(notify.Categories()))
	for _, category := range notify.Categories() {
		enabled, ok := stored[category.String()]
		if !ok {
			enabled = true
		}
		effective[category.String()] = enabled
	}
	c.JSON(http.StatusOK, gin.H{"settings": effective})
}

func (h *httpHandler) handleUserSettingsSave(c *gin.Context) {
	var payload map[string]bool
	if err := c.ShouldBindJSON(&payload); err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	for category := range payload {
		if !notify.ValidCategory(category) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_category", "category": category})
			return
		}
	}

	for category, enabled := range payload {
		if err := h.users.SetCategory(c.Request.Context(), c.Param("id"), category, enabled); err != nil {
			h.logger.Error("settings save failed", zap.String("user_id", c.Param("id")), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleUnsubscribe disables one notification category via the signed token
// from an email footer. No actor header: the token is the authorization.
func (h *httpHandler) handleUnsubscribe(c *gin.Context) {
	token := strings.TrimSpace(c.Query("token"))
	if token == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing_token"})
		return
	}

	userID, category, err := h.optOut.ValidateOptOutToken(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_token"})
		return
	}
	if !notify.ValidCategory(category) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_category"})
		return
	}

	if err := h.users.SetCategory(c.Request.Context(), userID, category, false); err != nil {
		h.logger.Error("unsubscribe failed", zap.String("user_id", userID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unsubscribe_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "unsubscribed", "category": category})
}
