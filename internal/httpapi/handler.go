// Package httpapi exposes the resolver over a small JSON HTTP surface.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/okozlov/identityd/internal/common"
	"github.com/okozlov/identityd/internal/logging"
	"github.com/okozlov/identityd/internal/models"
	"github.com/okozlov/identityd/internal/repositories/users"
)

// UserResolver is the slice of the resolver the HTTP layer consumes.
type UserResolver interface {
	ResolveByUID(ctx context.Context, uid string) (*models.User, error)
	ResolveByEntityID(ctx context.Context, entityID int64) (*models.User, error)
	ListUsers(ctx context.Context, filter users.Filter) ([]*models.User, error)
}

type Handler struct {
	resolver UserResolver
	logger   logging.Logger
}

func NewHandler(resolver UserResolver, logger logging.Logger) *Handler {
	return &Handler{
		resolver: resolver,
		logger:   logger.With("module", "httpapi"),
	}
}

// Routes builds the gin engine with all endpoints and middleware attached.
func (h *Handler) Routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), RequestID(), RequestLogger(h.logger))

	router.GET("/healthz", h.health)

	api := router.Group("/api/v1")
	api.GET("/users", h.listUsers)
	api.GET("/users/by-uid/:uid", h.getUserByUID)
	api.GET("/users/by-id/:id", h.getUserByEntityID)

	return router
}

type userResponse struct {
	EntityID  int64     `json:"entity_id"`
	UID       string    `json:"uid"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Active    bool      `json:"active"`
	Admin     bool      `json:"admin"`
	Realm     string    `json:"realm"`
	CreatedAt time.Time `json:"created_at"`
	// Warning is set when the record is valid but a side effect of its
	// provisioning did not complete, e.g. partial group synchronization.
	Warning string `json:"warning,omitempty"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func toUserResponse(u *models.User) userResponse {
	return userResponse{
		EntityID:  u.EntityID,
		UID:       u.UID,
		Name:      u.Name,
		Email:     u.Email,
		Active:    u.Active,
		Admin:     u.Admin,
		Realm:     string(u.Realm),
		CreatedAt: u.CreatedAt,
	}
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getUserByUID(c *gin.Context) {
	uid := c.Param("uid")

	u, err := h.resolver.ResolveByUID(c.Request.Context(), uid)
	if err != nil && errors.Is(err, common.ErrorGroupSyncPartial) && u != nil {
		// the record is committed and usable; report the degradation
		resp := toUserResponse(u)
		resp.Warning = err.Error()
		c.JSON(http.StatusOK, resp)
		return
	}
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) getUserByEntityID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "id must be an integer"})
		return
	}

	u, err := h.resolver.ResolveByEntityID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) listUsers(c *gin.Context) {
	filter := users.Filter{
		UID:  c.Query("uid"),
		Name: c.Query("name"),
	}
	if v := c.Query("admins_of_active_servers"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse{Error: "admins_of_active_servers must be a boolean"})
			return
		}
		filter.AdminsOfActiveServers = b
	}

	list, err := h.resolver.ListUsers(c.Request.Context(), filter)
	if err != nil {
		h.writeError(c, err)
		return
	}

	resp := make([]userResponse, 0, len(list))
	for _, u := range list {
		resp = append(resp, toUserResponse(u))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		c.JSON(http.StatusNotFound, errorResponse{Error: "user not found"})
	case errors.Is(err, common.ErrorAlreadyExists):
		// an insert race; the record exists now, the client should retry
		c.Header("Retry-After", "0")
		c.JSON(http.StatusConflict, errorResponse{Error: "concurrent provisioning, retry the request"})
	case errors.Is(err, common.ErrorDirectoryUnavailable):
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: "directory unavailable"})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}
