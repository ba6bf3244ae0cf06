// Package api exposes the host method channels over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"mirror/internal/constants"
	"mirror/internal/logger"
	"mirror/pkg/errors"
	"mirror/pkg/metrics"
)

// Permissions answers the permission status queries and opens settings
// screens.
type Permissions interface {
	NotificationAccessEnabled(ctx context.Context) (bool, error)
	AccessibilityAccessEnabled(ctx context.Context) (bool, error)
	OpenNotificationSettings(ctx context.Context) error
	OpenAccessibilitySettings(ctx context.Context) error
}

// MethodResult is the body of a successful method call.
type MethodResult struct {
	Result interface{} `json:"result"`
}

type method func(ctx context.Context, args map[string]interface{}) (interface{}, error)

type Handler struct {
	permissions Permissions
	stream      http.Handler
	methods     map[string]map[string]method
	logger      logger.Logger
}

// NewHandler wires the method table. stream serves the push side of the
// accessibility channel and may be nil when the websocket transport is off.
func NewHandler(permissions Permissions, stream http.Handler, log logger.Logger) *Handler {
	h := &Handler{
		permissions: permissions,
		stream:      stream,
		logger:      log,
	}

	h.methods = map[string]map[string]method{
		constants.ChannelNotifications: {
			constants.MethodCheckNotificationAccess: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
				return h.permissions.NotificationAccessEnabled(ctx)
			},
		},
		constants.ChannelPermissions: {
			constants.MethodOpenNotificationSettings: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
				return true, h.permissions.OpenNotificationSettings(ctx)
			},
			constants.MethodCheckAccessibilityAccess: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
				return h.permissions.AccessibilityAccessEnabled(ctx)
			},
			constants.MethodOpenAccessibilitySettings: func(ctx context.Context, _ map[string]interface{}) (interface{}, error) {
				return true, h.permissions.OpenAccessibilitySettings(ctx)
			},
		},
		constants.ChannelAccessibility: {
			constants.MethodOnWhatsAppMessage: func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
				h.logger.DebugwCtx(ctx, "Host acknowledged message", "from", args["from"])
				return true, nil
			},
		},
	}

	return h
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		channels := v1.Group("/channels")
		{
			channels.GET("/"+constants.ChannelAccessibility+"/stream", h.Stream)
			channels.POST("/:channel/:method", h.Invoke)
		}
	}
}

func (h *Handler) HandleError(c *gin.Context, err error) {
	h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	c.JSON(errors.ToHTTPStatus(err), errors.ToErrorResponse(err))
}

// Invoke godoc
// @Summary      Invoke a method channel call
// @Description  Dispatches a host method call. Unknown channels or methods return NOT_IMPLEMENTED.
// @Tags         channels
// @Accept       json
// @Produce      json
// @Param        channel  path      string  true   "Channel name"  Enums(whatsapp_notifications, permissions, whatsapp_accessibility)
// @Param        method   path      string  true   "Method name"
// @Param        args     body      object  false  "Method arguments"
// @Success      200      {object}  MethodResult
// @Failure      404      {object}  errors.ErrorResponse
// @Failure      503      {object}  errors.ErrorResponse
// @Router       /channels/{channel}/{method} [post]
func (h *Handler) Invoke(c *gin.Context) {
	channel := c.Param("channel")
	name := c.Param("method")

	result, err := h.dispatch(c, channel, name)
	if err != nil {
		metrics.ChannelCallsTotal.WithLabelValues(channel, name, callStatus(err)).Inc()
		h.HandleError(c, err)
		return
	}

	metrics.ChannelCallsTotal.WithLabelValues(channel, name, "ok").Inc()
	c.JSON(http.StatusOK, MethodResult{Result: result})
}

func (h *Handler) dispatch(c *gin.Context, channel, name string) (interface{}, error) {
	call, ok := h.methods[channel][name]
	if !ok {
		return nil, errors.ErrNotImplemented.
			WithDetail("channel", channel).
			WithDetail("method", name)
	}

	var args map[string]interface{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			return nil, errors.ErrValidation.WithDetail("message", "arguments must be a JSON object").WithCause(err)
		}
	}
	return call(c.Request.Context(), args)
}

func callStatus(err error) string {
	if errors.IsNotImplemented(err) {
		return "not_implemented"
	}
	return "error"
}

// Stream godoc
// @Summary      Attach to the accessibility message stream
// @Description  Upgrades to a WebSocket that receives onWhatsAppMessage invocations.
// @Tags         channels
// @Param        session_id  query  string  false  "Session id, generated when absent"
// @Success      101
// @Failure      503  {object}  errors.ErrorResponse
// @Router       /channels/whatsapp_accessibility/stream [get]
func (h *Handler) Stream(c *gin.Context) {
	if h.stream == nil {
		h.HandleError(c, errors.ErrServiceUnavailable.WithDetail("message", "websocket transport is disabled"))
		return
	}
	h.stream.ServeHTTP(c.Writer, c.Request)
}
