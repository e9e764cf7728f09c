// Package api is the HTTP surface for submitting and querying notifications.
// It is a thin request/response mapping over the submission service; delivery
// happens asynchronously in the dispatcher.
package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	apperrors "notification-service/internal/common/errors"
	"notification-service/internal/common/logger"
	"notification-service/internal/common/metrics"
	"notification-service/internal/service"
	"notification-service/internal/store"
)

// Server holds the router and its dependencies.
type Server struct {
	router *gin.Engine
	svc    *service.Service
	store  store.Store
	log    logger.Logger
}

func NewServer(svc *service.Service, st store.Store, log logger.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(CorrelationID())

	s := &Server{
		router: router,
		svc:    svc,
		store:  st,
		log:    log.WithFields(map[string]interface{}{"component": "api"}),
	}
	s.setupRoutes()
	return s
}

// Handler returns the http.Handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK", "service": "notification-service"})
	})
	s.router.GET("/metrics", s.handleMetrics())

	v1 := s.router.Group("/v1/notifications")
	{
		v1.POST("", s.handleSend())
		v1.GET("", s.handleList())
		v1.GET("/:id", s.handleGet())
		v1.GET("/recipient/:recipientId", s.handleGetByRecipient())
	}
}

func (s *Server) handleSend() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input service.SubmitInput
		if err := c.ShouldBindJSON(&input); err != nil {
			writeError(c, apperrors.NewValidationError("request body must be valid JSON"))
			return
		}

		n, err := s.svc.Submit(c.Request.Context(), input)
		if err != nil {
			s.log.WithError(err).Error("failed to queue notification", map[string]interface{}{
				"correlationId": correlationID(c),
			})
			writeError(c, err)
			return
		}

		s.log.Info("notification accepted", map[string]interface{}{
			"correlationId":  correlationID(c),
			"notificationId": n.ID,
			"channel":        n.Channel,
		})
		c.JSON(http.StatusAccepted, n)
	}
}

func (s *Server) handleGet() gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := s.svc.Get(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, n)
	}
}

func (s *Server) handleGetByRecipient() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseLimit(c, 50)
		list, err := s.svc.ListByRecipient(c.Request.Context(), c.Param("recipientId"), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

func (s *Server) handleList() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := parseLimit(c, 100)
		list, err := s.svc.List(c.Request.Context(), limit)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// handleMetrics recomputes the point-in-time gauges from a store scan
// before delegating to the Prometheus handler.
func (s *Server) handleMetrics() gin.HandlerFunc {
	promHandler := promhttp.Handler()
	return func(c *gin.Context) {
		counts, err := s.store.CountByStatus(c.Request.Context())
		if err != nil {
			s.log.WithError(err).Warn("status count scan failed", nil)
		} else {
			metrics.NotificationsTotal.Set(float64(counts.Total()))
			metrics.NotificationsByStatus.WithLabelValues("queued").Set(float64(counts.Queued))
			metrics.NotificationsByStatus.WithLabelValues("sent").Set(float64(counts.Sent))
			metrics.NotificationsByStatus.WithLabelValues("failed").Set(float64(counts.Failed))
		}
		promHandler.ServeHTTP(c.Writer, c.Request)
	}
}

func parseLimit(c *gin.Context, def int) int {
	raw := c.Query("limit")
	if raw == "" {
		return def
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return def
	}
	return limit
}

func writeError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	message := "Internal server error"
	if stdErr, ok := err.(*apperrors.StandardError); ok && status != http.StatusInternalServerError {
		message = stdErr.Message
		if stdErr.Details != "" {
			message = message + ": " + stdErr.Details
		}
	}
	c.JSON(status, gin.H{"error": gin.H{"message": message, "statusCode": status}})
}
