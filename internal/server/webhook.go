package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/finwiselabs/finwise/internal/apperr"
	webhookdomain "github.com/finwiselabs/finwise/internal/webhook/domain"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// IngestWebhook captures one provider delivery. The response is always 200:
// acknowledging the delivery is decoupled from processing it, so a handler
// failure never triggers a provider redelivery storm. Failures stay on the
// stored WebhookEvent for manual reprocessing.
func (s *Server) IngestWebhook(c *gin.Context) {
	raw, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil || len(raw) == 0 {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	event, procErr := s.webhookSvc.Ingest(c.Request.Context(), raw)
	if procErr != nil {
		s.log.Warn("webhook stored as failed",
			zap.String("event_type", eventType(event)),
			zap.Error(procErr))
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (s *Server) ListWebhookEvents(c *gin.Context) {
	status := webhookdomain.WebhookStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	items, err := s.webhookSvc.List(c.Request.Context(), status, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	respondData(c, items)
}

func (s *Server) ReprocessWebhookEvent(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook event id"})
		return
	}

	event, procErr := s.webhookSvc.Reprocess(c.Request.Context(), id)
	if procErr != nil {
		if errors.Is(procErr, webhookdomain.ErrWebhookEventNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": procErr.Error()})
			return
		}
		// The replay itself failed; the stored event keeps the error for
		// the operator.
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": procErr.Error(),
			"data":  event,
		})
		return
	}
	respondData(c, event)
}

func (s *Server) ListSubscriptionEvents(c *gin.Context) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid subscription id"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	items, listErr := s.auditSvc.ListBySubscription(c.Request.Context(), id, limit)
	if listErr != nil {
		if errors.Is(listErr, apperr.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": listErr.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": listErr.Error()})
		return
	}
	respondData(c, items)
}

func respondData(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{"data": data})
}

func eventType(event *webhookdomain.WebhookEvent) string {
	if event == nil {
		return "unknown"
	}
	return event.EventType
}
