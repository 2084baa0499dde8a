package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/chartermate/charter-ledger/internal/apperrors"
	"github.com/chartermate/charter-ledger/internal/core/domain"
	portssvc "github.com/chartermate/charter-ledger/internal/core/ports/services"
	"github.com/chartermate/charter-ledger/internal/dto"
	"github.com/chartermate/charter-ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// eventHandler handles HTTP requests related to accounting events.
type eventHandler struct {
	eventService portssvc.EventSvcFacade
}

// newEventHandler creates a new eventHandler.
func newEventHandler(eventService portssvc.EventSvcFacade) *eventHandler {
	return &eventHandler{
		eventService: eventService,
	}
}

// createEvent godoc
// @Summary Create and process an accounting event
// @Description Records a business event and immediately generates and posts its journal entries
// @Tags events
// @Accept  json
// @Produce  json
// @Param   event body dto.CreateEventRequest true "Accounting event"
// @Success 201 {object} dto.CreateEventResponse "Created event and processing outcome"
// @Failure 400 {object} map[string]string "Invalid request format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 409 {object} map[string]string "Duplicate source document"
// @Failure 500 {object} map[string]string "Failed to create event"
// @Router /events [post]
func (h *eventHandler) createEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	createReq := dto.CreateEventRequest{}
	if err := c.ShouldBindJSON(&createReq); err != nil {
		logger.Error("Failed to bind JSON for createEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	creatorUserID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("Creator user ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	logger = logger.With(slog.String("creator_user_id", creatorUserID), slog.String("event_type", string(createReq.EventType)))

	event, result, err := h.eventService.CreateAndProcess(c.Request.Context(), createReq, creatorUserID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrDuplicate):
			logger.Warn("Duplicate event creation attempt", slog.String("source_document_id", createReq.SourceDocumentID))
			c.JSON(http.StatusConflict, gin.H{"error": "An event for this source document already exists"})
		case errors.Is(err, apperrors.ErrValidation):
			logger.Warn("Validation error creating event", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to create event in service", slog.String("error", err.Error()))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create event"})
		}
		return
	}

	logger.Info("Event created", slog.String("event_id", event.EventID), slog.Bool("processed", result.Success))
	c.JSON(http.StatusCreated, dto.CreateEventResponse{
		Event:  dto.ToEventResponse(event),
		Result: dto.ToProcessResultResponse(result),
	})
}

// processEvent godoc
// @Summary Process a pending or failed event
// @Description Evaluates the journal rules for the event and posts the resulting entries atomically
// @Tags events
// @Produce  json
// @Param   eventID path string true "Event ID"
// @Success 200 {object} dto.ProcessResultResponse "Processing outcome"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 409 {object} map[string]string "Event is not in a processable state"
// @Failure 500 {object} map[string]string "Failed to process event"
// @Router /events/{eventID}/process [post]
func (h *eventHandler) processEvent(c *gin.Context) {
	h.runTransition(c, "process", h.eventService.ProcessEvent)
}

// retryEvent godoc
// @Summary Retry a failed event
// @Description Re-runs rule evaluation and posting for a FAILED event, incrementing its retry count
// @Tags events
// @Produce  json
// @Param   eventID path string true "Event ID"
// @Success 200 {object} dto.ProcessResultResponse "Processing outcome"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 409 {object} map[string]string "Event is not in a retryable state"
// @Failure 500 {object} map[string]string "Failed to retry event"
// @Router /events/{eventID}/retry [post]
func (h *eventHandler) retryEvent(c *gin.Context) {
	h.runTransition(c, "retry", h.eventService.RetryEvent)
}

// runTransition handles process and retry, which share the same error mapping
// and response shape.
func (h *eventHandler) runTransition(c *gin.Context, action string, fn func(ctx context.Context, eventID, userID string) (domain.EventProcessResult, error)) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	eventID := c.Param("eventID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	result, err := fn(c.Request.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Event not found", slog.String("event_id", eventID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Event not in a valid state for "+action, slog.String("event_id", eventID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to "+action+" event", slog.String("error", err.Error()), slog.String("event_id", eventID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to " + action + " event"})
		}
		return
	}

	logger.Info("Event "+action+" completed", slog.String("event_id", eventID), slog.Bool("success", result.Success))
	c.JSON(http.StatusOK, dto.ToProcessResultResponse(result))
}

// cancelEvent godoc
// @Summary Cancel a pending or failed event
// @Description Moves the event to the terminal CANCELLED state without posting any journals
// @Tags events
// @Produce  json
// @Param   eventID path string true "Event ID"
// @Success 204 "Event cancelled"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 409 {object} map[string]string "Event is already processed or cancelled"
// @Failure 500 {object} map[string]string "Failed to cancel event"
// @Router /events/{eventID}/cancel [post]
func (h *eventHandler) cancelEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	eventID := c.Param("eventID")

	userID, ok := middleware.GetUserIDFromContext(c)
	if !ok {
		logger.Error("User ID not found in context")
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	err := h.eventService.CancelEvent(c.Request.Context(), eventID, userID)
	if err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			logger.Warn("Event not found for cancel", slog.String("event_id", eventID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
		case errors.Is(err, apperrors.ErrConflict):
			logger.Warn("Event not cancellable", slog.String("event_id", eventID))
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			logger.Error("Failed to cancel event", slog.String("error", err.Error()), slog.String("event_id", eventID))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to cancel event"})
		}
		return
	}

	logger.Info("Event cancelled", slog.String("event_id", eventID))
	c.Status(http.StatusNoContent)
}

// getEvent godoc
// @Summary Get an accounting event
// @Description Retrieves an accounting event by its ID
// @Tags events
// @Produce  json
// @Param   eventID path string true "Event ID"
// @Success 200 {object} dto.EventResponse "Event details"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 500 {object} map[string]string "Failed to retrieve event"
// @Router /events/{eventID} [get]
func (h *eventHandler) getEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	eventID := c.Param("eventID")

	event, err := h.eventService.GetEvent(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Event not found", slog.String("event_id", eventID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		logger.Error("Failed to get event from service", slog.String("error", err.Error()), slog.String("event_id", eventID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve event"})
		return
	}

	c.JSON(http.StatusOK, dto.ToEventResponse(event))
}

// getEventJournals godoc
// @Summary Get the journal entries generated by an event
// @Description Retrieves every journal entry (with lines) linked to the event
// @Tags events
// @Produce  json
// @Param   eventID path string true "Event ID"
// @Success 200 {object} dto.GetEventJournalsResponse "Linked journal entries"
// @Failure 404 {object} map[string]string "Event not found"
// @Failure 500 {object} map[string]string "Failed to retrieve journals"
// @Router /events/{eventID}/journals [get]
func (h *eventHandler) getEventJournals(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())
	eventID := c.Param("eventID")

	journals, err := h.eventService.GetEventJournals(c.Request.Context(), eventID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			logger.Warn("Event not found for journals", slog.String("event_id", eventID))
			c.JSON(http.StatusNotFound, gin.H{"error": "Event not found"})
			return
		}
		logger.Error("Failed to get journals for event", slog.String("error", err.Error()), slog.String("event_id", eventID))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve journals"})
		return
	}

	c.JSON(http.StatusOK, dto.GetEventJournalsResponse{
		EventID:  eventID,
		Journals: dto.ToJournalEntryResponses(journals),
	})
}

// listEvents godoc
// @Summary List accounting events
// @Description Returns a page of events, newest first, optionally filtered by status and affected company
// @Tags events
// @Produce  json
// @Param   status query string false "Event status filter" Enums(PENDING, PROCESSED, FAILED, CANCELLED)
// @Param   companyID query string false "Affected company filter"
// @Param   limit query int false "Page size (default 20, max 100)"
// @Param   nextToken query string false "Cursor from the previous page"
// @Success 200 {object} dto.ListEventsResponse "Page of events"
// @Failure 400 {object} map[string]string "Invalid query parameters"
// @Failure 500 {object} map[string]string "Failed to list events"
// @Router /events [get]
func (h *eventHandler) listEvents(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	params := dto.ListEventsParams{}
	if err := c.ShouldBindQuery(&params); err != nil {
		logger.Warn("Failed to bind query for listEvents", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid query parameters"})
		return
	}

	page, err := h.eventService.ListEvents(c.Request.Context(), params)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			logger.Warn("Invalid listEvents parameters", slog.String("error", err.Error()))
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		logger.Error("Failed to list events", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list events"})
		return
	}

	c.JSON(http.StatusOK, page)
}

// checkDuplicate godoc
// @Summary Check whether a source document already has an event
// @Description Advisory duplicate check on (event type, source document type, source document ID)
// @Tags events
// @Produce  json
// @Param   eventType query string true "Event type"
// @Param   sourceDocumentType query string true "Source document type"
// @Param   sourceDocumentID query string true "Source document ID"
// @Success 200 {object} map[string]bool "Duplicate flag"
// @Failure 400 {object} map[string]string "Missing query parameters"
// @Failure 500 {object} map[string]string "Failed to check duplicate"
// @Router /events/duplicate-check [get]
func (h *eventHandler) checkDuplicate(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	eventType := c.Query("eventType")
	sourceDocumentType := c.Query("sourceDocumentType")
	sourceDocumentID := c.Query("sourceDocumentID")
	if eventType == "" || sourceDocumentType == "" || sourceDocumentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "eventType, sourceDocumentType and sourceDocumentID are required"})
		return
	}

	exists, err := h.eventService.CheckDuplicate(c.Request.Context(), domain.EventType(eventType), sourceDocumentType, sourceDocumentID)
	if err != nil {
		logger.Error("Failed to check duplicate", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check duplicate"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"isDuplicate": exists})
}
