package handler

import (
	"context"
	"encoding/json"

	"github.com/gofiber/fiber/v2"

	"github.com/saturnino-fabrica-de-software/facelabel/internal/domain"
	"github.com/saturnino-fabrica-de-software/facelabel/internal/service"
)

// PhotoDetector runs the detector stage over a storage notification
type PhotoDetector interface {
	HandleEvent(ctx context.Context, event domain.StorageEvent) []service.DetectResult
}

// EventsHandler is the HTTP trigger for the photo bucket's notifications
type EventsHandler struct {
	detector PhotoDetector
}

func NewEventsHandler(detector PhotoDetector) *EventsHandler {
	return &EventsHandler{detector: detector}
}

type PhotoEventResponse struct {
	Results []service.DetectResult `json:"results"`
}

// PhotoUploaded processes every record independently. Per-record failures are
// reported in the body; the stage owns no retry, so the status stays 200.
func (h *EventsHandler) PhotoUploaded(c *fiber.Ctx) error {
	var event domain.StorageEvent
	if err := json.Unmarshal(c.Body(), &event); err != nil {
		return domain.ErrInvalidJSON.WithError(err)
	}
	if len(event.Records) == 0 {
		return domain.ErrNoRecords
	}

	return c.JSON(PhotoEventResponse{
		Results: h.detector.HandleEvent(c.Context(), event),
	})
}
