package api

import (
	"github.com/starford/schedulectx/internal/models"
	"github.com/starford/schedulectx/internal/scheduleservice"
)

// UpdateScheduleRequest is the request body for replacing the schedule.
type UpdateScheduleRequest struct {
	Content string `json:"content" example:"Game 1: Mon vs Rivals"`
}

// ScheduleDocument is the schedule response type (aliased from the domain layer).
type ScheduleDocument = scheduleservice.Document

// RevisionListResponse wraps paginated revision listings.
type RevisionListResponse struct {
	Revisions []models.Revision `json:"revisions" validate:"required"`
	Total     int               `json:"total" example:"42" validate:"required"`
}
