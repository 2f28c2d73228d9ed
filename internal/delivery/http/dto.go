package http

import (
	"time"

	"github.com/google/uuid"

	"github.com/ilindan-dev/fact-scheduler/internal/domain/model"
)

// CreateFactRequest defines the structure for ingesting a new fact.
// It uses `json` tags for unmarshalling and `binding` for validation with Gin.
type CreateFactRequest struct {
	Language string  `json:"language" binding:"required"`
	Text     string  `json:"text" binding:"required"`
	Category string  `json:"category" binding:"required"`
	ImageURL *string `json:"image_url,omitempty"`
}

// FactResponse defines the structure for a standard fact response.
// We don't expose all internal fields to the client.
type FactResponse struct {
	ID        uuid.UUID  `json:"id"`
	Language  string     `json:"language"`
	Text      string     `json:"text"`
	Category  string     `json:"category"`
	ImageURL  *string    `json:"image_url,omitempty"`
	ShownAt   *time.Time `json:"shown_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// ClearScheduleRequest controls how much scheduling state a clear wipes.
// When ClearPastScheduledDates is false, past-due facts are folded into the
// feed history instead of being returned to the unscheduled pool.
type ClearScheduleRequest struct {
	ClearPastScheduledDates bool `json:"clear_past_scheduled_dates"`
}

// SetPermissionRequest records the user's notifications opt-in.
type SetPermissionRequest struct {
	Granted *bool `json:"granted" binding:"required"`
}

// ScheduleResultResponse mirrors the outcome of a scheduling operation.
type ScheduleResultResponse struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Skipped bool   `json:"skipped,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ScheduleStatusResponse reports the current queue and store state.
type ScheduleStatusResponse struct {
	Enabled      bool `json:"enabled"`
	PendingCount int  `json:"pending_count"`
	StoreCount   int  `json:"store_count"`
	Cap          int  `json:"cap"`
}

// ErrorResponse defines a standard structure for API error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// toFactResponse is a helper function to map the domain model to the DTO.
func toFactResponse(f *model.Fact) FactResponse {
	return FactResponse{
		ID:        f.ID,
		Language:  f.Language,
		Text:      f.Text,
		Category:  f.Category,
		ImageURL:  f.ImageURL,
		ShownAt:   f.ShownAt,
		CreatedAt: f.CreatedAt,
	}
}

// toScheduleResultResponse maps a schedule outcome to the DTO.
func toScheduleResultResponse(r model.ScheduleResult) ScheduleResultResponse {
	return ScheduleResultResponse{
		Success: r.Success,
		Count:   r.Count,
		Skipped: r.Skipped,
		Error:   r.Error,
	}
}
