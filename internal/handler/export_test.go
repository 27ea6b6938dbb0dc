package handler

import "time"

// Export for testing
type ErrorResponse = errorResponse
type SubmissionResponse = submissionResponse
type SubmissionListResponse = submissionListResponse
type StatusResponse = statusResponse
type HealthResponse = healthResponse

var WriteServiceError = writeServiceError
var IDPtrToString = idPtrToString
var Itoa = itoa

// SetClock pins the health handler clock.
func (h *HealthHandler) SetClock(startedAt time.Time, now func() time.Time) {
	h.startedAt = startedAt
	h.now = now
}
