package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"snipbox/backend/internal/model"
	"snipbox/backend/internal/service"
)

type SubmissionHandler struct {
	service service.SubmissionService
}

type createSubmissionRequest struct {
	Text string `json:"text"`
}

type submissionResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}

type submissionListResponse struct {
	Items      []submissionResponse `json:"items"`
	NextCursor *string              `json:"nextCursor,omitempty"`
}

func NewSubmissionHandler(service service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{service: service}
}

func (h *SubmissionHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/submissions", h.List)
	g.POST("/submissions", h.Create)
}

// List godoc
//
//	@Summary		List submissions
//	@Description	Newest first. Follow nextCursor to fetch the following page.
//	@Tags			submissions
//	@Produce		json
//	@Param			limit	query		int		false	"Page size (1-100)"	default(10)
//	@Param			cursor	query		string	false	"nextCursor of the previous page"
//	@Success		200		{object}	submissionListResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		429		{object}	errorResponse
//	@Failure		503		{object}	errorResponse
//	@Router			/api/submissions [get]
func (h *SubmissionHandler) List(c echo.Context) error {
	limit, err := parseLimitParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Message: err.Error()})
	}
	cursor, err := parseCursorParam(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request", Message: err.Error()})
	}

	page, err := h.service.List(c.Request().Context(), service.ListParams{Limit: limit, Cursor: cursor})
	if err != nil {
		return writeServiceError(c, err)
	}

	items := make([]submissionResponse, 0, len(page.Items))
	for _, s := range page.Items {
		items = append(items, toSubmissionResponse(s))
	}
	return c.JSON(http.StatusOK, submissionListResponse{
		Items:      items,
		NextCursor: idPtrToString(page.NextCursor),
	})
}

// Create godoc
//
//	@Summary		Create a submission
//	@Tags			submissions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		createSubmissionRequest	true	"Submission text (1-255 characters)"
//	@Success		201		{object}	submissionResponse
//	@Failure		400		{object}	errorResponse
//	@Failure		429		{object}	errorResponse
//	@Failure		503		{object}	errorResponse
//	@Router			/api/submissions [post]
func (h *SubmissionHandler) Create(c echo.Context) error {
	var req createSubmissionRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid request"})
	}
	submission, err := h.service.Create(c.Request().Context(), req.Text)
	if err != nil {
		return writeServiceError(c, err)
	}
	return c.JSON(http.StatusCreated, toSubmissionResponse(submission))
}

func toSubmissionResponse(s model.Submission) submissionResponse {
	return submissionResponse{
		ID:        itoa(s.ID),
		Text:      s.Text,
		CreatedAt: s.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
