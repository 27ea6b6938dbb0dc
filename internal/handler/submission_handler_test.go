package handler_test

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"snipbox/backend/internal/handler"
	"snipbox/backend/internal/model"
	"snipbox/backend/internal/service"
	"snipbox/backend/internal/service/mock"
	"snipbox/backend/pkg/validation"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func int64Ptr(v int64) *int64 { return &v }

func TestSubmissionHandler_List_DefaultLimit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock.NewMockSubmissionService(ctrl)
	h := handler.NewSubmissionHandler(mockService)

	e := newTestEcho()
	c, rec := newTestContext(e, newJSONRequest(http.MethodGet, "/api/submissions", nil))

	createdAt := time.Date(2026, 10, 16, 9, 0, 0, 0, time.UTC)
	mockService.EXPECT().
		List(gomock.Any(), service.ListParams{Limit: service.DefaultPageLimit}).
		Return(service.Page{
			Items: []model.Submission{
				{ID: 3, Text: "third", CreatedAt: createdAt},
				{ID: 2, Text: "second", CreatedAt: createdAt.Add(-time.Second)},
			},
			NextCursor: int64Ptr(2),
		}, nil)

	err := h.List(c)
	require.NoError(t, err)

	var resp handler.SubmissionListResponse
	assertJSONResponse(t, rec, http.StatusOK, &resp)
	require.Len(t, resp.Items, 2)
	require.Equal(t, "3", resp.Items[0].ID)
	require.Equal(t, "third", resp.Items[0].Text)
	require.Equal(t, "2026-10-16T09:00:00Z", resp.Items[0].CreatedAt)
	require.NotNil(t, resp.NextCursor)
	require.Equal(t, "2", *resp.NextCursor)
}

func TestSubmissionHandler_List_WithCursor(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock.NewMockSubmissionService(ctrl)
	h := handler.NewSubmissionHandler(mockService)

	e := newTestEcho()
	c, rec := newTestContext(e, newJSONRequest(http.MethodGet, "/api/submissions?limit=5&cursor=42", nil))

	mockService.EXPECT().
		List(gomock.Any(), service.ListParams{Limit: 5, Cursor: int64Ptr(42)}).
		Return(service.Page{}, nil)

	err := h.List(c)
	require.NoError(t, err)

	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"items":[]}`, rec.Body.String())
}

func TestSubmissionHandler_List_BadParams(t *testing.T) {
	tests := []struct {
		name  string
		query string
	}{
		{"non-numeric limit", "?limit=ten"},
		{"non-numeric cursor", "?cursor=abc"},
		{"fractional cursor", "?cursor=1.5"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			mockService := mock.NewMockSubmissionService(ctrl)
			h := handler.NewSubmissionHandler(mockService)

			e := newTestEcho()
			c, rec := newTestContext(e, newJSONRequest(http.MethodGet, "/api/submissions"+tc.query, nil))

			err := h.List(c)
			require.NoError(t, err)

			var resp handler.ErrorResponse
			assertJSONResponse(t, rec, http.StatusBadRequest, &resp)
			require.Equal(t, "invalid request", resp.Error)
			require.NotEmpty(t, resp.Message)
		})
	}
}

func TestSubmissionHandler_List_NonPositiveCursorIsAFilter(t *testing.T) {
	for _, cursor := range []int64{0, -5} {
		ctrl := gomock.NewController(t)
		mockService := mock.NewMockSubmissionService(ctrl)
		h := handler.NewSubmissionHandler(mockService)

		e := newTestEcho()
		c, rec := newTestContext(e, newJSONRequest(http.MethodGet, "/api/submissions?cursor="+handler.Itoa(cursor), nil))

		mockService.EXPECT().
			List(gomock.Any(), service.ListParams{Limit: service.DefaultPageLimit, Cursor: int64Ptr(cursor)}).
			Return(service.Page{}, nil)

		require.NoError(t, h.List(c))
		require.Equal(t, http.StatusOK, rec.Code, "cursor %d", cursor)
		require.JSONEq(t, `{"items":[]}`, rec.Body.String())
	}
}

func TestSubmissionHandler_List_LimitOutOfRange(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock.NewMockSubmissionService(ctrl)
	h := handler.NewSubmissionHandler(mockService)

	e := newTestEcho()
	c, rec := newTestContext(e, newJSONRequest(http.MethodGet, "/api/submissions?limit=101", nil))

	mockService.EXPECT().
		List(gomock.Any(), service.ListParams{Limit: 101}).
		Return(service.Page{}, &service.ValidationError{Field: "limit", Err: errors.New("must be between 1 and 100, got 101")})

	err := h.List(c)
	require.NoError(t, err)

	var resp handler.ErrorResponse
	assertJSONResponse(t, rec, http.StatusBadRequest, &resp)
	require.Contains(t, resp.Message, "limit")
}

func TestSubmissionHandler_List_StoreUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock.NewMockSubmissionService(ctrl)
	h := handler.NewSubmissionHandler(mockService)

	e := newTestEcho()
	c, rec := newTestContext(e, newJSONRequest(http.MethodGet, "/api/submissions", nil))

	mockService.EXPECT().
		List(gomock.Any(), gomock.Any()).
		Return(service.Page{}, &service.StoreError{Op: "list submissions", Err: errors.New("database is locked")})

	err := h.List(c)
	require.NoError(t, err)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubmissionHandler_Create_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock.NewMockSubmissionService(ctrl)
	h := handler.NewSubmissionHandler(mockService)

	e := newTestEcho()
	c, rec := newTestContext(e, newJSONRequest(http.MethodPost, "/api/submissions", map[string]string{"text": "hello"}))

	mockService.EXPECT().
		Create(gomock.Any(), "hello").
		Return(model.Submission{ID: 1790000000000000001, Text: "hello", CreatedAt: time.Now()}, nil)

	err := h.Create(c)
	require.NoError(t, err)

	var resp handler.SubmissionResponse
	assertJSONResponse(t, rec, http.StatusCreated, &resp)
	require.Equal(t, "1790000000000000001", resp.ID)
	require.Equal(t, "hello", resp.Text)
}

func TestSubmissionHandler_Create_Invalid(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock.NewMockSubmissionService(ctrl)
	h := handler.NewSubmissionHandler(mockService)

	e := newTestEcho()
	c, rec := newTestContext(e, newJSONRequest(http.MethodPost, "/api/submissions", map[string]string{"text": " "}))

	mockService.EXPECT().
		Create(gomock.Any(), " ").
		Return(model.Submission{}, &service.ValidationError{Field: "text", Err: &validation.Error{Reason: validation.ErrEmpty, Length: 1}})

	err := h.Create(c)
	require.NoError(t, err)

	var resp handler.ErrorResponse
	assertJSONResponse(t, rec, http.StatusBadRequest, &resp)
	require.Equal(t, "invalid text: input cannot be empty", resp.Message)
}

func TestSubmissionHandler_Create_MalformedBody(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockService := mock.NewMockSubmissionService(ctrl)
	h := handler.NewSubmissionHandler(mockService)

	e := newTestEcho()
	c, rec := newTestContext(e, newJSONRequest(http.MethodPost, "/api/submissions", `{"text":`))

	err := h.Create(c)
	require.NoError(t, err)

	var resp handler.ErrorResponse
	assertJSONResponse(t, rec, http.StatusBadRequest, &resp)
	require.Equal(t, "invalid request", resp.Error)
}
