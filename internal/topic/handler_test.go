package topic

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"topicslog/auth"
	"topicslog/internal/domain"
	"topicslog/internal/errors"
	"topicslog/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mock implementation of the Service interface
type MockService struct {
	mock.Mock
}

func (m *MockService) CreateTopic(ctx context.Context, ownerUID, name string, columns []domain.Column) (*domain.Topic, error) {
	args := m.Called(ctx, ownerUID, name, columns)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Topic), args.Error(1)
}

func (m *MockService) OpenTopic(ctx context.Context, uid, topicID string) (*TopicView, error) {
	args := m.Called(ctx, uid, topicID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*TopicView), args.Error(1)
}

func (m *MockService) ListTopics(ctx context.Context, uid string, filter domain.TopicFilter, query string) ([]TopicView, error) {
	args := m.Called(ctx, uid, filter, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TopicView), args.Error(1)
}

func (m *MockService) CreateRow(ctx context.Context, uid, topicID string, values map[string]string) (*domain.Row, error) {
	args := m.Called(ctx, uid, topicID, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Row), args.Error(1)
}

func (m *MockService) UpdateRow(ctx context.Context, uid, topicID, rowID string, values map[string]string) (*domain.Row, error) {
	args := m.Called(ctx, uid, topicID, rowID, values)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Row), args.Error(1)
}

func (m *MockService) DeleteRow(ctx context.Context, uid, topicID, rowID string) error {
	args := m.Called(ctx, uid, topicID, rowID)
	return args.Error(0)
}

func (m *MockService) ListRows(ctx context.Context, uid, topicID string, order domain.RowOrder, query string) ([]domain.Row, error) {
	args := m.Called(ctx, uid, topicID, order, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Row), args.Error(1)
}

func (m *MockService) Export(ctx context.Context, uid, topicID string, order domain.RowOrder, query string) (string, string, error) {
	args := m.Called(ctx, uid, topicID, order, query)
	return args.String(0), args.String(1), args.Error(2)
}

func setupRouter(handler *Handler) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(middleware.ErrorHandler(zap.NewNop().Sugar()))

	authed := router.Group("/", func(c *gin.Context) {
		c.Set(auth.ContextUID, "u1")
	})
	authed.POST("/topics", handler.Create)
	authed.GET("/topics", handler.List)
	authed.GET("/topics/:id", handler.Show)
	authed.GET("/topics/:id/rows", handler.ListRows)
	authed.POST("/topics/:id/rows", handler.CreateRow)
	authed.PUT("/topics/:id/rows/:rowId", handler.UpdateRow)
	authed.DELETE("/topics/:id/rows/:rowId", handler.DeleteRow)
	authed.GET("/topics/:id/export.csv", handler.Export)
	return router
}

func do(router *gin.Engine, method, path string, payload any) *httptest.ResponseRecorder {
	var body *bytes.Buffer
	if payload != nil {
		b, _ := json.Marshal(payload)
		body = bytes.NewBuffer(b)
	} else {
		body = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCreateTopic_Success(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("CreateTopic", mock.Anything, "u1", "Journal", []domain.Column(nil)).
		Return(&domain.Topic{ID: "t1", Name: "Journal"}, nil)

	w := do(router, http.MethodPost, "/topics", CreateTopicRequest{Name: "Journal"})

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateTopic_InvalidInput(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	w := do(router, http.MethodPost, "/topics", struct{}{})

	// 422 for validation errors (missing name)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestListTopics_PassesFilter(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("ListTopics", mock.Anything, "u1", domain.FilterShared, "log").
		Return([]TopicView{{Topic: domain.Topic{ID: "t1"}, Role: "read"}}, nil)

	w := do(router, http.MethodGet, "/topics?filter=shared&q=log", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string][]map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response["data"], 1)
	assert.Equal(t, "t1", response["data"][0]["id"])
	assert.Equal(t, "read", response["data"][0]["role"])
}

func TestShowTopic_Forbidden(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("OpenTopic", mock.Anything, "u1", "t1").
		Return(nil, errors.Forbidden("You don't have access to this topic.", nil))

	w := do(router, http.MethodGet, "/topics/t1", nil)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestListRows_ParsesSort(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	order := domain.RowOrder{Field: domain.SortDate, Direction: domain.Asc}
	mockService.On("ListRows", mock.Anything, "u1", "t1", order, "").
		Return([]domain.Row{{ID: "r1"}}, nil)

	w := do(router, http.MethodGet, "/topics/t1/rows?sort=date_asc", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestCreateRow_Validation(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	values := map[string]string{"date": "", "title": "x"}
	mockService.On("CreateRow", mock.Anything, "u1", "t1", values).
		Return(nil, errors.Validation("Date is required.", nil))

	w := do(router, http.MethodPost, "/topics/t1/rows", RowRequest{Values: values})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var response map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "Date is required.", response["message"])
}

func TestUpdateRow_InFlight(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	values := map[string]string{"date": "2024-01-01", "title": "x"}
	mockService.On("UpdateRow", mock.Anything, "u1", "t1", "r1", values).
		Return(nil, errors.InFlight("Already saving. Please wait.", nil))

	w := do(router, http.MethodPut, "/topics/t1/rows/r1", RowRequest{Values: values})

	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreateRow_PassesSubmissionID(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	values := map[string]string{"date": "2024-01-01", "title": "x"}
	tagged := mock.MatchedBy(func(ctx context.Context) bool { return submissionFrom(ctx) == "sub-42" })
	mockService.On("CreateRow", tagged, "u1", "t1", values).Return(&domain.Row{ID: "r1"}, nil)

	b, _ := json.Marshal(RowRequest{Values: values})
	req := httptest.NewRequest(http.MethodPost, "/topics/t1/rows", bytes.NewBuffer(b))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(SubmissionHeader, "sub-42")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestDeleteRow(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("DeleteRow", mock.Anything, "u1", "t1", "r1").Return(nil)

	w := do(router, http.MethodDelete, "/topics/t1/rows/r1", nil)

	assert.Equal(t, http.StatusNoContent, w.Code)
	mockService.AssertExpectations(t)
}

func TestExport_ServesCSV(t *testing.T) {
	mockService := new(MockService)
	router := setupRouter(NewHandler(mockService))

	mockService.On("Export", mock.Anything, "u1", "t1", domain.DefaultRowOrder, "milk").
		Return("Work log.csv", "Date,Title,Notes,CreatedAt,UpdatedAt", nil)

	w := do(router, http.MethodGet, "/topics/t1/export.csv?q=milk", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "attachment; filename*=UTF-8''Work%20log.csv", w.Header().Get("Content-Disposition"))
	assert.Equal(t, "Date,Title,Notes,CreatedAt,UpdatedAt", w.Body.String())
}
