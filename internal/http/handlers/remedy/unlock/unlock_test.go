package unlock

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/remedyhub/remedy-api/internal/http/middlewarectx"
	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/services/entitlement"
)

// MockService реализует интерфейс unlock.Service
type MockService struct {
	mock.Mock
}

func (m *MockService) Resolve(ctx context.Context, userUID string, remedyID int, ailmentID *int) (*entitlement.Decision, error) {
	args := m.Called(ctx, userUID, remedyID, ailmentID)
	if res := args.Get(0); res != nil {
		return res.(*entitlement.Decision), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestUnlockHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	tests := []struct {
		name           string
		id             string
		userUID        string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:    "успешное открытие средства",
			id:      "10",
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "uid-1", 10, (*int)(nil)).Return(&entitlement.Decision{
					Allowed: true,
					Remedy:  &models.Remedy{ID: 10, Name: "Chamomile Tea", Content: "Steep for 5 minutes"},
				}, nil)
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"Chamomile Tea"`,
		},
		{
			name:           "некорректный id в URL",
			id:             "abc",
			userUID:        "uid-1",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"status":"Error","error":"invalid id"}`,
		},
		{
			name:           "нет UID в контексте",
			id:             "10",
			userUID:        "",
			setupMock:      func(_ *MockService) {},
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `{"status":"Error","error":"unauthorized"}`,
		},
		{
			name:    "нет активной подписки",
			id:      "10",
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "uid-1", 10, (*int)(nil)).Return(&entitlement.Decision{
					Allowed: false,
					Reason:  entitlement.ReasonNoSubscription,
				}, nil)
			},
			expectedStatus: http.StatusPaymentRequired,
			expectedBody:   entitlement.ReasonNoSubscription,
		},
		{
			name:    "достигнут лимит плана",
			id:      "10",
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "uid-1", 10, (*int)(nil)).Return(&entitlement.Decision{
					Allowed: false,
					Reason:  entitlement.ReasonPlanLimit,
				}, nil)
			},
			expectedStatus: http.StatusForbidden,
			expectedBody:   entitlement.ReasonPlanLimit,
		},
		{
			name:    "средство не найдено",
			id:      "404",
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "uid-1", 404, (*int)(nil)).Return(nil, entitlement.ErrRemedyNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"remedy not found"}`,
		},
		{
			name:    "план подписки не найден",
			id:      "10",
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "uid-1", 10, (*int)(nil)).Return(nil, entitlement.ErrPlanNotFound)
			},
			expectedStatus: http.StatusNotFound,
			expectedBody:   `{"status":"Error","error":"plan not found"}`,
		},
		{
			name:    "ошибка сервиса",
			id:      "10",
			userUID: "uid-1",
			setupMock: func(m *MockService) {
				m.On("Resolve", mock.Anything, "uid-1", 10, (*int)(nil)).Return(nil, errors.New("db error"))
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"status":"Error","error":"could not resolve remedy access"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			handler := New(logger, mockService)

			req := httptest.NewRequest(http.MethodPost, "/remedies/"+tt.id+"/unlock", nil)
			// Устанавливаем URL params с помощью роутера chi
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("id", tt.id)
			ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
			if tt.userUID != "" {
				ctx = context.WithValue(ctx, middlewarectx.UserUID, tt.userUID)
			}
			req = req.WithContext(ctx)

			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.expectedBody),
				"response body should contain %s, got %s", tt.expectedBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}

func TestUnlockHandler_AilmentScoped(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	t.Run("открытие в рамках одного недуга", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("Resolve", mock.Anything, "uid-1", 10, mock.MatchedBy(func(id *int) bool {
			return id != nil && *id == 2
		})).Return(&entitlement.Decision{
			Allowed: true,
			Remedy:  &models.Remedy{ID: 10, Name: "Chamomile Tea"},
		}, nil)

		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodPost, "/remedies/10/unlock?ailment_id=2", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "10")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-1")
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("недуг не связан со средством", func(t *testing.T) {
		mockService := new(MockService)
		mockService.On("Resolve", mock.Anything, "uid-1", 10, mock.Anything).
			Return(nil, entitlement.ErrAilmentNotLinked)

		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodPost, "/remedies/10/unlock?ailment_id=99", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "10")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-1")
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "ailment is not linked to the remedy"))
	})

	t.Run("некорректный ailment_id", func(t *testing.T) {
		mockService := new(MockService)
		handler := New(logger, mockService)

		req := httptest.NewRequest(http.MethodPost, "/remedies/10/unlock?ailment_id=abc", nil)
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", "10")
		ctx := context.WithValue(req.Context(), chi.RouteCtxKey, rctx)
		ctx = context.WithValue(ctx, middlewarectx.UserUID, "uid-1")
		req = req.WithContext(ctx)

		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.True(t, strings.Contains(w.Body.String(), "invalid ailment_id"))
		mockService.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}
