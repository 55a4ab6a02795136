package register

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/services/auth"
)

// Мок сервиса с методом Register
type ServiceMock struct {
	mock.Mock
}

func (m *ServiceMock) Register(ctx context.Context, req models.DummyRegister) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	validBody := models.DummyRegister{
		Email:    "user1@example.com",
		Username: "user1",
		Password: "password123",
	}

	tests := []struct {
		name           string
		requestBody    any
		setupMock      func(*ServiceMock)
		wantStatusCode int
		wantInBody     string
	}{
		{
			name:        "успешная регистрация",
			requestBody: validBody,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, validBody).Return("uid-123", nil).Once()
			},
			wantStatusCode: http.StatusOK,
			wantInBody:     `"uid":"uid-123"`,
		},
		{
			name:           "некорректный JSON",
			requestBody:    "not a json",
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusBadRequest,
			wantInBody:     `"error":"invalid request body"`,
		},
		{
			name: "ошибка валидации - без пароля",
			requestBody: models.DummyRegister{
				Email:    "user1@example.com",
				Username: "user1",
			},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantInBody:     `"status":"Error"`,
		},
		{
			name: "ошибка валидации - короткий пароль",
			requestBody: models.DummyRegister{
				Email:    "user1@example.com",
				Username: "user1",
				Password: "short",
			},
			setupMock:      func(_ *ServiceMock) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantInBody:     `"status":"Error"`,
		},
		{
			name:        "почта уже занята",
			requestBody: validBody,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, validBody).Return("", auth.ErrUserExists).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantInBody:     `"error":"email or username already taken"`,
		},
		{
			name:        "внутренняя ошибка сервиса",
			requestBody: validBody,
			setupMock: func(m *ServiceMock) {
				m.On("Register", mock.Anything, validBody).Return("", assert.AnError).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantInBody:     `"error":"could not register user"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(ServiceMock)
			tt.setupMock(mockService)

			handler := New(newNoopLogger(), mockService)

			var body []byte
			switch v := tt.requestBody.(type) {
			case string:
				body = []byte(v)
			default:
				body, _ = json.Marshal(v)
			}

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader(body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatusCode, w.Code)
			assert.True(t, strings.Contains(w.Body.String(), tt.wantInBody),
				"response body should contain %s, got %s", tt.wantInBody, w.Body.String())

			mockService.AssertExpectations(t)
		})
	}
}
