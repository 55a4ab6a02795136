package sender

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/remedyhub/remedy-api/internal/lib/smtp"
	"github.com/remedyhub/remedy-api/internal/models"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Connect() (smtp.Client, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(smtp.Client), args.Error(1)
}

func (m *MockTransport) GetSMTPUser() string {
	args := m.Called()
	return args.String(0)
}

type MockSMTPClient struct {
	mock.Mock
}

func (m *MockSMTPClient) Mail(from string) error {
	args := m.Called(from)
	return args.Error(0)
}

func (m *MockSMTPClient) Rcpt(to string) error {
	args := m.Called(to)
	return args.Error(0)
}

func (m *MockSMTPClient) Data() (io.WriteCloser, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.WriteCloser), args.Error(1)
}

func (m *MockSMTPClient) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockSMTPClient) Quit() error {
	args := m.Called()
	return args.Error(0)
}

type MockSMTPWriter struct {
	mock.Mock
}

func (m *MockSMTPWriter) Write(p []byte) (n int, err error) {
	args := m.Called(p)
	return args.Int(0), args.Error(1)
}

func (m *MockSMTPWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func expectSuccessfulSend(t *MockTransport, rcpt string) *MockSMTPWriter {
	mockClient := new(MockSMTPClient)
	mockWriter := new(MockSMTPWriter)

	t.On("GetSMTPUser").Return("noreply@remedyhub.io")
	t.On("Connect").Return(mockClient, nil).Once()
	mockClient.On("Mail", "noreply@remedyhub.io").Return(nil).Once()
	mockClient.On("Rcpt", rcpt).Return(nil).Once()
	mockClient.On("Data").Return(mockWriter, nil).Once()
	mockWriter.On("Write", mock.AnythingOfType("[]uint8")).Return(100, nil).Once()
	mockWriter.On("Close").Return(nil).Once()
	mockClient.On("Quit").Return(nil).Once()
	mockClient.On("Close").Return(nil).Once()
	return mockWriter
}

func TestService_SendEmailJob(t *testing.T) {
	tests := []struct {
		name          string
		body          []byte
		setupMocks    func(*MockTransport)
		expectedError bool
		errorMessage  string
	}{
		{
			name: "успешная отправка письма о подтверждении почты",
			body: []byte(`{"kind":"verification","email":"user@example.com","username":"alice","link":"https://remedyhub.io/verify?token=abc"}`),
			setupMocks: func(tr *MockTransport) {
				expectSuccessfulSend(tr, "user@example.com")
			},
			expectedError: false,
		},
		{
			name: "успешная отправка письма о сбросе пароля",
			body: []byte(`{"kind":"password_reset","email":"user@example.com","username":"alice","link":"https://remedyhub.io/reset?token=abc"}`),
			setupMocks: func(tr *MockTransport) {
				expectSuccessfulSend(tr, "user@example.com")
			},
			expectedError: false,
		},
		{
			name: "некорректный JSON в теле задания",
			body: []byte(`invalid json`),
			setupMocks: func(_ *MockTransport) {
				// транспорт не должен вызываться
			},
			expectedError: true,
			errorMessage:  "error unmarshalling message",
		},
		{
			name: "ошибка подключения к SMTP",
			body: []byte(`{"kind":"verification","email":"user@example.com","username":"alice","link":"https://remedyhub.io/verify?token=abc"}`),
			setupMocks: func(tr *MockTransport) {
				tr.On("GetSMTPUser").Return("noreply@remedyhub.io")
				tr.On("Connect").Return(nil, errors.New("connection error")).Once()
			},
			expectedError: true,
			errorMessage:  "connection error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := New(transport, newNoopLogger())

			tt.setupMocks(transport)

			err := service.SendEmailJob(tt.body)

			if tt.expectedError {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMessage)
			} else {
				assert.NoError(t, err)
			}

			transport.AssertExpectations(t)
		})
	}
}

func TestService_SendEmailJob_MessageContent(t *testing.T) {
	job := models.EmailJob{
		Kind:     models.EmailKindVerification,
		Email:    "user@example.com",
		Username: "alice",
		Link:     "https://remedyhub.io/verify?token=abc",
	}
	body, err := json.Marshal(job)
	assert.NoError(t, err)

	transport := new(MockTransport)
	mockWriter := expectSuccessfulSend(transport, "user@example.com")

	service := New(transport, newNoopLogger())
	assert.NoError(t, service.SendEmailJob(body))

	written := string(mockWriter.Calls[0].Arguments.Get(0).([]byte))
	assert.Contains(t, written, "Subject: Confirm your RemedyHub email")
	assert.Contains(t, written, "Hello, alice!")
	assert.Contains(t, written, job.Link)
	assert.True(t, strings.HasPrefix(written, "From: noreply@remedyhub.io"))
}

func TestComposeEmail(t *testing.T) {
	tests := []struct {
		name        string
		job         models.EmailJob
		wantSubject string
		wantInBody  []string
	}{
		{
			name: "подтверждение почты",
			job: models.EmailJob{
				Kind:     models.EmailKindVerification,
				Username: "alice",
				Link:     "https://remedyhub.io/verify?token=abc",
			},
			wantSubject: "Confirm your RemedyHub email",
			wantInBody:  []string{"alice", "https://remedyhub.io/verify?token=abc", "48 hours"},
		},
		{
			name: "сброс пароля",
			job: models.EmailJob{
				Kind:     models.EmailKindPasswordReset,
				Username: "bob",
				Link:     "https://remedyhub.io/reset?token=def",
			},
			wantSubject: "Reset your RemedyHub password",
			wantInBody:  []string{"bob", "https://remedyhub.io/reset?token=def"},
		},
		{
			name: "скрытие контента с темой по умолчанию",
			job: models.EmailJob{
				Kind:     models.EmailKindContentDisabled,
				Username: "carol",
				Body:     "Your remedy was hidden after review.",
			},
			wantSubject: "Your content was hidden",
			wantInBody:  []string{"carol", "Your remedy was hidden after review."},
		},
		{
			name: "неизвестный вид использует тему и текст задания",
			job: models.EmailJob{
				Kind:    "newsletter",
				Subject: "Weekly digest",
				Body:    "Top remedies of the week",
			},
			wantSubject: "Weekly digest",
			wantInBody:  []string{"Top remedies of the week"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subject, body := composeEmail(tt.job)
			assert.Equal(t, tt.wantSubject, subject)
			for _, part := range tt.wantInBody {
				assert.Contains(t, body, part)
			}
		})
	}
}

func TestService_SMTPErrorHandling(t *testing.T) {
	body := []byte(`{"kind":"verification","email":"user@example.com","username":"alice","link":"https://remedyhub.io/verify?token=abc"}`)

	tests := []struct {
		name         string
		setupMocks   func(*MockTransport)
		errorMessage string
	}{
		{
			name: "ошибка MAIL FROM",
			setupMocks: func(tr *MockTransport) {
				mockClient := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@remedyhub.io")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@remedyhub.io").Return(errors.New("mail error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "mail error",
		},
		{
			name: "ошибка RCPT TO",
			setupMocks: func(tr *MockTransport) {
				mockClient := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@remedyhub.io")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@remedyhub.io").Return(nil).Once()
				mockClient.On("Rcpt", "user@example.com").Return(errors.New("rcpt error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "rcpt error",
		},
		{
			name: "ошибка DATA",
			setupMocks: func(tr *MockTransport) {
				mockClient := new(MockSMTPClient)
				tr.On("GetSMTPUser").Return("noreply@remedyhub.io")
				tr.On("Connect").Return(mockClient, nil).Once()
				mockClient.On("Mail", "noreply@remedyhub.io").Return(nil).Once()
				mockClient.On("Rcpt", "user@example.com").Return(nil).Once()
				mockClient.On("Data").Return(nil, errors.New("data error")).Once()
				mockClient.On("Close").Return(nil).Once()
			},
			errorMessage: "data error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transport := new(MockTransport)
			service := New(transport, newNoopLogger())

			tt.setupMocks(transport)

			err := service.SendEmailJob(body)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMessage)

			transport.AssertExpectations(t)
		})
	}
}
