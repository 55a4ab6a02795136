package moderation

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/remedyhub/remedy-api/internal/models"
	"github.com/remedyhub/remedy-api/internal/storage/repository"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) CreateFlag(ctx context.Context, flag models.Flag) (int, error) {
	args := m.Called(ctx, flag)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) GetFlag(ctx context.Context, id int) (*models.Flag, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Flag), args.Error(1)
}
func (m *RepoMock) SetFlagStatus(ctx context.Context, id int, status, resolvedBy string) (int, error) {
	args := m.Called(ctx, id, status, resolvedBy)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) BumpFlagCount(ctx context.Context, contentType string, contentID int) (int, error) {
	args := m.Called(ctx, contentType, contentID)
	return args.Int(0), args.Error(1)
}
func (m *RepoMock) DeactivateContent(ctx context.Context, contentType string, contentID int, reason string) error {
	return m.Called(ctx, contentType, contentID, reason).Error(0)
}
func (m *RepoMock) SetContentModeration(ctx context.Context, contentType string, contentID int, status string, active bool) error {
	return m.Called(ctx, contentType, contentID, status, active).Error(0)
}
func (m *RepoMock) GetModerationStatus(ctx context.Context, contentType string, contentID int) (*models.ModerationStatus, error) {
	args := m.Called(ctx, contentType, contentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ModerationStatus), args.Error(1)
}
func (m *RepoMock) ListUnderReview(ctx context.Context, limit, offset int) ([]*models.ModerationStatus, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.ModerationStatus), args.Error(1)
}
func (m *RepoMock) ReadRemedy(ctx context.Context, id int) (*models.Remedy, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Remedy), args.Error(1)
}
func (m *RepoMock) ReadReview(ctx context.Context, id int) (*models.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}
func (m *RepoMock) GetUserByUID(ctx context.Context, uid string) (*models.User, error) {
	args := m.Called(ctx, uid)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

type EmailsMock struct{ mock.Mock }

func (m *EmailsMock) Publish(job models.EmailJob) error {
	return m.Called(job).Error(0)
}

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

const threshold = 3

func TestService_FileFlag(t *testing.T) {
	flagReq := models.DummyFlag{Reason: "spam", Note: "looks like an ad"}
	remedy := &models.Remedy{ID: 10, CreatedBy: "author-uid", IsActive: true}
	author := &models.User{UID: "author-uid", Email: "author@example.com", Username: "author"}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock, e *EmailsMock)
		wantID     int
		wantErr    error
	}{
		{
			name: "жалоба ниже порога не трогает контент",
			setupMocks: func(r *RepoMock, _ *EmailsMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(remedy, nil).Once()
				r.On("CreateFlag", mock.Anything, mock.MatchedBy(func(f models.Flag) bool {
					return f.ContentType == models.ContentTypeRemedy &&
						f.ContentID == 10 &&
						f.FlaggedBy == "uid-1" &&
						f.Status == models.FlagOpen
				})).Return(7, nil).Once()
				r.On("BumpFlagCount", mock.Anything, models.ContentTypeRemedy, 10).Return(1, nil).Once()
			},
			wantID: 7,
		},
		{
			name: "порог жалоб деактивирует контент и уведомляет автора",
			setupMocks: func(r *RepoMock, e *EmailsMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(remedy, nil).Once()
				r.On("CreateFlag", mock.Anything, mock.Anything).Return(9, nil).Once()
				r.On("BumpFlagCount", mock.Anything, models.ContentTypeRemedy, 10).Return(threshold, nil).Once()
				r.On("DeactivateContent", mock.Anything, models.ContentTypeRemedy, 10,
					"flag threshold reached: 3 of 3").Return(nil).Once()
				r.On("GetUserByUID", mock.Anything, "author-uid").Return(author, nil).Once()
				e.On("Publish", mock.MatchedBy(func(j models.EmailJob) bool {
					return j.Kind == models.EmailKindContentDisabled && j.Email == author.Email
				})).Return(nil).Once()
			},
			wantID: 9,
		},
		{
			name: "повторная жалоба того же пользователя отклоняется",
			setupMocks: func(r *RepoMock, _ *EmailsMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(remedy, nil).Once()
				r.On("CreateFlag", mock.Anything, mock.Anything).Return(0, repository.ErrDuplicate).Once()
			},
			wantErr: ErrAlreadyFlagged,
		},
		{
			name: "жалоба на несуществующий контент",
			setupMocks: func(r *RepoMock, _ *EmailsMock) {
				r.On("ReadRemedy", mock.Anything, 10).Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: ErrContentNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			emails := new(EmailsMock)
			tt.setupMocks(repo, emails)
			svc := New(repo, emails, threshold, newNoopLogger())

			got, err := svc.FileFlag(context.Background(), models.ContentTypeRemedy, 10, "uid-1", flagReq)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantID, got)
			}

			repo.AssertExpectations(t)
			emails.AssertExpectations(t)
		})
	}
}

func TestService_FileFlag_EmailFailureDoesNotFailFlag(t *testing.T) {
	repo := new(RepoMock)
	emails := new(EmailsMock)
	review := &models.Review{ID: 4, CreatedBy: "author-uid"}

	repo.On("ReadReview", mock.Anything, 4).Return(review, nil).Once()
	repo.On("CreateFlag", mock.Anything, mock.Anything).Return(12, nil).Once()
	repo.On("BumpFlagCount", mock.Anything, models.ContentTypeReview, 4).Return(threshold, nil).Once()
	repo.On("DeactivateContent", mock.Anything, models.ContentTypeReview, 4, mock.Anything).Return(nil).Once()
	repo.On("GetUserByUID", mock.Anything, "author-uid").Return(nil, repository.ErrNotFound).Once()

	svc := New(repo, emails, threshold, newNoopLogger())

	got, err := svc.FileFlag(context.Background(), models.ContentTypeReview, 4, "uid-1",
		models.DummyFlag{Reason: "harmful"})
	assert.NoError(t, err)
	assert.Equal(t, 12, got)

	emails.AssertNotCalled(t, "Publish", mock.Anything)
	repo.AssertExpectations(t)
}

func TestService_ResolveFlag(t *testing.T) {
	flag := &models.Flag{ID: 1, ContentType: models.ContentTypeRemedy, ContentID: 10, Status: models.FlagOpen}

	tests := []struct {
		name       string
		resolution string
		setupMocks func(r *RepoMock)
		wantErr    error
	}{
		{
			name:       "resolved деактивирует контент",
			resolution: models.FlagResolved,
			setupMocks: func(r *RepoMock) {
				r.On("GetFlag", mock.Anything, 1).Return(flag, nil).Once()
				r.On("SetFlagStatus", mock.Anything, 1, models.FlagResolved, "mod-uid").Return(1, nil).Once()
				r.On("GetModerationStatus", mock.Anything, models.ContentTypeRemedy, 10).
					Return(&models.ModerationStatus{Status: models.ModerationUnderReview}, nil).Once()
				r.On("SetContentModeration", mock.Anything, models.ContentTypeRemedy, 10,
					models.ModerationRejected, false).Return(nil).Once()
			},
		},
		{
			name:       "dismissed возвращает контент в строй",
			resolution: models.FlagDismissed,
			setupMocks: func(r *RepoMock) {
				r.On("GetFlag", mock.Anything, 1).Return(flag, nil).Once()
				r.On("SetFlagStatus", mock.Anything, 1, models.FlagDismissed, "mod-uid").Return(1, nil).Once()
				r.On("GetModerationStatus", mock.Anything, models.ContentTypeRemedy, 10).
					Return(&models.ModerationStatus{Status: models.ModerationUnderReview}, nil).Once()
				r.On("SetContentModeration", mock.Anything, models.ContentTypeRemedy, 10,
					models.ModerationApproved, true).Return(nil).Once()
			},
		},
		{
			name:       "повторное решение по закрытой жалобе",
			resolution: models.FlagResolved,
			setupMocks: func(r *RepoMock) {
				r.On("GetFlag", mock.Anything, 1).Return(flag, nil).Once()
				r.On("SetFlagStatus", mock.Anything, 1, models.FlagResolved, "mod-uid").Return(0, nil).Once()
			},
			wantErr: ErrFlagNotOpen,
		},
		{
			name:       "жалоба не найдена",
			resolution: models.FlagResolved,
			setupMocks: func(r *RepoMock) {
				r.On("GetFlag", mock.Anything, 1).Return(nil, repository.ErrNotFound).Once()
			},
			wantErr: repository.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)
			svc := New(repo, new(EmailsMock), threshold, newNoopLogger())

			err := svc.ResolveFlag(context.Background(), 1, "mod-uid",
				models.DummyResolveFlag{Resolution: tt.resolution})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}

			repo.AssertExpectations(t)
		})
	}
}

func TestService_Queue(t *testing.T) {
	repo := new(RepoMock)
	items := []*models.ModerationStatus{
		{ID: 1, ContentType: models.ContentTypeRemedy, ContentID: 10, Status: models.ModerationUnderReview},
	}
	repo.On("ListUnderReview", mock.Anything, 20, 0).Return(items, nil).Once()

	svc := New(repo, new(EmailsMock), threshold, newNoopLogger())
	got, err := svc.Queue(context.Background(), 20, 0)
	assert.NoError(t, err)
	assert.Equal(t, items, got)
	repo.AssertExpectations(t)
}
