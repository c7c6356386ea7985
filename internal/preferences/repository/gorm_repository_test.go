package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"email-insight-backend/internal/preferences/domain"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

func TestKnowledgeBaseRepository_Get(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		want      *domain.KnowledgeBase
		wantErr   bool
	}{
		{
			name: "existing record",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "knowledge_bases" WHERE user_id = \$1`).
					WillReturnRows(sqlmock.NewRows([]string{"user_id", "classification", "reply", "updated_at"}).
						AddRow("u1", "work first", "be brief", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)))
			},
			want: &domain.KnowledgeBase{
				UserID:         "u1",
				Classification: "work first",
				Reply:          "be brief",
				UpdatedAt:      time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			},
		},
		{
			name: "missing record defaults to empty",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "knowledge_bases" WHERE user_id = \$1`).
					WillReturnRows(sqlmock.NewRows([]string{"user_id", "classification", "reply", "updated_at"}))
			},
			want: &domain.KnowledgeBase{UserID: "u1"},
		},
		{
			name: "query failure",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT \* FROM "knowledge_bases"`).
					WillReturnError(errors.New("connection reset"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setupMock(mock)

			kb, err := NewKnowledgeBaseRepository(db).Get(context.Background(), "u1")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, kb)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestKnowledgeBaseRepository_SaveUpserts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "knowledge_bases" .* ON CONFLICT \("user_id"\) DO UPDATE SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := NewKnowledgeBaseRepository(db).Save(context.Background(), &domain.KnowledgeBase{
		UserID:         "u1",
		Classification: "work first",
		UpdatedAt:      time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMemoryKnowledgeBaseRepository(t *testing.T) {
	repo := NewMemoryKnowledgeBaseRepository()
	ctx := context.Background()

	kb, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, &domain.KnowledgeBase{UserID: "u1"}, kb)

	require.NoError(t, repo.Save(ctx, &domain.KnowledgeBase{UserID: "u1", Reply: "formal"}))
	kb, err = repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "formal", kb.Reply)

	kb.Reply = "mutated"
	again, err := repo.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "formal", again.Reply)
}
