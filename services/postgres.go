package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/zevi-app/zevi_api/model"
	"github.com/zevi-app/zevi_api/shared"
)

// PostgresService is the authenticated-scope session store plus the question
// catalog and account tables.
type PostgresService struct {
	appContext.DefaultService
	db *gorm.DB

	database string
}

const POSTGRES_SVC = "postgres_svc"

func (ds PostgresService) Id() string {
	return POSTGRES_SVC
}

func (ds PostgresService) Db() *gorm.DB {
	return ds.db
}

func (ds *PostgresService) Configure(ctx *appContext.Context) error {
	ds.database = os.Getenv("DATABASE_URL")
	if ds.database == "" {
		host := envOr("DB_HOST", "localhost")
		port := envOr("DB_PORT", "5432")
		user := envOr("DB_USER", "postgres")
		password := envOr("DB_PASSWORD", "postgres")
		dbname := envOr("DB_NAME", "zevi_api")
		sslmode := envOr("DB_SSLMODE", "disable")
		timezone := envOr("DB_TIMEZONE", "UTC")

		ds.database = fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			host, user, password, dbname, port, sslmode, timezone)
	}

	return ds.DefaultService.Configure(ctx)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (ds *PostgresService) Start() (err error) {
	maxRetries := 10
	retryDelay := time.Second

	for attempt := 1; attempt <= maxRetries; attempt++ {
		log.Printf("Attempting to connect to database (attempt %d/%d)...", attempt, maxRetries)

		ds.db, err = gorm.Open(postgres.Open(ds.database), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Error),
		})

		if err == nil {
			sqlDB, dbErr := ds.db.DB()
			if dbErr == nil {
				if pingErr := sqlDB.Ping(); pingErr == nil {
					break
				} else {
					err = pingErr
				}
			} else {
				err = dbErr
			}
		}

		if attempt == maxRetries {
			log.Printf("Failed to connect to database after %d attempts: %v", maxRetries, err)
			return err
		}

		log.Printf("Database connection failed: %v. Retrying in %v...", err, retryDelay)
		time.Sleep(retryDelay)

		retryDelay *= 2
		if retryDelay > 10*time.Second {
			retryDelay = 10 * time.Second
		}
	}

	err = ds.db.AutoMigrate(
		&model.User{},
		&model.Question{},
		&model.PracticeSession{},
		&model.Draft{},
	)
	if err != nil {
		log.Printf("Failed to migrate database: %v", err)
		return err
	}

	log.Println("Database connected and migrated successfully")
	return nil
}

func (ds *PostgresService) Shutdown() {
	sqlDB, err := ds.db.DB()
	if err == nil {
		sqlDB.Close()
	}
}

// HandleError translates driver failures into the shared error taxonomy so
// callers can distinguish not-found, conflicts, transient outages and
// deadline overruns without touching gorm.
func (ds *PostgresService) HandleError(err error) error {
	if err == nil {
		return nil
	}

	var appErr error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		appErr = shared.NewNotFoundError(err, "Record not found")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		appErr = shared.NewConflictError(err, "Record already exists")
	case errors.Is(err, context.DeadlineExceeded):
		appErr = shared.NewTimeoutError(err, "Database call exceeded deadline")
	case strings.Contains(err.Error(), "duplicate key value violates unique constraint"):
		appErr = shared.NewConflictError(err, "Record already exists")
	case strings.Contains(err.Error(), "connection refused"),
		strings.Contains(err.Error(), "connection reset"),
		strings.Contains(err.Error(), "broken pipe"):
		appErr = shared.NewTransientError(err, "Database temporarily unavailable")
	default:
		appErr = shared.NewInternalError(err, "Database error")
	}

	entry := log.WithFields(log.Fields{"error": err.Error()})
	if ae, _ := shared.GetAppError(appErr); ae.StatusCode >= 500 {
		entry.Error("Database error occurred")
	} else {
		entry.Warn("Database operation failed")
	}

	return appErr
}

// ==================== SESSION STORE ====================

func (ds *PostgresService) AppendSession(ctx context.Context, session *model.PracticeSession) (string, error) {
	if session.ID == "" {
		id, _ := uuid.NewV7()
		session.ID = id.String()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	if err := ds.db.WithContext(ctx).Create(session).Error; err != nil {
		return "", ds.HandleError(err)
	}
	return session.ID, nil
}

func (ds *PostgresService) GetSession(ctx context.Context, id string) (*model.PracticeSession, error) {
	var session model.PracticeSession
	err := ds.db.WithContext(ctx).Where("id = ?", id).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return &session, nil
}

func (ds *PostgresService) UpdateSession(ctx context.Context, id string, patch model.SessionPatch) error {
	session, err := ds.GetSession(ctx, id)
	if err != nil {
		return err
	}
	if session == nil {
		return shared.NewNotFoundError(fmt.Errorf("session %s does not exist", id), "Session not found")
	}

	if err := patch.Apply(session); err != nil {
		return shared.NewInternalError(err, "Failed to merge session patch")
	}

	if err := ds.db.WithContext(ctx).Save(session).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) ListSessions(ctx context.Context, userID string, limit int) ([]model.PracticeSession, error) {
	var sessions []model.PracticeSession
	query := ds.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&sessions).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return sessions, nil
}

func (ds *PostgresService) ListQuestionSessions(ctx context.Context, userID, questionID string) ([]model.PracticeSession, error) {
	var sessions []model.PracticeSession
	if err := ds.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Order("created_at DESC").Find(&sessions).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return sessions, nil
}

func (ds *PostgresService) UpsertDraft(ctx context.Context, userID, questionID, draftText string) error {
	now := time.Now()

	var existing model.Draft
	err := ds.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&existing).Error

	if err == nil {
		existing.DraftText = draftText
		existing.UpdatedAt = now
		if err := ds.db.WithContext(ctx).Save(&existing).Error; err != nil {
			return ds.HandleError(err)
		}
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return ds.HandleError(err)
	}

	id, _ := uuid.NewV7()
	draft := model.Draft{
		ID:         id.String(),
		UserID:     userID,
		QuestionID: questionID,
		DraftText:  draftText,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := ds.db.WithContext(ctx).Create(&draft).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) GetDraft(ctx context.Context, userID, questionID string) (*model.Draft, error) {
	var draft model.Draft
	err := ds.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		First(&draft).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return &draft, nil
}

func (ds *PostgresService) DeleteDraft(ctx context.Context, userID, questionID string) error {
	if err := ds.db.WithContext(ctx).
		Where("user_id = ? AND question_id = ?", userID, questionID).
		Delete(&model.Draft{}).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) ListDrafts(ctx context.Context, userID string) ([]model.Draft, error) {
	var drafts []model.Draft
	if err := ds.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").Find(&drafts).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return drafts, nil
}

// ==================== MIGRATION TARGET WRITES ====================

// InsertSessionIfAbsent keeps the guest-assigned id as canonical and ignores
// resubmissions, which makes the migration safe to re-run after a partial
// failure. Returns true when the row was inserted.
func (ds *PostgresService) InsertSessionIfAbsent(ctx context.Context, session *model.PracticeSession) (bool, error) {
	result := ds.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(session)
	if result.Error != nil {
		return false, ds.HandleError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// UpsertDraftIfNewer keeps whichever draft was touched last, so re-running a
// migration never rolls a draft back.
func (ds *PostgresService) UpsertDraftIfNewer(ctx context.Context, draft *model.Draft) error {
	existing, err := ds.GetDraft(ctx, draft.UserID, draft.QuestionID)
	if err != nil {
		return err
	}
	if existing != nil && !draft.UpdatedAt.After(existing.UpdatedAt) {
		return nil
	}
	return ds.UpsertDraft(ctx, draft.UserID, draft.QuestionID, draft.DraftText)
}

// ==================== QUESTION CATALOG ====================

func (ds *PostgresService) GetQuestion(ctx context.Context, id string) (*model.Question, error) {
	var question model.Question
	err := ds.db.WithContext(ctx).Where("id = ?", id).First(&question).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, ds.HandleError(err)
	}
	return &question, nil
}

func (ds *PostgresService) GetQuestions(ctx context.Context, category, difficulty string, limit int) ([]model.Question, error) {
	var questions []model.Question
	query := ds.db.WithContext(ctx).Model(&model.Question{}).Where("is_active = ?", true)
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if difficulty != "" {
		query = query.Where("difficulty = ?", difficulty)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Order("created_at ASC").Find(&questions).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return questions, nil
}

// ==================== USER METHODS ====================

func (ds *PostgresService) CreateUser(ctx context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = time.Now()

	if err := ds.db.WithContext(ctx).Create(user).Error; err != nil {
		return ds.HandleError(err)
	}
	return nil
}

func (ds *PostgresService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	if err := ds.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}

func (ds *PostgresService) GetUserByID(ctx context.Context, userID string) (*model.User, error) {
	var user model.User
	if err := ds.db.WithContext(ctx).Where("id = ?", userID).First(&user).Error; err != nil {
		return nil, ds.HandleError(err)
	}
	return &user, nil
}
