package services

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/zevi-app/zevi_api/model"
	"github.com/zevi-app/zevi_api/shared"
)

// LocalStoreService is the guest-scope session store: two JSON collections
// behind a key-value handle, mirroring the device's AsyncStorage layout. Every
// operation is a read-modify-write of the whole owning collection.
type LocalStoreService struct {
	appContext.DefaultService

	kv KeyValueStore
	mu sync.Mutex
}

const LOCAL_STORE_SVC = "local_store_svc"

// Id uses a pointer receiver: a value receiver would copy the embedded mutex.
func (svc *LocalStoreService) Id() string {
	return LOCAL_STORE_SVC
}

func (svc *LocalStoreService) Configure(ctx *appContext.Context) error {
	if svc.kv == nil {
		dir := os.Getenv("GUEST_STORE_DIR")
		if dir == "" {
			dir = ".zevi_guest_store"
		}
		kv, err := NewFileKeyValueStore(dir)
		if err != nil {
			return fmt.Errorf("failed to open guest store dir %s: %w", dir, err)
		}
		svc.kv = kv
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *LocalStoreService) Start() error {
	return nil
}

// NewLocalStore builds a store around an injected key-value handle. Used by
// tests and the guest flow simulation; the service container path configures
// the file-backed handle instead.
func NewLocalStore(kv KeyValueStore) *LocalStoreService {
	return &LocalStoreService{kv: kv}
}

func (svc *LocalStoreService) loadSessions() ([]model.PracticeSession, error) {
	var sessions []model.PracticeSession
	if err := svc.loadCollection(shared.GuestSessionsKey, &sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (svc *LocalStoreService) loadDrafts() ([]model.Draft, error) {
	var drafts []model.Draft
	if err := svc.loadCollection(shared.GuestDraftsKey, &drafts); err != nil {
		return nil, err
	}
	return drafts, nil
}

func (svc *LocalStoreService) loadCollection(key string, dest interface{}) error {
	stored, err := svc.kv.GetItem(key)
	if err != nil {
		return shared.NewInternalError(err, "Failed to read guest store")
	}
	if stored == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(stored), dest); err != nil {
		return shared.NewInternalError(err, "Corrupt guest store collection")
	}
	return nil
}

func (svc *LocalStoreService) saveCollection(key string, collection interface{}) error {
	data, err := json.Marshal(collection)
	if err != nil {
		return shared.NewInternalError(err, "Failed to encode guest store collection")
	}
	if err := svc.kv.SetItem(key, string(data)); err != nil {
		return shared.NewInternalError(err, "Failed to write guest store")
	}
	return nil
}

func (svc *LocalStoreService) AppendSession(_ context.Context, session *model.PracticeSession) (string, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sessions, err := svc.loadSessions()
	if err != nil {
		return "", err
	}

	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	sessions = append(sessions, *session)
	if err := svc.saveCollection(shared.GuestSessionsKey, sessions); err != nil {
		return "", err
	}
	return session.ID, nil
}

func (svc *LocalStoreService) GetSession(_ context.Context, id string) (*model.PracticeSession, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sessions, err := svc.loadSessions()
	if err != nil {
		return nil, err
	}
	for i := range sessions {
		if sessions[i].ID == id {
			s := sessions[i]
			return &s, nil
		}
	}
	return nil, nil
}

func (svc *LocalStoreService) UpdateSession(_ context.Context, id string, patch model.SessionPatch) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sessions, err := svc.loadSessions()
	if err != nil {
		return err
	}

	index := -1
	for i := range sessions {
		if sessions[i].ID == id {
			index = i
			break
		}
	}
	if index == -1 {
		return shared.NewNotFoundError(fmt.Errorf("session %s not in guest store", id), "Session not found")
	}

	if err := patch.Apply(&sessions[index]); err != nil {
		return shared.NewInternalError(err, "Failed to merge session patch")
	}
	return svc.saveCollection(shared.GuestSessionsKey, sessions)
}

func (svc *LocalStoreService) ListSessions(_ context.Context, userID string, limit int) ([]model.PracticeSession, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sessions, err := svc.loadSessions()
	if err != nil {
		return nil, err
	}

	var owned []model.PracticeSession
	for _, s := range sessions {
		if s.UserID == userID {
			owned = append(owned, s)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].CreatedAt.After(owned[j].CreatedAt)
	})
	if limit > 0 && len(owned) > limit {
		owned = owned[:limit]
	}
	return owned, nil
}

func (svc *LocalStoreService) ListQuestionSessions(_ context.Context, userID, questionID string) ([]model.PracticeSession, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sessions, err := svc.loadSessions()
	if err != nil {
		return nil, err
	}

	var matched []model.PracticeSession
	for _, s := range sessions {
		if s.UserID == userID && s.QuestionID == questionID {
			matched = append(matched, s)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

func (svc *LocalStoreService) UpsertDraft(_ context.Context, userID, questionID, draftText string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	drafts, err := svc.loadDrafts()
	if err != nil {
		return err
	}

	now := time.Now()
	for i := range drafts {
		if drafts[i].UserID == userID && drafts[i].QuestionID == questionID {
			drafts[i].DraftText = draftText
			drafts[i].UpdatedAt = now
			return svc.saveCollection(shared.GuestDraftsKey, drafts)
		}
	}

	drafts = append(drafts, model.Draft{
		ID:         uuid.New().String(),
		UserID:     userID,
		QuestionID: questionID,
		DraftText:  draftText,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	return svc.saveCollection(shared.GuestDraftsKey, drafts)
}

func (svc *LocalStoreService) GetDraft(_ context.Context, userID, questionID string) (*model.Draft, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	drafts, err := svc.loadDrafts()
	if err != nil {
		return nil, err
	}
	for i := range drafts {
		if drafts[i].UserID == userID && drafts[i].QuestionID == questionID {
			d := drafts[i]
			return &d, nil
		}
	}
	return nil, nil
}

func (svc *LocalStoreService) DeleteDraft(_ context.Context, userID, questionID string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	drafts, err := svc.loadDrafts()
	if err != nil {
		return err
	}

	kept := drafts[:0]
	for _, d := range drafts {
		if d.UserID == userID && d.QuestionID == questionID {
			continue
		}
		kept = append(kept, d)
	}
	if len(kept) == len(drafts) {
		// Deleting an absent draft is a no-op so submit stays idempotent.
		return nil
	}
	return svc.saveCollection(shared.GuestDraftsKey, kept)
}

func (svc *LocalStoreService) ListDrafts(_ context.Context, userID string) ([]model.Draft, error) {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	drafts, err := svc.loadDrafts()
	if err != nil {
		return nil, err
	}

	var owned []model.Draft
	for _, d := range drafts {
		if d.UserID == userID {
			owned = append(owned, d)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
	})
	return owned, nil
}

// ExportUserData snapshots a guest's records for account migration.
func (svc *LocalStoreService) ExportUserData(ctx context.Context, userID string) ([]model.PracticeSession, []model.Draft, error) {
	sessions, err := svc.ListSessions(ctx, userID, 0)
	if err != nil {
		return nil, nil, err
	}
	drafts, err := svc.ListDrafts(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return sessions, drafts, nil
}

// RemoveUserData drops a guest's records after a confirmed migration.
func (svc *LocalStoreService) RemoveUserData(_ context.Context, userID string) error {
	svc.mu.Lock()
	defer svc.mu.Unlock()

	sessions, err := svc.loadSessions()
	if err != nil {
		return err
	}
	keptSessions := sessions[:0]
	for _, s := range sessions {
		if s.UserID != userID {
			keptSessions = append(keptSessions, s)
		}
	}
	if err := svc.saveCollection(shared.GuestSessionsKey, keptSessions); err != nil {
		return err
	}

	drafts, err := svc.loadDrafts()
	if err != nil {
		return err
	}
	keptDrafts := drafts[:0]
	for _, d := range drafts {
		if d.UserID != userID {
			keptDrafts = append(keptDrafts, d)
		}
	}
	if err := svc.saveCollection(shared.GuestDraftsKey, keptDrafts); err != nil {
		return err
	}

	log.WithField("user_id", userID).Info("Removed guest data after migration")
	return nil
}
