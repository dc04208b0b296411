package dto

import "github.com/zevi-app/zevi_api/model"

// MigrateGuestDataRequest carries the device-exported guest collections. The
// client reads its local store and posts the raw records; the server re-keys
// them to the authenticated account.
type MigrateGuestDataRequest struct {
	GuestID  string                  `json:"guest_id" validate:"required,uuid4"`
	Sessions []model.PracticeSession `json:"sessions" validate:"dive"`
	Drafts   []model.Draft           `json:"drafts" validate:"dive"`
}

func (m MigrateGuestDataRequest) Validate() error {
	return GetValidator().Struct(m)
}

type MigrateGuestDataResponse struct {
	SessionsMigrated int `json:"sessions_migrated"`
	SessionsSkipped  int `json:"sessions_skipped"`
	DraftsMigrated   int `json:"drafts_migrated"`
	DraftsSkipped    int `json:"drafts_skipped"`
}
