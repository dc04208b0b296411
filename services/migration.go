package services

import (
	"context"

	appContext "github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"

	"github.com/zevi-app/zevi_api/dto"
	"github.com/zevi-app/zevi_api/shared"
)

// MigrationService moves a guest's exported records onto an authenticated
// account. Delivery is at least once: the client may repost the same payload
// after a failure, and every target write is idempotent, so reruns only fill
// in whatever the previous attempt missed.
type MigrationService struct {
	appContext.DefaultService

	target MigrationTarget
}

const MIGRATION_SVC = "migration_svc"

func (svc MigrationService) Id() string {
	return MIGRATION_SVC
}

func (svc *MigrationService) Configure(ctx *appContext.Context) error {
	svc.target = ctx.Service(POSTGRES_SVC).(*PostgresService)
	return svc.DefaultService.Configure(ctx)
}

func (svc *MigrationService) Start() error {
	return nil
}

// MigrateGuestData re-keys the payload's records from the guest pseudonymous
// id to userID. Session ids assigned on the device stay canonical; a session
// already present on the server is skipped, and drafts keep whichever copy
// was updated last. Records not owned by the claimed guest id are dropped.
func (svc *MigrationService) MigrateGuestData(ctx context.Context, userID string, req dto.MigrateGuestDataRequest) (*dto.MigrateGuestDataResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, shared.NewBadRequestError(err, "Invalid migration payload")
	}

	resp := &dto.MigrateGuestDataResponse{}

	for i := range req.Sessions {
		session := req.Sessions[i]
		if session.UserID != req.GuestID || session.ID == "" || !shared.IsValidSessionType(session.SessionType) {
			resp.SessionsSkipped++
			continue
		}
		session.UserID = userID

		var inserted bool
		err := shared.Retry(ctx, remoteRetryAttempts, remoteRetryBaseDelay, func() error {
			ok, err := svc.target.InsertSessionIfAbsent(ctx, &session)
			if err != nil {
				return err
			}
			inserted = ok
			return nil
		})
		if err != nil {
			return nil, err
		}

		if inserted {
			resp.SessionsMigrated++
		} else {
			resp.SessionsSkipped++
		}
	}

	for i := range req.Drafts {
		draft := req.Drafts[i]
		if draft.UserID != req.GuestID || draft.QuestionID == "" {
			resp.DraftsSkipped++
			continue
		}
		draft.UserID = userID

		err := shared.Retry(ctx, remoteRetryAttempts, remoteRetryBaseDelay, func() error {
			return svc.target.UpsertDraftIfNewer(ctx, &draft)
		})
		if err != nil {
			return nil, err
		}
		resp.DraftsMigrated++
	}

	RecordMigration()
	log.WithFields(log.Fields{
		"user_id":           userID,
		"guest_id":          req.GuestID,
		"sessions_migrated": resp.SessionsMigrated,
		"sessions_skipped":  resp.SessionsSkipped,
		"drafts_migrated":   resp.DraftsMigrated,
		"drafts_skipped":    resp.DraftsSkipped,
	}).Info("Guest data migration completed")

	return resp, nil
}
