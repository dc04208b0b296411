// Command simulate walks the guest practice flow end to end against an
// in-memory store: create a session, save and overwrite a draft, submit the
// final answer, then read everything back.
package main

import (
	"context"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/zevi-app/zevi_api/model"
	"github.com/zevi-app/zevi_api/services"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx := context.Background()
	store := services.NewLocalStore(services.NewMemoryKeyValueStore())

	guestID := uuid.New().String()
	questionID := "q123"

	log.Info().Str("guest_id", guestID).Msg("Simulating guest practice flow")

	sessionID, err := store.AppendSession(ctx, &model.PracticeSession{
		UserID:      guestID,
		QuestionID:  questionID,
		SessionType: "text",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create session")
	}
	log.Info().Str("session_id", sessionID).Msg("Session created")

	if err := store.UpsertDraft(ctx, guestID, questionID, "My draft answer..."); err != nil {
		log.Fatal().Err(err).Msg("Failed to save draft")
	}
	if err := store.UpsertDraft(ctx, guestID, questionID, "My updated answer..."); err != nil {
		log.Fatal().Err(err).Msg("Failed to overwrite draft")
	}

	draft, err := store.GetDraft(ctx, guestID, questionID)
	if err != nil || draft == nil {
		log.Fatal().Err(err).Msg("Failed to read draft back")
	}
	log.Info().Str("draft_text", draft.DraftText).Msg("Draft read back")

	answer := "Final Answer"
	timeSpent := 120
	completed := true
	err = store.UpdateSession(ctx, sessionID, model.SessionPatch{
		UserAnswer:       &answer,
		TimeSpentSeconds: &timeSpent,
		Completed:        &completed,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to submit answer")
	}
	if err := store.DeleteDraft(ctx, guestID, questionID); err != nil {
		log.Fatal().Err(err).Msg("Failed to clear draft")
	}

	final, err := store.GetSession(ctx, sessionID)
	if err != nil || final == nil {
		log.Fatal().Err(err).Msg("Failed to read session back")
	}

	log.Info().
		Bool("completed", final.Completed).
		Str("user_answer", *final.UserAnswer).
		Int("time_spent_seconds", final.TimeSpentSeconds).
		Msg("Guest flow complete")
}
