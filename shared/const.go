package shared

const (
	IdentityKey = "identity"
	UserID      = "user_id"

	SessionTypeText  = "text"
	SessionTypeVoice = "voice"
	SessionTypeMCQ   = "mcq"

	GuestSessionsKey = "guest_sessions"
	GuestDraftsKey   = "guest_drafts"

	MaxQuestionLength     = 5000
	MaxUserAnswerLength   = 10000
	MaxExpertAnswerLength = 5000
	MaxRubricLength       = 5000
)

func IsValidSessionType(mode string) bool {
	switch mode {
	case SessionTypeText, SessionTypeVoice, SessionTypeMCQ:
		return true
	}
	return false
}
