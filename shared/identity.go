package shared

// Identity is the resolved actor for a request. Guest identities carry a
// device-generated pseudo-id; authenticated identities carry the account id.
type Identity struct {
	UserID string
	Guest  bool
}

func GuestIdentity(pseudoID string) Identity {
	return Identity{UserID: pseudoID, Guest: true}
}

func AuthenticatedIdentity(userID string) Identity {
	return Identity{UserID: userID}
}
