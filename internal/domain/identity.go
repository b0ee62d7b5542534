package domain

// Identity is what the identity provider vouches for: a stable user id and a
// display name.
type Identity struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
}
