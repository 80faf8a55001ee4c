package models

// SessionEntry associates a refresh token with the user it was minted for and
// the access token most recently issued against it. Stored in the session
// store under the refresh token itself.
type SessionEntry struct {
	Username    string `json:"username"`
	AccessToken string `json:"accessToken"`
}
