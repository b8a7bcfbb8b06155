package auth

// User represents a registered account
type User struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"-"`
	CreatedAt    int64  `json:"created_at"`
}

// Identity is the authenticated principal attached to a request.
// A nil *Identity means the caller is anonymous.
type Identity struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// CredentialsForm is the form payload for both signup and login
type CredentialsForm struct {
	Username string `form:"username"`
	Password string `form:"password"`
}
