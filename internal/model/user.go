package model

// User is an operator account. Passwords are stored as bcrypt hashes
// only.
type User struct {
	ID           string `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"` // admin | operator | viewer
}

// AuthUser is the API-facing view of a user, without the hash.
type AuthUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// TokenPair is returned on login and refresh.
type TokenPair struct {
	AccessToken  string   `json:"access_token"`
	RefreshToken string   `json:"refresh_token"`
	TokenType    string   `json:"token_type"`
	ExpiresIn    int64    `json:"expires_in"`
	User         AuthUser `json:"user"`
}

// AuthClaims are the validated JWT claims attached to a request.
type AuthClaims struct {
	UserID   string
	Username string
	Role     string
	TokenID  string
	Type     string // access | refresh
}

// Actor identifies who triggered an audited operation.
type Actor struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	Role     string `json:"role,omitempty"`
	IP       string `json:"ip,omitempty"`
}
