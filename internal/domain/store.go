package domain

// Store is one tenant: an independent merchant account addressed via a DNS
// subdomain. Stores are created by platform operators out of band and are
// read-only from this service's perspective.
type Store struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
	IsActive  bool   `json:"is_active"`
}

// StoreMembership is one row of store_users: the link between an identity
// subject and the store it administers, with an assigned role.
type StoreMembership struct {
	UserID  string `json:"user_id"`
	StoreID int64  `json:"store_id"`
	Role    string `json:"role"`
	Store   *Store `json:"stores,omitempty"`
}

// StoreSettings is the tenant-facing appearance row, one per store.
type StoreSettings struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`
	Logo             string `json:"logo"`
	StoreDescription string `json:"store_description"`
	FacebookURL      string `json:"facebook_url"`
	InstagramURL     string `json:"instagram_url"`
	WhatsappURL      string `json:"whatsapp_url"`
	TiktokURL        string `json:"tiktok_url"`
	StoreID          int64  `json:"store_id"`
}

// AuthUser is the identity collaborator's session subject. Session absence is
// represented as a nil *AuthUser, not an error.
type AuthUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is the token pair returned by a password sign-in.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresIn    int       `json:"expires_in"`
	TokenType    string    `json:"token_type"`
	User         *AuthUser `json:"user,omitempty"`
}
