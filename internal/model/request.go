package model

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type ShareRequest struct {
	Users      []string `json:"users"`
	Permission string   `json:"permission"`
}

type ShareLinkRequest struct {
	// ExpiresIn is a relative expiry in seconds from now; zero or absent
	// means the link never expires.
	ExpiresIn int64 `json:"expiresIn"`
}

type UploadFailure struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

type UploadResponse struct {
	Uploaded []File          `json:"uploaded"`
	Failed   []UploadFailure `json:"failed"`
}

type UserListData struct {
	Users []PublicUser `json:"users"`
	Total int          `json:"total"`
}
