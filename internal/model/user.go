package model

// AccessToken is the payload carried in the caller's JWT. Issuing tokens
// is the identity collaborator's concern; this backend only verifies them
// to resolve the request user.
type AccessToken struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

type User struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Points uint64 `json:"points"`
}
