package models

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

type UnknownUser struct {
	Login    *string `json:"login"`
	Password *string `json:"password"`
	Role     *Role   `json:"role,omitempty"`
}

type User struct {
	ID    string
	Login string
	Hash  string
	Role  Role
}
