package auth

// Identity is a person's account as seen by the authentication layer.
type Identity struct {
	ID           int64
	Email        string
	PasswordHash string
	EmployeeID   string
	Name         string
	Role         string
	OrgID        *int64
}
