package users

// Employee is a directory entry: the full profile of an identity as managed
// by the employee and their organization's admins.
type Employee struct {
	ID             int64   `json:"id"`
	Email          string  `json:"email"`
	EmployeeID     string  `json:"employeeId"`
	Name           string  `json:"name"`
	Department     string  `json:"department,omitempty"`
	JobTitle       string  `json:"jobTitle,omitempty"`
	EmploymentType string  `json:"employmentType,omitempty"`
	Salary         float64 `json:"salary,omitempty"`
	Role           string  `json:"role"`
	OrgID          *int64  `json:"orgId,omitempty"`
}

// ProfileUpdate carries a partial profile mutation; nil fields are left
// untouched.
type ProfileUpdate struct {
	Name           *string  `json:"name"`
	EmployeeID     *string  `json:"employeeId"`
	Department     *string  `json:"department"`
	JobTitle       *string  `json:"jobTitle"`
	EmploymentType *string  `json:"employmentType"`
	Salary         *float64 `json:"salary"`
}
