package models

// Role identifies the kind of actor a session belongs to. The backend is
// the source of truth for a user's role; this tier only routes on it.
type Role string

const (
	RoleClient       Role = "client"
	RoleMainAdmin    Role = "main-admin"
	RoleReceptionist Role = "receptionist"
)

// Valid reports whether r is one of the three known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleClient, RoleMainAdmin, RoleReceptionist:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// DashboardPath returns the landing route for the role.
func (r Role) DashboardPath() string {
	switch r {
	case RoleClient:
		return "/client/dashboard"
	case RoleMainAdmin:
		return "/admin/main"
	case RoleReceptionist:
		return "/admin/reception"
	}
	return "/login/client"
}

// User as returned by the backend API.
type User struct {
	ID    string `json:"_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// BookingUser is the owner summary embedded in a booking record.
type BookingUser struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Booking is an appointment record owned by the backend. Status mutations go
// through PATCH calls; this tier never invents state the backend has not
// confirmed.
type Booking struct {
	ID     string       `json:"_id"`
	User   *BookingUser `json:"user,omitempty"`
	Date   string       `json:"date"`
	Time   string       `json:"time"`
	Status string       `json:"status"`
	Doctor string       `json:"doctor,omitempty"`
}
