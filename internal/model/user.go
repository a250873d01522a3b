package model

// User represents an account in the system.
type User struct {
	ID          UserID  `json:"id"`
	Email       Email   `json:"email"`
	DisplayName *string `json:"displayName,omitempty"`
}

// UserDisplay is the projection of a user that is safe to broadcast to
// other clients. It omits the email address.
type UserDisplay struct {
	ID          UserID  `json:"id"`
	DisplayName *string `json:"displayName,omitempty"`
}

// Display projects the user to its broadcast-safe subset.
func (u User) Display() UserDisplay {
	return UserDisplay{ID: u.ID, DisplayName: u.DisplayName}
}
