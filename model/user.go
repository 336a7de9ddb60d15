package model

import "time"

// Roles a user can hold. A user's role is fixed at registration; there is
// deliberately no role-change endpoint.
const (
	RoleArtist = "artist"
	RoleAdmin  = "admin"
)

// Account statuses. Admins can toggle a user between them.
const (
	UserStatusActive   = "active"
	UserStatusInactive = "inactive"
)

// User represents a user in the system.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // not exposed in API responses
	DisplayName  string    `json:"displayName"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`

	// Artist-only profile fields.
	ArtistName  string            `json:"artistName,omitempty"`
	Bio         string            `json:"bio,omitempty"`
	SocialMedia map[string]string `json:"socialMedia,omitempty"`

	// Admin-only fields.
	Permissions []string `json:"permissions,omitempty"`
	IsActive    bool     `json:"isActive,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	LastLogin time.Time `json:"lastLogin,omitempty"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// PublicProfile trims a user down to the fields its role exposes over the API.
func (u *User) PublicProfile() map[string]interface{} {
	profile := map[string]interface{}{
		"id":          u.ID,
		"email":       u.Email,
		"displayName": u.DisplayName,
		"role":        u.Role,
		"status":      u.Status,
	}
	if u.Phone != "" {
		profile["phone"] = u.Phone
	}
	switch u.Role {
	case RoleArtist:
		profile["artistName"] = u.ArtistName
		profile["bio"] = u.Bio
		profile["socialMedia"] = u.SocialMedia
	case RoleAdmin:
		profile["permissions"] = u.Permissions
		profile["isActive"] = u.IsActive
	}
	return profile
}

// RegisterArtistRequest is the artist registration request body.
type RegisterArtistRequest struct {
	Email       string            `json:"email"`
	Password    string            `json:"password"`
	DisplayName string            `json:"displayName"`
	Phone       string            `json:"phoneNumber"`
	ArtistName  string            `json:"artistName"`
	Bio         string            `json:"bio"`
	SocialMedia map[string]string `json:"socialMedia"`
}

// RegisterAdminRequest is the admin registration request body.
type RegisterAdminRequest struct {
	Email       string   `json:"email"`
	Password    string   `json:"password"`
	DisplayName string   `json:"displayName"`
	Phone       string   `json:"phoneNumber"`
	Permissions []string `json:"permissions"`
}

// UpdateProfileRequest carries the mutable profile fields. Artist-specific
// fields are ignored for admins.
type UpdateProfileRequest struct {
	DisplayName string            `json:"displayName"`
	Phone       string            `json:"phoneNumber"`
	Bio         *string           `json:"bio"`
	SocialMedia map[string]string `json:"socialMedia"`
}
