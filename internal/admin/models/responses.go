package models

import "time"

// AdminResponse is the public view of an administrator. The password hash
// has no field here so it can never be serialized.
type AdminResponse struct {
	ID          string     `json:"id"`
	TenantUUID  string     `json:"tenantUuid"`
	Email       string     `json:"email"`
	Name        string     `json:"name"`
	IsActive    bool       `json:"isActive"`
	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func ToAdminResponse(a *Admin) AdminResponse {
	return AdminResponse{
		ID:          a.ID.String(),
		TenantUUID:  a.TenantID.String(),
		Email:       a.Email,
		Name:        a.Name,
		IsActive:    a.Active,
		LastLoginAt: a.LastLoginAt,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

func ToAdminResponses(admins []*Admin) []AdminResponse {
	out := make([]AdminResponse, 0, len(admins))
	for _, a := range admins {
		out = append(out, ToAdminResponse(a))
	}
	return out
}
