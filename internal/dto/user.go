package dto

import "github.com/otero-ediciones/lms-api/internal/models"

// ProfileView exposes the editable profile attributes.
type ProfileView struct {
	Phone             string `json:"phone"`
	PhotoURL          string `json:"photo_url"`
	PublicDescription string `json:"public_description"`
	PublicSubjects    string `json:"public_subjects"`
}

// CurrentUserView is the /users/me projection.
type CurrentUserView struct {
	ID        string          `json:"id"`
	Email     string          `json:"email"`
	Username  string          `json:"username"`
	FirstName string          `json:"first_name"`
	LastName  string          `json:"last_name"`
	Role      models.UserRole `json:"role"`
	Profile   ProfileView     `json:"profile"`
}

// TeacherPublicView is the unauthenticated landing-page projection:
// display name and public profile fields only.
type TeacherPublicView struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Profile ProfileView `json:"profile"`
}

// NewProfileView projects a profile; a nil profile becomes zero values.
func NewProfileView(p *models.Profile) ProfileView {
	if p == nil {
		return ProfileView{}
	}
	return ProfileView{
		Phone:             p.Phone,
		PhotoURL:          p.PhotoURL,
		PublicDescription: p.PublicDescription,
		PublicSubjects:    p.PublicSubjects,
	}
}

// NewCurrentUserView projects a user with its profile.
func NewCurrentUserView(u *models.User, p *models.Profile) CurrentUserView {
	return CurrentUserView{
		ID:        u.ID,
		Email:     u.Email,
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
		Profile:   NewProfileView(p),
	}
}

// NewTeacherPublicView projects a teacher for the public listing. The
// display name falls back to the username when the full name is blank.
func NewTeacherPublicView(u models.User, p *models.Profile) TeacherPublicView {
	name := u.FullName()
	if name == "" {
		name = u.Username
	}
	view := TeacherPublicView{ID: u.ID, Name: name}
	if p != nil {
		view.Profile = ProfileView{
			PhotoURL:          p.PhotoURL,
			PublicDescription: p.PublicDescription,
			PublicSubjects:    p.PublicSubjects,
		}
	}
	return view
}
