package user

import "workshopflow/internal/captcha"

type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	FullName     string `json:"fullName"`
	Role         Role   `json:"role"`
	PasswordHash string `json:"passwordHash"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

// LoginRequest carries the captcha answer alongside the credentials; the
// captcha is checked before the credentials are looked at.
type LoginRequest struct {
	Email         string `json:"email"`
	Password      string `json:"password"`
	Role          Role   `json:"role"`
	CaptchaID     string `json:"captcha_id"`
	CaptchaAnswer string `json:"captcha_answer"`
}

// Profile is the public view of a user.
type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
}

func (u *User) Profile() Profile {
	return Profile{ID: u.ID, Email: u.Email, FullName: u.FullName, Role: u.Role}
}

// LoginResult mirrors the auth collaborator's {success, message} contract.
// A failed attempt carries the challenge that replaced the one just used.
type LoginResult struct {
	Success     bool                       `json:"success"`
	Message     string                     `json:"message,omitempty"`
	AccessToken string                     `json:"access_token,omitempty"`
	User        *Profile                   `json:"user,omitempty"`
	Captcha     *captcha.ChallengeResponse `json:"captcha,omitempty"`
}
