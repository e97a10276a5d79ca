package dto

// LoginRequest is the login form.
type LoginRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
}

// RegisterUserRequest is the self-registration form.
type RegisterUserRequest struct {
	Username string `form:"username" json:"username"`
	Password string `form:"password" json:"password"`
	Email    string `form:"email" json:"email"`
}

// EditUserRequest is the admin edit form. Every field is required.
type EditUserRequest struct {
	Username    string `form:"username" json:"username"`
	NewName     string `form:"new_name" json:"new_name"`
	NewEmail    string `form:"new_email" json:"new_email"`
	NewPassword string `form:"new_password" json:"new_password"`
}

// UserSummary is an account as shown on the admin page.
type UserSummary struct {
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}
