package dto

// LoginRequest carries the teacher's username and PIN.
type LoginRequest struct {
	Username string `json:"username" validate:"required,min=2"`
	PIN      string `json:"pin" validate:"required,min=4"`
}

// LoginResponse returns the display name and bearer token on success.
type LoginResponse struct {
	TeacherName string `json:"teacherName"`
	Token       string `json:"token"`
}
