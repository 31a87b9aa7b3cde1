package student

import "campushub/models"

// StudentService handles account registration, authentication and lookup.
type StudentService interface {
	Register(reg models.StudentRegistration) (*models.AuthResponse, error)
	Authenticate(email, password string) (*models.AuthResponse, error)
	GetStudentByID(id string) (*models.Student, error)
	UpdateFCMToken(id, token string) error
}
