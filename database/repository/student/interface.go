package studentRepo

import "campushub/models"

// StudentRepository defines persistence for student and staff accounts.
type StudentRepository interface {
	Create(student *models.Student) error
	Update(student *models.Student) error
	GetByID(id string) (*models.Student, error)
	GetByEmail(email string) (*models.Student, error)
}
