package notification

import (
	"context"
	"fmt"

	"campushub/services/student"
	"campushub/utils"

	"firebase.google.com/go/v4/messaging"
)

// NotificationService defines methods for sending FCM pushes.
type NotificationService interface {
	SendStudentPush(ctx context.Context, studentID, title, body string, data map[string]string) error
}

// DefaultNotificationService is the production implementation.
type DefaultNotificationService struct {
	Students student.StudentService
}

// SendStudentPush looks up a student's FCM token and sends a push.
func (s *DefaultNotificationService) SendStudentPush(ctx context.Context, studentID, title, body string, data map[string]string) error {
	if utils.FCMClient == nil {
		return fmt.Errorf("push notifications are not configured")
	}

	st, err := s.Students.GetStudentByID(studentID)
	if err != nil {
		return fmt.Errorf("could not find student %s: %w", studentID, err)
	}
	if st.FCMToken == "" {
		return fmt.Errorf("student %s has no FCM token", studentID)
	}

	msg := &messaging.Message{
		Token: st.FCMToken,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
	}
	if _, err := utils.FCMClient.Send(ctx, msg); err != nil {
		return fmt.Errorf("failed to send FCM message: %w", err)
	}
	return nil
}
