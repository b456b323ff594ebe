package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campushq/sis-api/pkg/jobs"
)

// Notification event kinds.
const (
	EventEnrollmentAdmitted = "enrollment.admitted"
	EventEnrollmentDropped  = "enrollment.dropped"
	EventGradeFinalized     = "grade.finalized"
)

// EnrollmentEvent is the payload for enrollment lifecycle notifications.
type EnrollmentEvent struct {
	EnrollmentID string `json:"enrollment_id"`
	StudentID    string `json:"student_id"`
	SectionID    string `json:"section_id"`
}

// GradeEvent is the payload for grade finalization notifications.
type GradeEvent struct {
	EnrollmentID string `json:"enrollment_id"`
	StudentID    string `json:"student_id"`
	Grade        string `json:"grade"`
}

// NotificationService fans out advisory events about enrollment and grading
// outcomes. Delivery is best-effort; a dropped event never fails the
// operation that produced it.
type NotificationService struct {
	queue  *jobs.Queue
	logger *zap.Logger
}

// NewNotificationService builds the service and its backing queue.
func NewNotificationService(workers, bufferSize int, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{logger: logger}
	s.queue = jobs.NewQueue("notifications", s.dispatch, jobs.QueueConfig{
		Workers:    workers,
		BufferSize: bufferSize,
		Logger:     logger,
	})
	return s
}

// Start begins consuming events.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the worker pool.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// EnrollmentAdmitted announces a successful enrollment.
func (s *NotificationService) EnrollmentAdmitted(enrollmentID, studentID, sectionID string) {
	s.enqueue(EventEnrollmentAdmitted, EnrollmentEvent{EnrollmentID: enrollmentID, StudentID: studentID, SectionID: sectionID})
}

// EnrollmentDropped announces a dropped enrollment.
func (s *NotificationService) EnrollmentDropped(enrollmentID, studentID, sectionID string) {
	s.enqueue(EventEnrollmentDropped, EnrollmentEvent{EnrollmentID: enrollmentID, StudentID: studentID, SectionID: sectionID})
}

// GradeFinalized announces a finalized grade.
func (s *NotificationService) GradeFinalized(enrollmentID, studentID, grade string) {
	s.enqueue(EventGradeFinalized, GradeEvent{EnrollmentID: enrollmentID, StudentID: studentID, Grade: grade})
}

func (s *NotificationService) enqueue(kind string, payload interface{}) {
	if s == nil || s.queue == nil {
		return
	}
	// Enqueue errors are already logged by the queue.
	_ = s.queue.Enqueue(jobs.Event{ID: uuid.NewString(), Kind: kind, Payload: payload})
}

// dispatch is the delivery handler. Actual transport (email, push) is owned
// by a downstream system; here the event is recorded for it to pick up.
func (s *NotificationService) dispatch(_ context.Context, event jobs.Event) error {
	s.logger.Info("notification dispatched",
		zap.String("event_id", event.ID),
		zap.String("kind", event.Kind),
		zap.Any("payload", event.Payload),
		zap.Time("enqueued", event.Enqueued))
	return nil
}
