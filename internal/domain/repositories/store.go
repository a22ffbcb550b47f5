package repositories

import "context"

// Store groups the repositories of one storage backend together with the
// handle that releases its connections.
type Store struct {
	Users         UserRepository
	Patients      PatientRepository
	Doctors       DoctorRepository
	Appointments  AppointmentRepository
	Chats         ChatRepository
	Notifications NotificationRepository
	Ratings       RatingRepository

	closeFn func(ctx context.Context) error
}

// SetCloser registers the function Close delegates to
func (s *Store) SetCloser(fn func(ctx context.Context) error) {
	s.closeFn = fn
}

// Close releases the backend's connections
func (s *Store) Close(ctx context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}
