package payroll

import "context"

// ListNotifications returns notifications newest first. Admins see every
// inbox; employees see their own.
func (s *Service) ListNotifications(ctx context.Context, actor Actor) ([]Notification, error) {
	f := NotificationFilter{}
	if !actor.IsAdmin() {
		emp, err := s.actorEmployee(ctx, actor)
		if err != nil {
			return nil, err
		}
		f.EmployeeID = emp.ID
	}
	return s.store.ListNotifications(ctx, f)
}

// MarkNotificationRead flags a notification read. Marking twice is a no-op.
func (s *Service) MarkNotificationRead(ctx context.Context, actor Actor, id NotificationID) (*Notification, error) {
	n, err := s.store.GetNotification(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, &NotFoundError{Kind: "notification", ID: string(id)}
	}
	if err := s.canAccessEmployee(ctx, actor, n.EmployeeID, "read other employees' notifications"); err != nil {
		return nil, err
	}
	if n.IsRead {
		return n, nil
	}
	if err := s.store.MarkNotificationRead(ctx, id); err != nil {
		return nil, err
	}
	n.IsRead = true
	return n, nil
}
