package internal

import (
	"net/http"

	"gadget-inventory-api/internal/models"
)

func (s *Server) listNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.Notifications.List(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) listUnreadNotifications(w http.ResponseWriter, r *http.Request) {
	list, err := s.Notifications.ListUnread(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) createNotification(w http.ResponseWriter, r *http.Request) {
	var req models.CreateNotificationRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	n, err := s.Notifications.Create(r.Context(), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

// markNotificationRead is idempotent and succeeds for unknown ids too.
func (s *Server) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.Notifications.MarkRead(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true})
}

func (s *Server) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	n, err := s.Notifications.MarkAllRead(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.SuccessResponse{Success: true, Updated: n})
}

func (s *Server) generateWarranty(w http.ResponseWriter, r *http.Request) {
	res, err := s.Notifier.GenerateWarrantyNotifications(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Metrics.RecordGenerated(models.NotificationWarrantyExpiring, res.Created)
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) generateRepair(w http.ResponseWriter, r *http.Request) {
	res, err := s.Notifier.GenerateRepairReminders(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.Metrics.RecordGenerated(models.NotificationRepairReminder, res.Created)
	writeJSON(w, http.StatusOK, res)
}
