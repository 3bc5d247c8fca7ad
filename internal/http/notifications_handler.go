package http

import "net/http"

type NotificationsHandler struct {
	feed ToastFeed
}

func NewNotificationsHandler(feed ToastFeed) *NotificationsHandler {
	return &NotificationsHandler{feed: feed}
}

// GET /notifications
// Toasts are delivered once; reading the feed empties it.
func (h *NotificationsHandler) Drain(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.feed.Drain())
}
