package handlers

import (
	"net/http"

	"github.com/Ola-toyosi/kenkeputa-ecommerce/internal/notify"
)

type NoticesHandler struct{ feed *notify.Feed }

func NewNoticesHandler(feed *notify.Feed) *NoticesHandler { return &NoticesHandler{feed: feed} }

// List returns recent notices. With ?drain=true they are also removed, so
// a renderer polling this endpoint shows each notice once.
func (h *NoticesHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("drain") == "true" {
		writeJSON(w, http.StatusOK, h.feed.Drain())
		return
	}
	writeJSON(w, http.StatusOK, h.feed.Recent())
}
