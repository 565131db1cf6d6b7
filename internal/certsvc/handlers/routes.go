package handlers

import (
	"github.com/go-chi/chi"
)

func (h *Handler) SetRoutes(r *chi.Mux) {
	r.Get("/status", h.StatusHandler)
	r.Get("/", h.RootHandler)
	r.Post("/", h.EchoHandler)

	r.Get("/cert/{certId}", h.GetCertHandler)
	r.Post("/cert", h.CreateCertHandler)

	r.Post("/uploads", h.UploadHandler)

	r.Get("/certs/club/{event_club}", h.CertsByClubHandler)
	r.Get("/certs/club/{club_name}/event/{event_name}", h.CertsByClubAndEventHandler)
}
