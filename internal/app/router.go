package app

import (
	"github.com/go-chi/chi/v5"

	payouthandler "github.com/koyif/payouts/internal/handler/payout"
)

func (app *App) Router() *chi.Mux {
	r := chi.NewRouter()

	payoutHandler := payouthandler.New(app.payouts)

	r.Route("/api/payouts", func(r chi.Router) {
		r.Post("/", payoutHandler.CreatePayout)
		r.Get("/", payoutHandler.ListPayouts)
		r.Get("/{payoutID}", payoutHandler.GetPayout)
		r.Patch("/{payoutID}", payoutHandler.UpdatePayout)
		r.Delete("/{payoutID}", payoutHandler.DeletePayout)
	})

	return r
}
