package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"vox.town/telegram"
)

// Serve runs the webhook HTTP server. Each webhook POST is one
// pipeline invocation, bounded by budget.
func Serve(
	port int,
	ingress *telegram.Ingress,
	webhookSecret string,
	budget time.Duration,
) error {
	r := Router(ingress, webhookSecret, budget)
	log.Info("http", "url", fmt.Sprintf("http://localhost:%d", port))
	return http.ListenAndServe(fmt.Sprintf(":%d", port), r)
}

// Router builds the webhook routes: health, metrics, and the Telegram
// webhook endpoint.
func Router(
	ingress *telegram.Ingress,
	webhookSecret string,
	budget time.Duration,
) chi.Router {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if webhookSecret != "" &&
			r.Header.Get("X-Telegram-Bot-Api-Secret-Token") != webhookSecret {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}

		var update tgbotapi.Update
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			http.Error(w, "bad update payload", http.StatusBadRequest)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), budget)
		defer cancel()
		ingress.HandleUpdate(ctx, update)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	})

	return r
}
