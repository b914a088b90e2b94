package routes

import (
	"github.com/go-chi/chi"
	"gorm.io/gorm"

	"github.com/firmaya/api/pkg/zapsign"
)

// New assembles the public API surface on a single router.
func New(db *gorm.DB, zapClient *zapsign.Client, webhookSecret, baseURL string) chi.Router {
	r := chi.NewRouter()

	NewCounterRoutes(db).Register(r)
	NewReferralRoutes(db).Register(r)
	NewSignRoutes(db, zapClient, webhookSecret, baseURL).Register(r)

	return r
}
