package routes

import (
	"encoding/json"
	"log"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"gorm.io/gorm"

	"github.com/firmaya/api/pkg/cache"
	"github.com/firmaya/api/pkg/counter"
	"github.com/firmaya/api/pkg/models"
)

// SignatureGoal is the public petition target shown on the landing page.
const SignatureGoal = 5000

type CounterRoutes struct {
	db *gorm.DB
}

func NewCounterRoutes(db *gorm.DB) *CounterRoutes {
	return &CounterRoutes{db: db}
}

func (cr CounterRoutes) Register(r chi.Router) {
	r.Get("/counter", cr.GetCounter)
	r.Post("/increment-counter", cr.IncrementCounter)
}

type CounterPayload struct {
	Count       int       `json:"count"`
	Goal        int       `json:"goal"`
	Percentage  int       `json:"percentage"`
	LastUpdated time.Time `json:"lastUpdated"`
}

func (cr CounterRoutes) GetCounter(w http.ResponseWriter, r *http.Request) {
	counterCache := cache.GetCounterCache()

	cached, shouldRecompute, err := counterCache.Get()
	if err != nil {
		log.Printf("failed to read counter cache: %v\n", err)
	}

	if cached != nil && !shouldRecompute {
		w.Header().Add("Content-Type", "application/json")
		w.Write(cached)
		return
	}

	c, err := counter.Get(cr.db)
	if err != nil {
		log.Printf("failed to fetch counter: %v\n", err)

		if cached != nil {
			w.Header().Add("Content-Type", "application/json")
			w.Write(cached)
			return
		}

		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Failed to fetch counter"))
		return
	}

	pl := CounterPayload{
		Count:       c.Total,
		Goal:        SignatureGoal,
		Percentage:  int(math.Round(float64(c.Total) / SignatureGoal * 100)),
		LastUpdated: c.UpdatedAt,
	}

	b, err := json.Marshal(pl)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	counterCache.Set(b)

	w.Header().Add("Content-Type", "application/json")
	w.Write(b)
}

type IncrementPayload struct {
	Success bool   `json:"success"`
	Count   int    `json:"count"`
	Message string `json:"message"`
}

func (cr CounterRoutes) IncrementCounter(w http.ResponseWriter, r *http.Request) {
	var body struct {
		RefBy *string `json:"refBy"`
	}

	// An empty or malformed body counts as "no referral".
	json.NewDecoder(r.Body).Decode(&body)

	res, err := counter.IncrementIfNew(cr.db, normalizeRef(body.RefBy), time.Now())
	if err != nil {
		log.Printf("failed to increment counter: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Failed to increment counter"))
		return
	}

	if res.WasNew {
		cache.GetCounterCache().Invalidate()
	}

	msg := "Counter incremented successfully"
	if !res.WasNew {
		msg = "Signature already counted"
	}

	b, err := json.Marshal(IncrementPayload{
		Success: true,
		Count:   res.Count,
		Message: msg,
	})
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(b)
}

func normalizeRef(ref *string) *string {
	if ref == nil || *ref == "" {
		return nil
	}

	return ref
}
