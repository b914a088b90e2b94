package routes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"gorm.io/gorm"

	"github.com/firmaya/api/pkg/counting"
	"github.com/firmaya/api/pkg/database"
	"github.com/firmaya/api/pkg/models"
	"github.com/firmaya/api/pkg/referral"
)

type ReferralRoutes struct {
	db *gorm.DB
}

func NewReferralRoutes(db *gorm.DB) *ReferralRoutes {
	return &ReferralRoutes{db: db}
}

func (rr ReferralRoutes) Register(r chi.Router) {
	r.Get("/referrals", rr.ListReferrals)
	r.Post("/referrals", rr.CreateReferral)
	r.Get("/me", rr.GetReferrer)
}

type ReferralEntry struct {
	ID              uint      `json:"id"`
	RefCode         string    `json:"refCode"`
	Name            string    `json:"name"`
	Email           *string   `json:"email"`
	Description     *string   `json:"description"`
	IsActive        bool      `json:"isActive"`
	TotalSignatures int       `json:"totalSignatures"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func (rr ReferralRoutes) ListReferrals(w http.ResponseWriter, r *http.Request) {
	var refs []database.Referral
	if err := rr.db.Order("created_at desc").Find(&refs).Error; err != nil {
		log.Printf("failed to fetch referrals: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Failed to fetch referrals"))
		return
	}

	entries := make([]ReferralEntry, 0, len(refs))
	for _, ref := range refs {
		total, err := rr.countSignatures(ref.RefCode)
		if err != nil {
			log.Printf("failed to count signatures for %v: %v\n", ref.RefCode, err)
			w.WriteHeader(http.StatusInternalServerError)
			w.Write(models.CreateError("Failed to fetch referrals"))
			return
		}

		entries = append(entries, ReferralEntry{
			ID:              ref.ID,
			RefCode:         ref.RefCode,
			Name:            ref.Name,
			Email:           ref.Email,
			Description:     ref.Description,
			IsActive:        ref.IsActive,
			TotalSignatures: total,
			CreatedAt:       ref.CreatedAt,
			UpdatedAt:       ref.UpdatedAt,
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].TotalSignatures != entries[j].TotalSignatures {
			return entries[i].TotalSignatures > entries[j].TotalSignatures
		}

		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})

	b, err := json.Marshal(entries)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(b)
}

func (rr ReferralRoutes) CreateReferral(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string  `json:"name"`
		Email       *string `json:"email"`
		Description *string `json:"description"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(models.CreateError("Failed to parse JSON payload"))
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(models.CreateError("Name is required"))
		return
	}

	refCode := referral.CodeFromName(name)
	if refCode == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(models.CreateError("Name must contain at least one alphanumeric character"))
		return
	}

	var existing database.Referral
	err := rr.db.Where("ref_code = ?", refCode).First(&existing).Error
	if err == nil {
		w.WriteHeader(http.StatusConflict)
		w.Write(models.CreateError("Referral code already exists. Please use a different name."))
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("failed to look up referral code: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Failed to create referral"))
		return
	}

	ref := database.Referral{
		RefCode:     refCode,
		Name:        name,
		Email:       trimPtr(body.Email),
		Description: trimPtr(body.Description),
		IsActive:    true,
	}

	if err := rr.db.Create(&ref).Error; err != nil {
		if database.IsUniqueViolation(err) {
			// Lost the race against a concurrent create for the same code.
			w.WriteHeader(http.StatusConflict)
			w.Write(models.CreateError("Referral code already exists. Please use a different name."))
			return
		}

		log.Printf("failed to create referral: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Failed to create referral"))
		return
	}

	b, err := json.Marshal(ref)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	w.Write(b)
}

type ReferrerPayload struct {
	Referrer struct {
		Name      string    `json:"name"`
		RefCode   string    `json:"refCode"`
		CreatedAt time.Time `json:"createdAt"`
	} `json:"referrer"`
	ReferralCount int `json:"referralCount"`
}

func (rr ReferralRoutes) GetReferrer(w http.ResponseWriter, r *http.Request) {
	refCode := r.URL.Query().Get("ref")
	if refCode == "" {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(models.CreateError("Referral code is required"))
		return
	}

	var ref database.Referral
	err := rr.db.Where("ref_code = ?", refCode).First(&ref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			w.WriteHeader(http.StatusNotFound)
			w.Write(models.CreateError("Invalid referral code"))
			return
		}

		log.Printf("failed to look up referrer: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Failed to fetch referrer"))
		return
	}

	count, err := rr.countSignatures(ref.RefCode)
	if err != nil {
		log.Printf("failed to count signatures for %v: %v\n", ref.RefCode, err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Failed to fetch referrer"))
		return
	}

	var pl ReferrerPayload
	pl.Referrer.Name = ref.Name
	pl.Referrer.RefCode = ref.RefCode
	pl.Referrer.CreatedAt = ref.CreatedAt
	pl.ReferralCount = count

	b, err := json.Marshal(pl)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(b)
}

// countSignatures loads the increment events attributed to a code and runs
// the shared deduplication estimate over them.
func (rr ReferralRoutes) countSignatures(refCode string) (int, error) {
	var events []database.Event
	err := rr.db.
		Where("type = ? AND payload LIKE ?", database.EventCounterIncrement, `%"refBy":"`+refCode+`"%`).
		Find(&events).Error
	if err != nil {
		return 0, err
	}

	return counting.EstimateDistinctSignatures(events, refCode), nil
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}

	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}

	return &t
}
