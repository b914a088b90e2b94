package routes

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/httprate"
	"gorm.io/gorm"

	"github.com/firmaya/api/pkg/database"
	apierrors "github.com/firmaya/api/pkg/errors"
	"github.com/firmaya/api/pkg/models"
	"github.com/firmaya/api/pkg/referral"
	"github.com/firmaya/api/pkg/zapsign"
)

const maxNameLength = 100
const maxEmailLength = 255
const codeAttempts = 10

type SignRoutes struct {
	db            *gorm.DB
	zapClient     *zapsign.Client
	webhookSecret string
	baseURL       string
}

func NewSignRoutes(db *gorm.DB, zapClient *zapsign.Client, webhookSecret, baseURL string) *SignRoutes {
	return &SignRoutes{
		db:            db,
		zapClient:     zapClient,
		webhookSecret: webhookSecret,
		baseURL:       baseURL,
	}
}

func (sr SignRoutes) Register(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(httprate.LimitByIP(5, time.Minute))

		r.Post("/sign", sr.Sign)
	})

	r.Post("/webhook", sr.Webhook)
}

type SignPayload struct {
	Success      bool   `json:"success"`
	SignerToken  string `json:"signerToken"`
	WidgetURL    string `json:"widgetUrl"`
	RefCode      string `json:"refCode"`
	ReferralLink string `json:"referralLink,omitempty"`
}

func (sr SignRoutes) Sign(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name        string  `json:"name"`
		Email       string  `json:"email"`
		WantsInvite bool    `json:"wantsInvite"`
		RefBy       *string `json:"refBy"`
	}

	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(models.CreateError("Failed to parse JSON payload"))
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" || len(name) > maxNameLength {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(models.CreateError("A valid name is required"))
		return
	}

	email := strings.TrimSpace(body.Email)
	if !validEmail(email) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write(models.CreateError("A valid email is required"))
		return
	}

	if err := sr.ensureNewEmail(email); err != nil {
		if errors.Is(err, apierrors.DuplicateEmail) {
			w.WriteHeader(http.StatusBadRequest)
			w.Write(models.CreateError("This email has already signed"))
			return
		}

		log.Printf("failed to look up signer email: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Internal server error"))
		return
	}

	refCode, err := sr.generateSignerCode()
	if err != nil {
		log.Printf("failed to generate referral code: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Internal server error"))
		return
	}

	externalID := zapsign.EncodeExternalID(zapsign.PendingSigner{
		Name:        name,
		Email:       email,
		WantsInvite: body.WantsInvite,
		RefBy:       normalizeRef(body.RefBy),
		RefCode:     refCode,
	})

	signerToken, err := sr.zapClient.CreateSigner(r.Context(), name, email, externalID)
	if err != nil {
		log.Printf("failed to create signer with provider: %v\n", err)
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(models.CreateError("Could not create the signing request. Try again."))
		return
	}

	pl := SignPayload{
		Success:     true,
		SignerToken: signerToken,
		WidgetURL:   zapsign.WidgetURL(signerToken),
		RefCode:     refCode,
	}
	if sr.baseURL != "" {
		pl.ReferralLink = referral.Link(sr.baseURL, refCode)
	}

	b, err := json.Marshal(pl)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Add("Content-Type", "application/json")
	w.Write(b)
}

func (sr SignRoutes) ensureNewEmail(email string) error {
	var existing database.Signer
	err := sr.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return apierrors.DuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	return nil
}

// generateSignerCode draws random codes until one is free of collisions with
// existing signers, giving up after a fixed number of attempts.
func (sr SignRoutes) generateSignerCode() (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code := referral.GenerateCode()

		var existing database.Signer
		err := sr.db.Where("ref_code = ?", code).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}

	return "", apierrors.CodeGenerationExhausted
}

func validEmail(email string) bool {
	if email == "" || len(email) > maxEmailLength {
		return false
	}

	addr, err := mail.ParseAddress(email)

	return err == nil && addr.Address == email
}
