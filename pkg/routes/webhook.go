package routes

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"gorm.io/gorm"

	"github.com/firmaya/api/pkg/cache"
	"github.com/firmaya/api/pkg/counter"
	"github.com/firmaya/api/pkg/database"
	"github.com/firmaya/api/pkg/models"
	"github.com/firmaya/api/pkg/zapsign"
)

// Webhook statuses acknowledged to the provider. Everything except a bad
// signature answers 200 so the provider never enters a retry storm.
const (
	StatusOK               = "ok"
	StatusAlreadyProcessed = "already_processed"
	StatusInvalidID        = "invalid_external_id"
	StatusInvalidSigner    = "invalid_signer_data"
	StatusError            = "error"
)

func (sr SignRoutes) Webhook(w http.ResponseWriter, r *http.Request) {
	rawBody, err := io.ReadAll(r.Body)
	if err != nil {
		log.Printf("failed to read webhook body: %v\n", err)
		acknowledge(w, StatusError, "Internal error")
		return
	}

	if sr.webhookSecret != "" {
		sig := r.Header.Get(zapsign.SignatureHeader)
		if err := zapsign.VerifySignature(rawBody, sig, sr.webhookSecret); err != nil {
			log.Printf("rejected webhook delivery: %v\n", err)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write(models.CreateError("Invalid signature"))
			return
		}
	}

	raw := string(rawBody)
	err = sr.db.Create(&database.Event{
		Type:    database.EventWebhookReceived,
		Payload: &raw,
	}).Error
	if err != nil {
		log.Printf("failed to log webhook event: %v\n", err)
		acknowledge(w, StatusError, "Internal error")
		return
	}

	var pl zapsign.WebhookPayload
	if err := json.Unmarshal(rawBody, &pl); err != nil {
		log.Printf("failed to parse webhook payload: %v\n", err)
		acknowledge(w, StatusError, "Internal error")
		return
	}

	if pl.EventType != zapsign.WebhookEventDocumentSigned || pl.SignatureStatus != zapsign.WebhookStatusSigned {
		acknowledge(w, StatusOK, "")
		return
	}

	var existing database.Signer
	err = sr.db.Where("email = ?", pl.SignerEmail).First(&existing).Error
	if err == nil {
		acknowledge(w, StatusAlreadyProcessed, "")
		return
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Printf("failed to look up signer: %v\n", err)
		acknowledge(w, StatusError, "Internal error")
		return
	}

	pending, err := zapsign.DecodeExternalID(pl.SignerExternalID)
	if err != nil {
		log.Printf("failed to decode signer data: %v\n", err)
		acknowledge(w, StatusInvalidID, "")
		return
	}

	if !pending.Complete() {
		log.Printf("incomplete signer data in external id for %v\n", pl.SignerEmail)
		acknowledge(w, StatusInvalidSigner, "")
		return
	}

	signer := database.Signer{
		Name:        pending.Name,
		Email:       pending.Email,
		City:        "N/A",
		Role:        "Supporter",
		WantsInvite: pending.WantsInvite,
		Verified:    true,
		RefCode:     pending.RefCode,
		RefBy:       pending.RefBy,
	}

	if err := sr.db.Create(&signer).Error; err != nil {
		// A duplicate delivery racing this one already inserted the row.
		if database.IsUniqueViolation(err) {
			acknowledge(w, StatusAlreadyProcessed, "")
			return
		}

		log.Printf("failed to create signer: %v\n", err)
		acknowledge(w, StatusError, "Internal error")
		return
	}

	res, err := counter.IncrementIfNew(sr.db, pending.RefBy, time.Now())
	if err != nil {
		log.Printf("signer %v created but counter increment failed: %v\n", signer.Email, err)
		acknowledge(w, StatusError, "Internal error")
		return
	}

	if res.WasNew {
		cache.GetCounterCache().Invalidate()
	}

	sr.logSignVerified(signer, res.Count)

	acknowledge(w, StatusOK, "")
}

func (sr SignRoutes) logSignVerified(signer database.Signer, totalCount int) {
	pl, err := json.Marshal(struct {
		SignerID   uint    `json:"signerId"`
		City       string  `json:"city"`
		Role       string  `json:"role"`
		RefBy      *string `json:"refBy"`
		TotalCount int     `json:"totalCount"`
	}{
		SignerID:   signer.ID,
		City:       signer.City,
		Role:       signer.Role,
		RefBy:      signer.RefBy,
		TotalCount: totalCount,
	})
	if err != nil {
		return
	}

	s := string(pl)
	err = sr.db.Create(&database.Event{
		Type:    database.EventSignVerified,
		Payload: &s,
	}).Error
	if err != nil {
		log.Printf("failed to log sign_verified event: %v\n", err)
	}
}

func acknowledge(w http.ResponseWriter, status, msg string) {
	w.Header().Add("Content-Type", "application/json")
	w.Write(models.CreateStatus(status, msg))
}
