package routes

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/firmaya/api/pkg/database"
	"github.com/firmaya/api/pkg/models"
	"github.com/firmaya/api/pkg/zapsign"
)

func signedWebhookBody(t *testing.T, email, externalID string) string {
	t.Helper()

	b, err := json.Marshal(zapsign.WebhookPayload{
		EventType:        zapsign.WebhookEventDocumentSigned,
		DocumentID:       "doc-1",
		SignerExternalID: externalID,
		SignerEmail:      email,
		Timestamp:        "2026-08-01T12:00:00Z",
		SignatureStatus:  zapsign.WebhookStatusSigned,
	})
	require.NoError(t, err)

	return string(b)
}

func webhookStatus(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()

	var pl models.StatusPayload
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &pl))

	return pl.Status
}

func counterTotal(t *testing.T, db *gorm.DB) int {
	t.Helper()

	var c database.Counter
	err := db.Order("id desc").First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0
	}
	require.NoError(t, err)

	return c.Total
}

func TestWebhook_CreatesSignerAndIncrements(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "")

	ext := zapsign.EncodeExternalID(zapsign.PendingSigner{
		Name:        "Leo",
		Email:       "leo@x.com",
		WantsInvite: true,
		RefBy:       strPtr("anamara"),
		RefCode:     "AB12CD34",
	})
	body := signedWebhookBody(t, "leo@x.com", ext)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader(body)))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, StatusOK, webhookStatus(t, rec))

	var signer database.Signer
	require.NoError(t, db.Where("email = ?", "leo@x.com").First(&signer).Error)
	assert.Equal(t, "Leo", signer.Name)
	assert.Equal(t, "N/A", signer.City)
	assert.Equal(t, "Supporter", signer.Role)
	assert.True(t, signer.Verified)
	assert.True(t, signer.WantsInvite)
	assert.Equal(t, "AB12CD34", signer.RefCode)
	require.NotNil(t, signer.RefBy)
	assert.Equal(t, "anamara", *signer.RefBy)

	assert.Equal(t, 1, counterTotal(t, db))

	// Raw delivery and verification events land in the log.
	var types []string
	require.NoError(t, db.Model(&database.Event{}).Order("id").Pluck("type", &types).Error)
	assert.Contains(t, types, database.EventWebhookReceived)
	assert.Contains(t, types, database.EventCounterIncrement)
	assert.Contains(t, types, database.EventSignVerified)
}

func TestWebhook_DuplicateDelivery(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "")

	ext := zapsign.EncodeExternalID(zapsign.PendingSigner{
		Name:    "Leo",
		Email:   "leo@x.com",
		RefCode: "AB12CD34",
	})
	body := signedWebhookBody(t, "leo@x.com", ext)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader(body)))
	require.Equal(t, 200, rec.Code)
	require.Equal(t, StatusOK, webhookStatus(t, rec))
	require.Equal(t, 1, counterTotal(t, db))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader(body)))
	require.Equal(t, 200, rec.Code)
	assert.Equal(t, StatusAlreadyProcessed, webhookStatus(t, rec))
	assert.Equal(t, 1, counterTotal(t, db))

	var count int64
	require.NoError(t, db.Model(&database.Signer{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestWebhook_InvalidMAC(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "s3cret")

	ext := zapsign.EncodeExternalID(zapsign.PendingSigner{
		Name:    "Leo",
		Email:   "leo@x.com",
		RefCode: "AB12CD34",
	})
	body := signedWebhookBody(t, "leo@x.com", ext)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	req.Header.Set(zapsign.SignatureHeader, "sha256=deadbeef")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, 401, rec.Code)
	assert.Equal(t, 0, counterTotal(t, db))

	var count int64
	require.NoError(t, db.Model(&database.Signer{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestWebhook_MissingMACFailsClosed(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "s3cret")

	body := signedWebhookBody(t, "leo@x.com", "ext")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader(body)))

	assert.Equal(t, 401, rec.Code)
}

func TestWebhook_ValidMAC(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "s3cret")

	ext := zapsign.EncodeExternalID(zapsign.PendingSigner{
		Name:    "Leo",
		Email:   "leo@x.com",
		RefCode: "AB12CD34",
	})
	body := signedWebhookBody(t, "leo@x.com", ext)

	req := httptest.NewRequest("POST", "/webhook", strings.NewReader(body))
	req.Header.Set(zapsign.SignatureHeader, zapsign.SignBody("s3cret", []byte(body)))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, StatusOK, webhookStatus(t, rec))
	assert.Equal(t, 1, counterTotal(t, db))
}

func TestWebhook_MalformedExternalID(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "")

	body := signedWebhookBody(t, "leo@x.com", "!!! not a token !!!")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader(body)))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, StatusInvalidID, webhookStatus(t, rec))
	assert.Equal(t, 0, counterTotal(t, db))
}

func TestWebhook_IncompleteSignerData(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "")

	ext := zapsign.EncodeExternalID(zapsign.PendingSigner{
		Name:  "Leo",
		Email: "leo@x.com",
		// RefCode missing
	})
	body := signedWebhookBody(t, "leo@x.com", ext)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader(body)))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, StatusInvalidSigner, webhookStatus(t, rec))
	assert.Equal(t, 0, counterTotal(t, db))
}

func TestWebhook_IgnoresOtherEvents(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "")

	b, err := json.Marshal(zapsign.WebhookPayload{
		EventType:       "document_viewed",
		SignerEmail:     "leo@x.com",
		SignatureStatus: "pending",
	})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader(string(b))))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, StatusOK, webhookStatus(t, rec))
	assert.Equal(t, 0, counterTotal(t, db))

	// The delivery is still logged.
	var count int64
	require.NoError(t, db.Model(&database.Event{}).Where("type = ?", database.EventWebhookReceived).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestWebhook_NonJSONBodyStillAcknowledged(t *testing.T) {
	db := testDB(t)
	r := testRouter(t, db, nil, "")

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("POST", "/webhook", strings.NewReader("not json")))

	require.Equal(t, 200, rec.Code)
	assert.Equal(t, StatusError, webhookStatus(t, rec))
	assert.Equal(t, 0, counterTotal(t, db))
}
