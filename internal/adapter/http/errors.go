package http

import (
	"errors"
	"net/http"

	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/gin-gonic/gin"
)

// User-facing messages. The web client shows these verbatim.
const (
	msgMissingToken   = "Token tidak ditemukan"
	msgInvalidToken   = "Token tidak valid"
	msgMissingFields  = "Data tidak lengkap"
	msgInvalidPayload = "Format data tidak valid"
	msgOutOfBounds    = "Koordinat di luar wilayah Jabodetabek"
	msgInvalidMonth   = "Nama bulan tidak valid"
	msgPredictFailed  = "Gagal melakukan prediksi"
	msgPersistFailed  = "Gagal menyimpan prediksi"
	msgEmailTaken     = "Email sudah terdaftar."
	msgUnknownEmail   = "Email tidak ditemukan."
	msgWrongPassword  = "Password salah."
	msgServerError    = "Terjadi kesalahan pada server"
	msgUserNotFound   = "User not found"
	msgPredNotFound   = "Prediction not found"
	msgWeatherFailed  = "Gagal mengambil data cuaca"
)

// errorResponse maps a domain error to a status and JSON body. notFound is the
// message used for domain.ErrNotFound. 5xx bodies carry the underlying error in details.
func errorResponse(err error, notFound string) (int, gin.H) {
	var missing *domain.MissingFieldsError
	var input *domain.InputError

	switch {
	case errors.Is(err, domain.ErrMissingToken):
		return http.StatusUnauthorized, gin.H{"error": msgMissingToken}
	case errors.Is(err, domain.ErrInvalidToken):
		return http.StatusUnauthorized, gin.H{"error": msgInvalidToken}
	case errors.As(err, &missing):
		return http.StatusBadRequest, gin.H{"error": msgMissingFields, "fields": missing.Fields}
	case errors.Is(err, domain.ErrInvalidPayload):
		return http.StatusBadRequest, gin.H{"error": msgInvalidPayload}
	case errors.Is(err, domain.ErrOutOfBounds):
		return http.StatusBadRequest, gin.H{"error": msgOutOfBounds}
	case errors.Is(err, domain.ErrInvalidMonth):
		return http.StatusBadRequest, gin.H{"error": msgInvalidMonth}
	case errors.As(err, &input):
		return http.StatusBadRequest, gin.H{"error": input.Message}
	case errors.Is(err, domain.ErrEmailTaken):
		return http.StatusBadRequest, gin.H{"error": msgEmailTaken}
	case errors.Is(err, domain.ErrUnknownEmail):
		return http.StatusUnauthorized, gin.H{"error": msgUnknownEmail}
	case errors.Is(err, domain.ErrWrongPassword):
		return http.StatusUnauthorized, gin.H{"error": msgWrongPassword}
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, gin.H{"error": notFound}
	case errors.Is(err, domain.ErrUpstream):
		return http.StatusInternalServerError, gin.H{"error": msgPredictFailed, "details": err.Error()}
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, gin.H{"error": msgPersistFailed, "details": err.Error()}
	default:
		return http.StatusInternalServerError, gin.H{"error": msgServerError, "details": err.Error()}
	}
}

func abortWithError(c *gin.Context, err error, notFound string) {
	status, body := errorResponse(err, notFound)
	c.AbortWithStatusJSON(status, body)
}
