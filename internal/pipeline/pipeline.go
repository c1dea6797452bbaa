package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/floodcast/floodcast-api/internal/domain"
	"github.com/floodcast/floodcast-api/internal/observability"
)

// Authorizer resolves a raw Authorization header to a subject.
type Authorizer interface {
	Authorize(header string) (domain.Subject, error)
}

// Predictor asks the prediction service about one location and month.
type Predictor interface {
	Predict(ctx context.Context, year int, monthName string, lat, lon float64) (domain.ModelOutput, error)
}

// Store persists prediction records and reads a subject's history.
type Store interface {
	Create(ctx context.Context, r *domain.PredictionResult) error
	ListBySubject(ctx context.Context, subjectID string) ([]domain.PredictionResult, error)
}

// EventPublisher announces recorded predictions to downstream consumers.
type EventPublisher interface {
	PublishPrediction(ctx context.Context, result domain.PredictionResult) error
}

// Pipeline runs the prediction request flow:
// authorize, validate, predict, format, persist, respond.
type Pipeline struct {
	auth      Authorizer
	predictor Predictor
	store     Store
	publisher EventPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// New creates a Pipeline. publisher may be nil when no event stream is configured.
func New(auth Authorizer, predictor Predictor, store Store, publisher EventPublisher, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		auth:      auth,
		predictor: predictor,
		store:     store,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
	}
}

// payload is the POST /api/predict body. Pointers distinguish absent fields
// from zero values.
type payload struct {
	Tahun     *int     `json:"tahun"`
	Bulan     *string  `json:"bulan"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// Predict handles one prediction request. Authorization is checked before the
// body is read, so unauthorized requests cause no decoding, network or
// database work.
func (p *Pipeline) Predict(ctx context.Context, authHeader string, body io.Reader) (resp domain.PredictionResponse, err error) {
	defer func() { p.metrics.PredictionRequests.WithLabelValues(outcome(err)).Inc() }()

	subject, err := p.auth.Authorize(authHeader)
	if err != nil {
		return domain.PredictionResponse{}, err
	}

	req, err := decodeRequest(body, subject)
	if err != nil {
		return domain.PredictionResponse{}, err
	}

	if err := domain.ValidateCoordinates(req.Latitude, req.Longitude); err != nil {
		return domain.PredictionResponse{}, err
	}

	out, err := p.predictor.Predict(ctx, req.Year, req.Month, req.Latitude, req.Longitude)
	if err != nil {
		p.logger.Warn("prediction failed", "subject", subject.ID, "error", err)
		return domain.PredictionResponse{}, err
	}

	month, err := domain.MonthNumber(req.Month)
	if err != nil {
		return domain.PredictionResponse{}, err
	}

	result := domain.NewPredictionResult(req, month, out)
	if err := p.store.Create(ctx, &result); err != nil {
		p.logger.Error("persist prediction failed", "subject", subject.ID, "error", err)
		return domain.PredictionResponse{}, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	p.metrics.PredictionsPersisted.Inc()

	p.publish(ctx, result)

	p.logger.Info("prediction recorded",
		"id", result.ID,
		"subject", subject.ID,
		"regency", result.RegencyName,
		"district", result.DistrictName,
		"flood", result.PredictedLabel,
	)
	return result.Response(), nil
}

// History returns the authorized subject's own predictions, newest first.
func (p *Pipeline) History(ctx context.Context, authHeader string) ([]domain.PredictionResult, error) {
	subject, err := p.auth.Authorize(authHeader)
	if err != nil {
		return nil, err
	}
	results, err := p.store.ListBySubject(ctx, subject.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrPersistence, err)
	}
	return results, nil
}

// publishTimeout bounds how long a broker outage can hold up a response.
const publishTimeout = 3 * time.Second

// publish sends the event stream notification. It outlives a disconnecting
// client but not publishTimeout. Failures are only logged.
func (p *Pipeline) publish(ctx context.Context, result domain.PredictionResult) {
	if p.publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()
	if err := p.publisher.PublishPrediction(ctx, result); err != nil {
		p.metrics.EventsPublished.WithLabelValues("error").Inc()
		p.logger.Warn("publish prediction event failed", "id", result.ID, "error", err)
		return
	}
	p.metrics.EventsPublished.WithLabelValues("success").Inc()
}

func decodeRequest(body io.Reader, subject domain.Subject) (domain.PredictionRequest, error) {
	var in payload
	if body != nil {
		if err := json.NewDecoder(body).Decode(&in); err != nil && !errors.Is(err, io.EOF) {
			return domain.PredictionRequest{}, fmt.Errorf("%w: %w", domain.ErrInvalidPayload, err)
		}
	}

	var missing []string
	if in.Tahun == nil {
		missing = append(missing, "tahun")
	}
	if in.Bulan == nil || *in.Bulan == "" {
		missing = append(missing, "bulan")
	}
	if in.Latitude == nil {
		missing = append(missing, "latitude")
	}
	if in.Longitude == nil {
		missing = append(missing, "longitude")
	}
	if len(missing) > 0 {
		return domain.PredictionRequest{}, &domain.MissingFieldsError{Fields: missing}
	}

	return domain.PredictionRequest{
		Year:      *in.Tahun,
		Month:     *in.Bulan,
		Latitude:  *in.Latitude,
		Longitude: *in.Longitude,
		SubjectID: subject.ID,
	}, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrMissingToken), errors.Is(err, domain.ErrInvalidToken):
		return "unauthorized"
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrInvalidPayload),
		errors.Is(err, domain.ErrOutOfBounds), errors.Is(err, domain.ErrInvalidMonth):
		return "invalid"
	case errors.Is(err, domain.ErrUpstream):
		return "upstream_error"
	case errors.Is(err, domain.ErrPersistence):
		return "persistence_error"
	default:
		return "error"
	}
}
