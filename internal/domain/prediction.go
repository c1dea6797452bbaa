package domain

import "time"

// Subject is the authenticated user a request is made on behalf of.
type Subject struct {
	ID string
}

// PredictionRequest is a validated prediction request. It is never persisted.
type PredictionRequest struct {
	Year      int
	Month     string // canonical Indonesian month name
	Latitude  float64
	Longitude float64
	SubjectID string
}

// ModelOutput is what the prediction service answered for one request.
type ModelOutput struct {
	PredictedLabel  bool
	RegencyName     string
	RawDistrictName string
}

// PredictionResult is the stored outcome of one successful prediction.
// It is created once and never updated.
type PredictionResult struct {
	ID             string    `json:"id"`
	SubjectID      string    `json:"subjectId"`
	Year           int       `json:"year"`
	Month          int       `json:"month"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	PredictedLabel bool      `json:"predictedLabel"`
	RegencyName    string    `json:"regencyName"`
	DistrictName   string    `json:"districtName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// PredictionResponse is returned to the caller of a prediction.
type PredictionResponse struct {
	PredictedLabel        bool   `json:"predictedLabel"`
	RegencyName           string `json:"regencyName"`
	FormattedDistrictName string `json:"formattedDistrictName"`
}

// NewPredictionResult assembles the record for a completed prediction.
// The district label is formatted and the creation time taken from the package clock.
func NewPredictionResult(req PredictionRequest, month int, out ModelOutput) PredictionResult {
	return PredictionResult{
		SubjectID:      req.SubjectID,
		Year:           req.Year,
		Month:          month,
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		PredictedLabel: out.PredictedLabel,
		RegencyName:    out.RegencyName,
		DistrictName:   FormatDistrictLabel(out.RawDistrictName),
		CreatedAt:      clock.Now().UTC(),
	}
}

// Response projects the fields returned to the caller.
func (r PredictionResult) Response() PredictionResponse {
	return PredictionResponse{
		PredictedLabel:        r.PredictedLabel,
		RegencyName:           r.RegencyName,
		FormattedDistrictName: r.DistrictName,
	}
}
