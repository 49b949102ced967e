package domain

import (
	"strings"
	"time"
)

// PredictionType is one of the four independent LLM-driven prediction
// tasks run for every committed draw.
type PredictionType string

const (
	// PredictionParity predicts odd/even for the next issue.
	PredictionParity PredictionType = "parity"
	// PredictionMagnitude predicts big/small for the next issue.
	PredictionMagnitude PredictionType = "magnitude"
	// PredictionCombo predicts two distinct combination labels,
	// believed to cover the next issue between them.
	PredictionCombo PredictionType = "combo"
	// PredictionKill predicts a single combination label believed
	// unlikely to appear. Its hit rule is inverted: a "hit" is recorded
	// when the actual combination does NOT equal the predicted label,
	// so a high win rate means the model is good at ruling labels out,
	// not calling them. This polarity matches the source system exactly
	// and is kept deliberately (see DESIGN.md).
	PredictionKill PredictionType = "kill"
)

// AllPredictionTypes lists the four tasks run per issue.
func AllPredictionTypes() []PredictionType {
	return []PredictionType{PredictionParity, PredictionMagnitude, PredictionCombo, PredictionKill}
}

// Prediction is one row: a single type's call made for the issue that
// will open NEXT, verified once that issue's draw is committed.
type Prediction struct {
	Issue          string         `json:"issue"`
	Type           PredictionType `json:"type"`
	PredictedValue string         `json:"predicted_value"`
	Hit            *bool          `json:"hit"` // nil until verified
	ModelName      string         `json:"model_name"`
	LatencyMs      int64          `json:"latency_ms"`
	CreatedAt      time.Time      `json:"created_at"`
	VerifiedAt     *time.Time     `json:"verified_at"`
}

// ValidPredictedValue reports whether value matches the grammar for
// predictions of the given type.
func ValidPredictedValue(t PredictionType, value string) bool {
	switch t {
	case PredictionParity:
		return value == "odd" || value == "even"
	case PredictionMagnitude:
		return value == "big" || value == "small"
	case PredictionCombo:
		parts := strings.Split(value, ",")
		if len(parts) != 2 || parts[0] == parts[1] {
			return false
		}
		return isCombinationLabel(parts[0]) && isCombinationLabel(parts[1])
	case PredictionKill:
		return isCombinationLabel(value)
	default:
		return false
	}
}

func isCombinationLabel(value string) bool {
	switch Combination(value) {
	case CombinationBigOdd, CombinationSmallOdd, CombinationBigEven, CombinationSmallEven:
		return true
	}
	return false
}

// VerifyHit resolves ground truth for a committed draw and reports
// whether the prediction hit, using the type-specific rule below.
// kill is intentionally inverted: it hits when the predicted
// combination label was NOT drawn.
func VerifyHit(t PredictionType, predictedValue string, d Draw) bool {
	switch t {
	case PredictionParity:
		if d.IsOdd {
			return predictedValue == "odd"
		}
		return predictedValue == "even"
	case PredictionMagnitude:
		if d.IsBig {
			return predictedValue == "big"
		}
		return predictedValue == "small"
	case PredictionCombo:
		for _, label := range strings.Split(predictedValue, ",") {
			if label == string(d.Combination) {
				return true
			}
		}
		return false
	case PredictionKill:
		return predictedValue != string(d.Combination)
	default:
		return false
	}
}

// HitRateSnapshot is the windowed win-rate figure served by the read
// API. The recency-bias check does not use it; it looks at the type's
// recent predicted values instead.
type HitRateSnapshot struct {
	Type      PredictionType `json:"type"`
	Window    int            `json:"window"`
	Hits      int            `json:"hits"`
	Total     int            `json:"total"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Rate returns Hits/Total, or 0 when Total is 0.
func (h HitRateSnapshot) Rate() float64 {
	if h.Total == 0 {
		return 0
	}
	return float64(h.Hits) / float64(h.Total)
}
