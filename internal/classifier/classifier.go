// Package classifier scores feature vectors with a pre-trained logistic
// regression model and its paired standard-score feature scaler.
//
// Both artifacts are loaded once at startup and never mutated afterwards, so
// a single Classifier is safe for unsynchronized concurrent use. Missing or
// shape-incompatible artifacts are a startup error: the service must refuse
// to start rather than silently misclassify.
package classifier

import (
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/mbd888/ipsentry/internal/features"
)

// Verdict is the binary classification output.
type Verdict string

const (
	VerdictSafe       Verdict = "Safe"
	VerdictSuspicious Verdict = "Suspicious"
)

// Scaler holds the learned standard-score transform: (x - Mean) / Scale,
// element-wise per feature.
type Scaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Model holds logistic regression weights over scaled features.
type Model struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

// Classifier applies the scaler transform followed by the model's decision
// function, thresholded at 0.5 probability.
type Classifier struct {
	scaler Scaler
	model  Model
}

// New validates the scaler/model pair against the feature width and returns
// a ready classifier.
func New(model Model, scaler Scaler) (*Classifier, error) {
	if len(scaler.Mean) != features.Width || len(scaler.Scale) != features.Width {
		return nil, fmt.Errorf("scaler width %d/%d, want %d", len(scaler.Mean), len(scaler.Scale), features.Width)
	}
	if len(model.Weights) != features.Width {
		return nil, fmt.Errorf("model width %d, want %d", len(model.Weights), features.Width)
	}
	for i, s := range scaler.Scale {
		if s == 0 {
			return nil, fmt.Errorf("scaler scale[%d] is zero", i)
		}
	}
	return &Classifier{scaler: scaler, model: model}, nil
}

// Load reads the model and scaler artifacts from disk and validates them.
func Load(modelPath, scalerPath string) (*Classifier, error) {
	var model Model
	if err := readJSON(modelPath, &model); err != nil {
		return nil, fmt.Errorf("load model: %w", err)
	}
	var scaler Scaler
	if err := readJSON(scalerPath, &scaler); err != nil {
		return nil, fmt.Errorf("load scaler: %w", err)
	}
	return New(model, scaler)
}

// Classify maps a feature vector to a verdict. Deterministic: identical
// input always yields the identical verdict.
func (c *Classifier) Classify(v features.Vector) Verdict {
	// Linear term over scaled features; sigmoid(z) >= 0.5 iff z >= 0.
	z := c.model.Intercept
	for i := 0; i < features.Width; i++ {
		z += c.model.Weights[i] * (v[i] - c.scaler.Mean[i]) / c.scaler.Scale[i]
	}
	if z >= 0 {
		return VerdictSuspicious
	}
	return VerdictSafe
}

// Probability returns the model's raw suspicion probability. Not exposed on
// the tracking path; used by the trainer to report fit quality.
func (c *Classifier) Probability(v features.Vector) float64 {
	z := c.model.Intercept
	for i := 0; i < features.Width; i++ {
		z += c.model.Weights[i] * (v[i] - c.scaler.Mean[i]) / c.scaler.Scale[i]
	}
	return 1 / (1 + math.Exp(-z))
}

func readJSON(path string, out any) error {
	data, err := os.ReadFile(path) // #nosec G304 -- artifact paths come from config, not user input
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
