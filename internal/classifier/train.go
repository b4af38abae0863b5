package classifier

import (
	"fmt"
	"math"

	"github.com/mbd888/ipsentry/internal/features"
)

// FitScaler computes the per-feature mean and population standard deviation
// of the training samples.
func FitScaler(samples []features.Vector) (Scaler, error) {
	if len(samples) == 0 {
		return Scaler{}, fmt.Errorf("no training samples")
	}

	mean := make([]float64, features.Width)
	scale := make([]float64, features.Width)
	n := float64(len(samples))

	for _, s := range samples {
		for i, v := range s {
			mean[i] += v
		}
	}
	for i := range mean {
		mean[i] /= n
	}

	for _, s := range samples {
		for i, v := range s {
			d := v - mean[i]
			scale[i] += d * d
		}
	}
	for i := range scale {
		scale[i] = math.Sqrt(scale[i] / n)
		if scale[i] == 0 {
			// Constant feature: avoid division by zero, keep the raw value.
			scale[i] = 1
		}
	}

	return Scaler{Mean: mean, Scale: scale}, nil
}

// FitLogistic trains logistic regression weights over scaled features using
// full-batch gradient descent. labels must be 0 or 1.
func FitLogistic(samples []features.Vector, labels []int, scaler Scaler, epochs int, learningRate float64) (Model, error) {
	if len(samples) != len(labels) {
		return Model{}, fmt.Errorf("sample/label count mismatch: %d vs %d", len(samples), len(labels))
	}
	if len(samples) == 0 {
		return Model{}, fmt.Errorf("no training samples")
	}
	if len(scaler.Mean) != features.Width || len(scaler.Scale) != features.Width {
		return Model{}, fmt.Errorf("scaler width mismatch")
	}

	// Pre-scale once.
	scaled := make([]features.Vector, len(samples))
	for i, s := range samples {
		for j, v := range s {
			scaled[i][j] = (v - scaler.Mean[j]) / scaler.Scale[j]
		}
	}

	model := Model{Weights: make([]float64, features.Width)}
	n := float64(len(samples))

	for epoch := 0; epoch < epochs; epoch++ {
		gradW := make([]float64, features.Width)
		gradB := 0.0

		for i, x := range scaled {
			z := model.Intercept
			for j, w := range model.Weights {
				z += w * x[j]
			}
			p := 1 / (1 + math.Exp(-z))
			err := p - float64(labels[i])
			for j := range gradW {
				gradW[j] += err * x[j]
			}
			gradB += err
		}

		for j := range model.Weights {
			model.Weights[j] -= learningRate * gradW[j] / n
		}
		model.Intercept -= learningRate * gradB / n
	}

	return model, nil
}
