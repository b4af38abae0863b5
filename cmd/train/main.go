// Command train fits the scoring model from the labeled sample set and
// writes the model and scaler artifacts consumed by the server at startup.
//
// Usage:
//
//	go run ./cmd/train                      # writes artifacts/model.json + scaler.json
//	go run ./cmd/train -out /tmp/artifacts  # custom output directory
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/mbd888/ipsentry/internal/classifier"
	"github.com/mbd888/ipsentry/internal/features"
)

// Labeled training data: [fraud_score, vpn, tor, recent_abuse, bot_status].
// Label 1 means suspicious.
var (
	samples = []features.Vector{
		{90, 1, 1, 1, 1},
		{10, 0, 0, 0, 0},
		{75, 1, 0, 1, 1},
		{5, 0, 0, 0, 0},
		{88, 1, 1, 1, 0},
		{15, 0, 0, 0, 0},
		{95, 1, 1, 1, 1},
		{42, 1, 0, 1, 1},
	}
	labels = []int{1, 0, 1, 0, 1, 0, 1, 1}
)

const (
	epochs       = 5000
	learningRate = 0.1
)

func main() {
	outDir := flag.String("out", "artifacts", "output directory for model artifacts")
	flag.Parse()

	scaler, err := classifier.FitScaler(samples)
	if err != nil {
		log.Fatalf("Failed to fit scaler: %v", err)
	}

	model, err := classifier.FitLogistic(samples, labels, scaler, epochs, learningRate)
	if err != nil {
		log.Fatalf("Failed to fit model: %v", err)
	}

	// Sanity check: the trained model must separate the training set.
	clf, err := classifier.New(model, scaler)
	if err != nil {
		log.Fatalf("Trained artifacts are inconsistent: %v", err)
	}
	correct := 0
	for i, s := range samples {
		verdict := clf.Classify(s)
		want := classifier.VerdictSafe
		if labels[i] == 1 {
			want = classifier.VerdictSuspicious
		}
		if verdict == want {
			correct++
		}
	}
	fmt.Printf("training accuracy: %d/%d\n", correct, len(samples))

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "model.json"), model); err != nil {
		log.Fatalf("Failed to write model: %v", err)
	}
	if err := writeJSON(filepath.Join(*outDir, "scaler.json"), scaler); err != nil {
		log.Fatalf("Failed to write scaler: %v", err)
	}

	fmt.Printf("artifacts written to %s\n", *outDir)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}
