package predictor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docbridge/docbridge/internal/apperr"
	"go.uber.org/zap"
)

func TestPredict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req struct {
			Symptoms []string `json:"symptoms"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Symptoms) != 2 {
			t.Errorf("expected 2 symptoms, got %v", req.Symptoms)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions":[{"disease":"Common Cold","probability":0.82},{"disease":"Flu","probability":0.11}]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second, zap.NewNop())
	preds, err := client.Predict(context.Background(), []string{"fever", "cough"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(preds) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(preds))
	}
	if preds[0].Label != "Common Cold" || preds[0].Probability != 0.82 {
		t.Errorf("unexpected first prediction: %+v", preds[0])
	}
}

func TestPredict_EmptySymptoms(t *testing.T) {
	client := New("http://127.0.0.1:0", time.Second, nil)
	if _, err := client.Predict(context.Background(), nil); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("expected ErrValidation, got %v", err)
	}
}

func TestPredict_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second, zap.NewNop())
	if _, err := client.Predict(context.Background(), []string{"fever"}); err == nil {
		t.Error("expected error on 500 response")
	}
}

func TestPredict_NoPredictions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"predictions":[]}`))
	}))
	defer srv.Close()

	client := New(srv.URL, 5*time.Second, zap.NewNop())
	preds, err := client.Predict(context.Background(), []string{"fever"})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if len(preds) != 0 {
		t.Errorf("expected no predictions, got %d", len(preds))
	}
}
