package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/service"
)

func TestNafathHandlerSimulationMode(t *testing.T) {
	// No client credentials: the whole flow is simulated
	nafathSvc := service.NewNafathService(&config.NafathConfig{})
	handler := NewNafathHandler(nafathSvc)

	router := gin.New()
	router.GET("/auth/nafath", handler.Redirect)
	router.GET("/auth/nafath/callback", handler.Callback)

	// Redirect short-circuits to the callback
	req := httptest.NewRequest("GET", "/auth/nafath", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusFound {
		t.Fatalf("Expected status 302, got %d", w.Code)
	}
	location := w.Header().Get("Location")
	if location != "/api/auth/nafath/callback?simulated=1" {
		t.Errorf("Unexpected redirect location '%s'", location)
	}

	// Callback returns the fixed identity
	req = httptest.NewRequest("GET", "/auth/nafath/callback?simulated=1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		Verified bool                   `json:"verified"`
		Identity service.NafathIdentity `json:"identity"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if !response.Verified {
		t.Error("Expected verified=true")
	}
	if response.Identity.NationalID != "1000000001" {
		t.Errorf("Expected simulated national ID, got '%s'", response.Identity.NationalID)
	}
	if !response.Identity.Simulated {
		t.Error("Expected simulated flag to be set")
	}
}
