package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/service"
)

func TestValidateVATNumber(t *testing.T) {
	tests := []struct {
		name  string
		vat   string
		valid bool
		err   string
	}{
		{"valid", "310123456789003", true, ""},
		{"valid with spaces", "3101 2345 6789 003", true, ""},
		{"valid with dashes", "310-123-456-789-003", true, ""},
		{"empty", "", false, "VAT number is required"},
		{"non-digits", "31012345678900a", false, "VAT number must contain only digits"},
		{"too short", "3101234567", false, "VAT number must be 15 digits"},
		{"wrong start", "110123456789003", false, "Saudi VAT must start with 3"},
		{"wrong end", "310123456789001", false, "Saudi VAT must end with 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateVATNumber(tt.vat)
			if result.Valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v (error: %s)", tt.valid, result.Valid, result.Error)
			}
			if tt.err != "" && result.Error != tt.err {
				t.Errorf("Expected error '%s', got '%s'", tt.err, result.Error)
			}
			if tt.valid && result.Formatted != "310123456789003" {
				t.Errorf("Expected formatted number, got '%s'", result.Formatted)
			}
		})
	}
}

func TestValidateCRNumber(t *testing.T) {
	tests := []struct {
		name   string
		cr     string
		valid  bool
		region string
	}{
		{"riyadh", "1010123456", true, "Riyadh"},
		{"makkah", "2050123456", true, "Makkah"},
		{"eastern", "4030123456", true, "Eastern"},
		{"unknown region", "9010123456", true, "Unknown"},
		{"with spaces", "10 1012 3456", true, "Riyadh"},
		{"empty", "", false, ""},
		{"non-digits", "10101234ab", false, ""},
		{"too short", "101012", false, ""},
		{"too long", "10101234567", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ValidateCRNumber(tt.cr)
			if result.Valid != tt.valid {
				t.Errorf("Expected valid=%v, got %v (error: %s)", tt.valid, result.Valid, result.Error)
			}
			if tt.valid && result.Region != tt.region {
				t.Errorf("Expected region '%s', got '%s'", tt.region, result.Region)
			}
		})
	}
}

func setupLookupHandler(t *testing.T) *LookupHandler {
	t.Helper()
	store := setupTestStore(t)

	if err := store.SeedUsers([]config.SeedUser{
		{
			Username:    "alpha_trading",
			Password:    "demo123",
			CompanyName: "شركة ألفا التجارية",
			CRNumber:    "1010999999",
			VATNumber:   "310999999999993",
		},
	}); err != nil {
		t.Fatalf("Failed to seed users: %v", err)
	}

	// No API key: registry lookups run in simulation mode
	wathq := service.NewWathqService(&config.WathqConfig{})
	return NewLookupHandler(store, wathq)
}

func postJSON(router *gin.Engine, path string, payload any) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	req := httptest.NewRequest("POST", path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestLookupHandlerValidateBoth(t *testing.T) {
	handler := setupLookupHandler(t)

	router := gin.New()
	router.POST("/validate/both", handler.ValidateBoth)

	w := postJSON(router, "/validate/both", map[string]string{
		"vat": "310123456789003",
		"cr":  "1010123456",
	})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response struct {
		VAT      ValidationResult `json:"vat"`
		CR       ValidationResult `json:"cr"`
		AllValid bool             `json:"all_valid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if !response.AllValid {
		t.Error("Expected all_valid=true")
	}
	if response.CR.Region != "Riyadh" {
		t.Errorf("Expected Riyadh region, got '%s'", response.CR.Region)
	}

	// One invalid number flips all_valid
	w = postJSON(router, "/validate/both", map[string]string{
		"vat": "12345",
		"cr":  "1010123456",
	})
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if response.AllValid {
		t.Error("Expected all_valid=false with bad VAT")
	}
}

func TestLookupHandlerLookupCRLocal(t *testing.T) {
	handler := setupLookupHandler(t)

	router := gin.New()
	router.POST("/lookup/cr", handler.LookupCR)

	w := postJSON(router, "/lookup/cr", map[string]string{"cr": "1010999999"})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response["found"] != true {
		t.Fatal("Expected found=true for registered account")
	}
	if response["source"] != "local" {
		t.Errorf("Expected local source, got '%v'", response["source"])
	}
	if response["company_name"] != "شركة ألفا التجارية" {
		t.Errorf("Unexpected company name '%v'", response["company_name"])
	}
	if response["vat_number"] != "310999999999993" {
		t.Errorf("Unexpected VAT number '%v'", response["vat_number"])
	}
}

func TestLookupHandlerLookupCRSimulated(t *testing.T) {
	handler := setupLookupHandler(t)

	router := gin.New()
	router.POST("/lookup/cr", handler.LookupCR)

	// Known demo company, not a local account
	w := postJSON(router, "/lookup/cr", map[string]string{"cr": "1010084764"})

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}

	var response map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}

	if response["found"] != true {
		t.Fatal("Expected found=true for known demo company")
	}
	if response["source"] != "simulated" {
		t.Errorf("Expected simulated source, got '%v'", response["source"])
	}
	if response["company_name"] != "شركة المراعي" {
		t.Errorf("Unexpected company name '%v'", response["company_name"])
	}
}

func TestLookupHandlerLookupCRMissing(t *testing.T) {
	handler := setupLookupHandler(t)

	router := gin.New()
	router.POST("/lookup/cr", handler.LookupCR)

	w := postJSON(router, "/lookup/cr", map[string]string{"cr": ""})

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400 for empty CR, got %d", w.Code)
	}
}
