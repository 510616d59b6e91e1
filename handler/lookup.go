package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/al0dan/absher/service"
)

// LookupHandler validates Saudi tax/registration numbers and resolves CR
// numbers to company details, first against local accounts and then against
// the Wathq commercial registry.
type LookupHandler struct {
	store *service.Store
	wathq *service.WathqService
}

func NewLookupHandler(store *service.Store, wathqSvc *service.WathqService) *LookupHandler {
	return &LookupHandler{store: store, wathq: wathqSvc}
}

// ValidationResult is the outcome of a single number check.
type ValidationResult struct {
	Valid     bool   `json:"valid"`
	Error     string `json:"error,omitempty"`
	Formatted string `json:"formatted,omitempty"`
	Region    string `json:"region,omitempty"`
}

var crRegions = map[byte]string{
	'1': "Riyadh",
	'2': "Makkah",
	'3': "Madinah",
	'4': "Eastern",
	'5': "Qassim",
	'6': "Asir",
}

// ValidateVATNumber checks a Saudi VAT registration number: 15 digits,
// starting and ending with 3.
func ValidateVATNumber(vat string) ValidationResult {
	if vat == "" {
		return ValidationResult{Error: "VAT number is required"}
	}
	vat = strings.NewReplacer(" ", "", "-", "").Replace(vat)
	if !isDigits(vat) {
		return ValidationResult{Error: "VAT number must contain only digits"}
	}
	if len(vat) != 15 {
		return ValidationResult{Error: "VAT number must be 15 digits"}
	}
	if vat[0] != '3' {
		return ValidationResult{Error: "Saudi VAT must start with 3"}
	}
	if vat[len(vat)-1] != '3' {
		return ValidationResult{Error: "Saudi VAT must end with 3"}
	}
	return ValidationResult{Valid: true, Formatted: vat}
}

// ValidateCRNumber checks a commercial registration number: 10 digits, with
// the leading digit naming the issuing region.
func ValidateCRNumber(cr string) ValidationResult {
	if cr == "" {
		return ValidationResult{Error: "CR number is required"}
	}
	cr = strings.NewReplacer(" ", "", "-", "").Replace(cr)
	if !isDigits(cr) {
		return ValidationResult{Error: "CR number must contain only digits"}
	}
	if len(cr) != 10 {
		return ValidationResult{Error: "CR number must be 10 digits"}
	}
	region, ok := crRegions[cr[0]]
	if !ok {
		region = "Unknown"
	}
	return ValidationResult{Valid: true, Formatted: cr, Region: region}
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

type vatRequest struct {
	VAT string `json:"vat"`
}

type crRequest struct {
	CR string `json:"cr"`
}

type bothRequest struct {
	VAT string `json:"vat"`
	CR  string `json:"cr"`
}

// ValidateVAT validates a VAT number
func (h *LookupHandler) ValidateVAT(c *gin.Context) {
	var req vatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	c.JSON(http.StatusOK, ValidateVATNumber(req.VAT))
}

// ValidateCR validates a CR number
func (h *LookupHandler) ValidateCR(c *gin.Context) {
	var req crRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}
	c.JSON(http.StatusOK, ValidateCRNumber(req.CR))
}

// ValidateBoth validates a VAT and CR number pair
func (h *LookupHandler) ValidateBoth(c *gin.Context) {
	var req bothRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	vatResult := ValidateVATNumber(req.VAT)
	crResult := ValidateCRNumber(req.CR)

	c.JSON(http.StatusOK, gin.H{
		"vat":       vatResult,
		"cr":        crResult,
		"all_valid": vatResult.Valid && crResult.Valid,
	})
}

// LookupCR resolves a CR number to company details
func (h *LookupHandler) LookupCR(c *gin.Context) {
	var req crRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	cr := strings.TrimSpace(req.CR)
	if cr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"found": false, "error": "CR required"})
		return
	}

	// Registered accounts take priority over the registry
	user, err := h.store.GetUserByCR(c.Request.Context(), cr)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"found":        true,
			"company_name": user.CompanyName,
			"vat_number":   user.VATNumber,
			"source":       "local",
		})
		return
	}
	if !errors.Is(err, service.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to query accounts"})
		return
	}

	info := h.wathq.Lookup(c.Request.Context(), cr)
	if info == nil {
		c.JSON(http.StatusOK, gin.H{"found": false})
		return
	}

	source := "wathq"
	if info.Simulated {
		source = "simulated"
	}
	c.JSON(http.StatusOK, gin.H{
		"found":           true,
		"company_name":    info.CompanyName,
		"company_name_en": info.CompanyNameEn,
		"status":          info.Status,
		"city":            info.City,
		"source":          source,
	})
}
