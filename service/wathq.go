package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/al0dan/absher/config"
	"github.com/al0dan/absher/pkg/logger"
)

// Wathq is the Ministry of Commerce commercial-registration API
// (developer.wathq.sa, v6). When no API key is configured or the API is
// unreachable, lookups fall back to deterministic simulated data so the
// contract flow keeps working in demos and tests.

const (
	wathqProductionURL = "https://api.wathq.sa/commercial-registration"
	wathqSandboxURL    = "https://api.wathq.sa/sandbox/commercial-registration"
)

type WathqService struct {
	config     *config.WathqConfig
	baseURL    string
	httpClient *http.Client

	mu    sync.RWMutex
	cache map[string]*CRInfo
}

// CRInfo is the normalized commercial-registration record.
type CRInfo struct {
	CompanyName   string `json:"company_name"`
	CompanyNameEn string `json:"company_name_en,omitempty"`
	CRNumber      string `json:"cr_number"`
	Status        string `json:"status"`
	City          string `json:"city,omitempty"`
	Capital       int64  `json:"capital,omitempty"`
	EntityType    string `json:"type,omitempty"`
	ExpiryDate    string `json:"expiry_date,omitempty"`
	Simulated     bool   `json:"simulated,omitempty"`
}

// wathqResponse mirrors the subset of the v6 payload we consume.
type wathqResponse struct {
	CRName   string `json:"crName"`
	CRNameEn string `json:"crNameEn"`
	CRNumber string `json:"crNumber"`
	Address  struct {
		City string `json:"city"`
	} `json:"address"`
	Status struct {
		Name string `json:"name"`
	} `json:"status"`
	Capital struct {
		Value int64 `json:"value"`
	} `json:"capital"`
	BusinessType struct {
		Name string `json:"name"`
	} `json:"businessType"`
	ExpiryDate string `json:"expiryDate"`
}

func NewWathqService(cfg *config.WathqConfig) *WathqService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		if cfg.Sandbox {
			baseURL = wathqSandboxURL
		} else {
			baseURL = wathqProductionURL
		}
	}

	return &WathqService{
		config:  cfg,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		cache: make(map[string]*CRInfo),
	}
}

// Lookup returns CR info for a 10-digit registration number, or nil when the
// number is unknown. Errors are absorbed into the simulation fallback: a
// lookup never blocks contract creation.
func (s *WathqService) Lookup(ctx context.Context, crNumber string) *CRInfo {
	if len(crNumber) != 10 {
		return nil
	}

	s.mu.RLock()
	cached, ok := s.cache[crNumber]
	s.mu.RUnlock()
	if ok {
		logger.Debug(ctx, "wathq cache hit", "cr_number", crNumber)
		return cached
	}

	if s.config.APIKey == "" {
		logger.Info(ctx, "wathq key not set, simulating lookup", "cr_number", crNumber)
		return simulateLookup(crNumber)
	}

	info, err := s.fetch(ctx, crNumber)
	if err != nil {
		logger.Warn(ctx, "wathq lookup failed, simulating", "cr_number", crNumber, "error", err)
		return simulateLookup(crNumber)
	}
	if info == nil {
		return nil
	}

	s.mu.Lock()
	s.cache[crNumber] = info
	s.mu.Unlock()

	return info
}

func (s *WathqService) fetch(ctx context.Context, crNumber string) (*CRInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/info/%s", s.baseURL, crNumber), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("apiKey", s.config.APIKey)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("wathq API error: status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var raw wathqResponse
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &CRInfo{
		CompanyName:   raw.CRName,
		CompanyNameEn: raw.CRNameEn,
		CRNumber:      raw.CRNumber,
		Status:        raw.Status.Name,
		City:          raw.Address.City,
		Capital:       raw.Capital.Value,
		EntityType:    raw.BusinessType.Name,
		ExpiryDate:    raw.ExpiryDate,
	}, nil
}

// Known Saudi companies for demo mode.
var knownCRs = map[string]CRInfo{
	"1010084764": {CompanyName: "شركة المراعي", CompanyNameEn: "Almarai Company", City: "الرياض", Capital: 8000000000},
	"1010012345": {CompanyName: "شركة الاتصالات السعودية", CompanyNameEn: "STC", City: "الرياض", Capital: 50000000000},
	"2050008440": {CompanyName: "أرامكو السعودية", CompanyNameEn: "Saudi Aramco", City: "الظهران", Capital: 60000000000},
	"1010010030": {CompanyName: "سابك", CompanyNameEn: "SABIC", City: "الرياض", Capital: 30000000000},
	"1010209450": {CompanyName: "شركة اتحاد اتصالات", CompanyNameEn: "Mobily", City: "الرياض", Capital: 5839000000},
	"4030073366": {CompanyName: "شركة النهدي الطبية", CompanyNameEn: "Al Nahdi Medical", City: "جدة", Capital: 1125000000},
}

var crRegionNames = map[byte]string{
	'1': "الرياض",
	'2': "مكة",
	'3': "المدينة",
	'4': "الشرقية",
	'5': "القصيم",
	'6': "عسير",
}

// simulateLookup returns mock data for known companies and a generic record
// for any other valid-looking CR number.
func simulateLookup(crNumber string) *CRInfo {
	if known, ok := knownCRs[crNumber]; ok {
		info := known
		info.CRNumber = crNumber
		info.Status = "قائم"
		info.EntityType = "شركة ذات مسؤولية محدودة"
		info.Simulated = true
		return &info
	}

	region, ok := crRegionNames[crNumber[0]]
	if !ok {
		return nil
	}

	suffix := crNumber[len(crNumber)-4:]
	return &CRInfo{
		CompanyName:   "مؤسسة " + suffix,
		CompanyNameEn: "Est. " + suffix,
		CRNumber:      crNumber,
		Status:        "قائم",
		City:          region,
		Capital:       100000,
		EntityType:    "مؤسسة فردية",
		Simulated:     true,
	}
}
