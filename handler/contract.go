package handler

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/al0dan/absher/middleware"
	"github.com/al0dan/absher/model"
	"github.com/al0dan/absher/pkg/logger"
	"github.com/al0dan/absher/service"
)

type ContractHandler struct {
	store   *service.Store
	ai      *service.AIService
	zatca   *service.ZatcaService
	archive *service.ArchiveService // nil when archiving is disabled
}

func NewContractHandler(store *service.Store, aiSvc *service.AIService, zatcaSvc *service.ZatcaService, archiveSvc *service.ArchiveService) *ContractHandler {
	return &ContractHandler{
		store:   store,
		ai:      aiSvc,
		zatca:   zatcaSvc,
		archive: archiveSvc,
	}
}

type CreateContractRequest struct {
	Supplier     string  `json:"supplier"`
	Buyer        string  `json:"buyer"`
	SupplierVAT  string  `json:"supplier_vat"`
	BuyerVAT     string  `json:"buyer_vat"`
	SupplierCR   string  `json:"supplier_cr"`
	BuyerCR      string  `json:"buyer_cr"`
	Items        string  `json:"items"`
	Price        float64 `json:"price"`
	ContractType string  `json:"contract_type"`
}

func (r *CreateContractRequest) validate() []string {
	var errs []string
	if len([]rune(r.Supplier)) < 3 {
		errs = append(errs, "Provider name too short")
	}
	if len([]rune(r.Buyer)) < 3 {
		errs = append(errs, "Buyer name too short")
	}
	if len([]rune(r.Items)) < 10 {
		errs = append(errs, "Items description too short")
	}
	if r.SupplierVAT != "" {
		if res := ValidateVATNumber(r.SupplierVAT); !res.Valid {
			errs = append(errs, "Supplier VAT: "+res.Error)
		}
	}
	if r.BuyerVAT != "" {
		if res := ValidateVATNumber(r.BuyerVAT); !res.Valid {
			errs = append(errs, "Buyer VAT: "+res.Error)
		}
	}
	if r.Price < 0.01 {
		errs = append(errs, "Price invalid")
	}
	return errs
}

// Create validates the request, generates the contract text through the
// provider chain, and stores the contract with fresh signing tokens for both
// parties.
func (h *ContractHandler) Create(c *gin.Context) {
	var req CreateContractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if errs := req.validate(); len(errs) > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "messages": errs})
		return
	}

	contractType := model.NormalizeType(req.ContractType)

	result := h.ai.GenerateContractText(c.Request.Context(), service.ContractRequest{
		Supplier: req.Supplier,
		Buyer:    req.Buyer,
		Items:    req.Items,
		Price:    req.Price,
		Type:     contractType,
	})

	contract := &model.Contract{
		ID:            uuid.New().String()[:8],
		Supplier:      req.Supplier,
		Buyer:         req.Buyer,
		SupplierVAT:   req.SupplierVAT,
		BuyerVAT:      req.BuyerVAT,
		SupplierCR:    req.SupplierCR,
		BuyerCR:       req.BuyerCR,
		Items:         req.Items,
		Price:         req.Price,
		ContractType:  contractType,
		ContractText:  result.Text,
		Provider:      result.Provider,
		SupplierToken: uuid.New().String(),
		BuyerToken:    uuid.New().String(),
	}

	if err := h.store.CreateContract(c.Request.Context(), contract); err != nil {
		logger.Error(c.Request.Context(), "failed to store contract", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store contract"})
		return
	}

	if h.archive != nil {
		if err := h.archive.SaveContractText(c.Request.Context(), contract.ID, contract.ContractText); err != nil {
			logger.Warn(c.Request.Context(), "failed to archive contract text", "contract_id", contract.ID, "error", err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"id":           contract.ID,
		"provider":     contract.Provider,
		"supplier_url": fmt.Sprintf("http://%s/contract/%s", c.Request.Host, contract.SupplierToken),
		"buyer_url":    fmt.Sprintf("http://%s/contract/%s", c.Request.Host, contract.BuyerToken),
	})
}

// List returns all contracts where the caller's CR is a party
func (h *ContractHandler) List(c *gin.Context) {
	crNumber := middleware.GetCRNumber(c)
	if crNumber == "" {
		c.JSON(http.StatusOK, gin.H{"contracts": []gin.H{}})
		return
	}

	contracts, err := h.store.ListContractsByCR(c.Request.Context(), crNumber)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts"})
		return
	}

	result := make([]gin.H, len(contracts))
	for i, contract := range contracts {
		result[i] = gin.H{
			"id":            contract.ID,
			"supplier":      contract.Supplier,
			"buyer":         contract.Buyer,
			"price":         contract.Price,
			"contract_type": contract.ContractType,
			"status":        contract.Status(),
			"created_at":    contract.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			"updated_at":    contract.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
		}
	}

	c.JSON(http.StatusOK, gin.H{"contracts": result})
}

// Get returns a single contract; the caller must be a party to it
func (h *ContractHandler) Get(c *gin.Context) {
	contract, ok := h.loadPartyContract(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, contractView(contract, h.roleFor(c, contract)))
}

// GetByToken returns the contract holding a signing token. No session is
// required: the token itself is the capability.
func (h *ContractHandler) GetByToken(c *gin.Context) {
	token := c.Param("token")

	contract, err := h.store.GetContractByToken(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract"})
		return
	}

	role := model.RoleSupplier
	if token == contract.BuyerToken {
		role = model.RoleBuyer
	}

	c.JSON(http.StatusOK, contractView(contract, role))
}

type SignRequest struct {
	Role          string `json:"role" binding:"required"`
	Name          string `json:"name" binding:"required"`
	SignatureData string `json:"signature_data"`
}

// Sign records a party's signature on a contract
func (h *ContractHandler) Sign(c *gin.Context) {
	id := c.Param("id")

	var req SignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if req.Role != model.RoleSupplier && req.Role != model.RoleBuyer {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role"})
		return
	}

	err := h.store.SignContract(c.Request.Context(), id, req.Role, req.Name, req.SignatureData)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to sign contract"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "signed"})
}

// Export serves the contract text as a downloadable plain-text document
func (h *ContractHandler) Export(c *gin.Context) {
	id := c.Param("id")

	contract, err := h.store.GetContract(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=contract_%s.txt", contract.ID))
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(contract.ContractText))
}

// Invoice generates and serves the ZATCA UBL invoice for a contract
func (h *ContractHandler) Invoice(c *gin.Context) {
	id := c.Param("id")

	contract, err := h.store.GetContract(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract"})
		return
	}

	data, err := h.zatca.GenerateInvoiceXML(contract)
	if err != nil {
		logger.Error(c.Request.Context(), "invoice generation failed", "contract_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate invoice"})
		return
	}

	if h.archive != nil {
		if err := h.archive.SaveInvoiceXML(c.Request.Context(), contract.ID, data); err != nil {
			logger.Warn(c.Request.Context(), "failed to archive invoice", "contract_id", contract.ID, "error", err)
		}
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=invoice_%s.xml", contract.ID))
	c.Data(http.StatusOK, "application/xml", data)
}

// archiveURLExpiry bounds how long archive download links stay valid.
const archiveURLExpiry = 15 * time.Minute

// ArchiveURLs returns presigned download links for a contract's archived
// artifacts. Available only when object-storage archiving is configured.
func (h *ContractHandler) ArchiveURLs(c *gin.Context) {
	if h.archive == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Archiving disabled"})
		return
	}

	contract, ok := h.loadPartyContract(c)
	if !ok {
		return
	}

	textURL, err := h.archive.ContractTextURL(c.Request.Context(), contract.ID, archiveURLExpiry)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to presign contract archive", "contract_id", contract.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate archive links"})
		return
	}
	invoiceURL, err := h.archive.InvoiceURL(c.Request.Context(), contract.ID, archiveURLExpiry)
	if err != nil {
		logger.Error(c.Request.Context(), "failed to presign invoice archive", "contract_id", contract.ID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate archive links"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"contract_url": textURL,
		"invoice_url":  invoiceURL,
		"expires_in":   int(archiveURLExpiry.Seconds()),
	})
}

// Dashboard returns aggregate statistics over the caller's contracts
func (h *ContractHandler) Dashboard(c *gin.Context) {
	crNumber := middleware.GetCRNumber(c)

	// An empty CR claim must not match contracts stored with empty party CRs
	var contracts []*model.Contract
	if crNumber != "" {
		var err error
		contracts, err = h.store.ListContractsByCR(c.Request.Context(), crNumber)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list contracts"})
			return
		}
	}

	var totalValue float64
	typeStats := map[model.ContractType]int{
		model.TypeSupply:  0,
		model.TypeService: 0,
		model.TypeNDA:     0,
		model.TypeRental:  0,
	}
	statusStats := map[string]int{"signed": 0, "pending": 0}
	var actionsRequired []gin.H

	for _, contract := range contracts {
		totalValue += contract.Price
		typeStats[contract.ContractType]++

		if contract.Status() == model.StatusComplete {
			statusStats["signed"]++
		} else {
			statusStats["pending"]++
		}

		// My side is unsigned: this contract is waiting on me
		needsMe := (contract.SupplierCR == crNumber && !contract.SignedBySupplier) ||
			(contract.BuyerCR == crNumber && !contract.SignedByBuyer)
		if needsMe {
			actionsRequired = append(actionsRequired, gin.H{
				"id":            contract.ID,
				"supplier":      contract.Supplier,
				"buyer":         contract.Buyer,
				"contract_type": contract.ContractType,
				"price":         contract.Price,
			})
		}
	}

	if actionsRequired == nil {
		actionsRequired = []gin.H{}
	}

	c.JSON(http.StatusOK, gin.H{
		"total_contracts":  len(contracts),
		"total_value":      totalValue,
		"type_stats":       typeStats,
		"status_stats":     statusStats,
		"actions_required": actionsRequired,
	})
}

// loadPartyContract loads the contract from the id param and verifies the
// caller's CR is one of the parties.
func (h *ContractHandler) loadPartyContract(c *gin.Context) (*model.Contract, bool) {
	id := c.Param("id")
	crNumber := middleware.GetCRNumber(c)

	contract, err := h.store.GetContract(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load contract"})
		return nil, false
	}

	if contract.SupplierCR != crNumber && contract.BuyerCR != crNumber {
		c.JSON(http.StatusNotFound, gin.H{"error": "Contract not found"})
		return nil, false
	}

	return contract, true
}

func (h *ContractHandler) roleFor(c *gin.Context, contract *model.Contract) string {
	crNumber := middleware.GetCRNumber(c)
	switch crNumber {
	case contract.SupplierCR:
		return model.RoleSupplier
	case contract.BuyerCR:
		return model.RoleBuyer
	default:
		return "public"
	}
}

func contractView(contract *model.Contract, role string) gin.H {
	return gin.H{
		"contract":  contract,
		"view_role": role,
		"status":    contract.Status(),
	}
}
