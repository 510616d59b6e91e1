package service

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/al0dan/absher/model"
)

// ZATCA e-invoicing: generates a simplified UBL 2.1 tax invoice for a
// contract. Production ZATCA clearance additionally requires CSID signing,
// QR TLV codes, and hash chains; this emits the standard XML structure that
// downstream systems consume.

const (
	vatRate = 0.15

	nsInvoice = "urn:oasis:names:specification:ubl:schema:xsd:Invoice-2"
	nsCAC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonAggregateComponents-2"
	nsCBC     = "urn:oasis:names:specification:ubl:schema:xsd:CommonBasicComponents-2"

	defaultVATNumber = "300000000000003"
)

type ublInvoice struct {
	XMLName xml.Name `xml:"Invoice"`
	Xmlns   string   `xml:"xmlns,attr"`
	CAC     string   `xml:"xmlns:cac,attr"`
	CBC     string   `xml:"xmlns:cbc,attr"`

	ProfileID            string      `xml:"cbc:ProfileID"`
	ID                   string      `xml:"cbc:ID"`
	UUID                 string      `xml:"cbc:UUID"`
	IssueDate            string      `xml:"cbc:IssueDate"`
	IssueTime            string      `xml:"cbc:IssueTime"`
	InvoiceTypeCode      typedCode   `xml:"cbc:InvoiceTypeCode"`
	DocumentCurrencyCode string      `xml:"cbc:DocumentCurrencyCode"`
	TaxCurrencyCode      string      `xml:"cbc:TaxCurrencyCode"`
	Supplier             ublParty    `xml:"cac:AccountingSupplierParty"`
	Customer             ublParty    `xml:"cac:AccountingCustomerParty"`
	TaxTotal             ublTaxTotal `xml:"cac:TaxTotal"`
	LegalMonetaryTotal   ublTotals   `xml:"cac:LegalMonetaryTotal"`
	InvoiceLine          ublLine     `xml:"cac:InvoiceLine"`
}

type typedCode struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type ublParty struct {
	Party struct {
		PartyName struct {
			Name string `xml:"cbc:Name"`
		} `xml:"cac:PartyName"`
		TaxScheme *ublPartyTaxScheme `xml:"cac:PartyTaxScheme,omitempty"`
	} `xml:"cac:Party"`
}

type ublPartyTaxScheme struct {
	CompanyID string `xml:"cbc:CompanyID"`
	TaxScheme struct {
		ID string `xml:"cbc:ID"`
	} `xml:"cac:TaxScheme"`
}

type ublTaxTotal struct {
	TaxAmount ublAmount `xml:"cbc:TaxAmount"`
}

type ublTotals struct {
	LineExtensionAmount ublAmount `xml:"cbc:LineExtensionAmount"`
	TaxExclusiveAmount  ublAmount `xml:"cbc:TaxExclusiveAmount"`
	TaxInclusiveAmount  ublAmount `xml:"cbc:TaxInclusiveAmount"`
	PayableAmount       ublAmount `xml:"cbc:PayableAmount"`
}

type ublLine struct {
	ID                  string      `xml:"cbc:ID"`
	InvoicedQuantity    ublQuantity `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount ublAmount   `xml:"cbc:LineExtensionAmount"`
	Item                struct {
		Name string `xml:"cbc:Name"`
	} `xml:"cac:Item"`
	Price struct {
		PriceAmount ublAmount `xml:"cbc:PriceAmount"`
	} `xml:"cac:Price"`
}

type ublAmount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

type ublQuantity struct {
	UnitCode string `xml:"unitCode,attr"`
	Value    string `xml:",chardata"`
}

// ZatcaService renders invoices for signed contracts.
type ZatcaService struct {
	now func() time.Time
}

func NewZatcaService() *ZatcaService {
	return &ZatcaService{now: time.Now}
}

// GenerateInvoiceXML produces the UBL 2.1 invoice for a contract with a 15%
// VAT line.
func (s *ZatcaService) GenerateInvoiceXML(c *model.Contract) ([]byte, error) {
	now := s.now()

	vatAmount := c.Price * vatRate
	total := c.Price + vatAmount

	supplierVAT := c.SupplierVAT
	if supplierVAT == "" {
		supplierVAT = defaultVATNumber
	}

	inv := ublInvoice{
		Xmlns:                nsInvoice,
		CAC:                  nsCAC,
		CBC:                  nsCBC,
		ProfileID:            "reporting:1.0",
		ID:                   c.ID,
		UUID:                 uuid.New().String(),
		IssueDate:            now.Format("2006-01-02"),
		IssueTime:            now.Format("15:04:05"),
		InvoiceTypeCode:      typedCode{Name: "0100000", Value: "388"}, // tax invoice
		DocumentCurrencyCode: "SAR",
		TaxCurrencyCode:      "SAR",
		TaxTotal:             ublTaxTotal{TaxAmount: sar(vatAmount)},
		LegalMonetaryTotal: ublTotals{
			LineExtensionAmount: sar(c.Price),
			TaxExclusiveAmount:  sar(c.Price),
			TaxInclusiveAmount:  sar(total),
			PayableAmount:       sar(total),
		},
	}

	inv.Supplier.Party.PartyName.Name = c.Supplier
	inv.Supplier.Party.TaxScheme = &ublPartyTaxScheme{CompanyID: supplierVAT}
	inv.Supplier.Party.TaxScheme.TaxScheme.ID = "VAT"
	inv.Customer.Party.PartyName.Name = c.Buyer

	inv.InvoiceLine = ublLine{
		ID:                  "1",
		InvoicedQuantity:    ublQuantity{UnitCode: "UNIT", Value: "1"},
		LineExtensionAmount: sar(c.Price),
	}
	inv.InvoiceLine.Item.Name = runePrefix(c.Items, 50)
	inv.InvoiceLine.Price.PriceAmount = sar(c.Price)

	out, err := xml.MarshalIndent(inv, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal invoice: %w", err)
	}

	return append([]byte(xml.Header), out...), nil
}

func sar(amount float64) ublAmount {
	return ublAmount{CurrencyID: "SAR", Value: fmt.Sprintf("%.2f", amount)}
}
