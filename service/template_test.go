package service

import (
	"strings"
	"testing"
	"time"

	"github.com/al0dan/absher/model"
)

var templateNow = time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)

func TestTemplateContractStructure(t *testing.T) {
	req := ContractRequest{
		Supplier: "شركة ألفا",
		Buyer:    "مؤسسة بيتا",
		Items:    "توريد أجهزة حاسب",
		Price:    50000,
		Type:     model.TypeSupply,
	}
	out := TemplateContract(req, ExtractContext(req.Items), templateNow)

	for _, want := range []string{
		"بسم الله الرحمن الرحيم",
		"عقد توريد",
		"تم الاتفاق في 2026/03/15",
		"الطرف الأول (المورد): شركة ألفا",
		"الطرف الثاني (المشتري): مؤسسة بيتا",
		"البند الأول - موضوع العقد:",
		"توريد أجهزة حاسب",
		"القيمة الإجمالية للعقد: 50000 ريال سعودي",
		"البند الخامس - القانون الواجب التطبيق:",
		"م/191",
		"تحرر هذا العقد من نسختين",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected '%s' in template output", want)
		}
	}
}

func TestTemplateContractTitles(t *testing.T) {
	tests := []struct {
		ctype model.ContractType
		title string
	}{
		{model.TypeSupply, "عقد توريد"},
		{model.TypeService, "عقد خدمات"},
		{model.TypeNDA, "اتفاقية عدم إفصاح"},
		{model.TypeRental, "عقد إيجار"},
	}

	for _, tt := range tests {
		req := ContractRequest{Supplier: "أ", Buyer: "ب", Items: "نطاق", Price: 10, Type: tt.ctype}
		out := TemplateContract(req, ExtractContext(req.Items), templateNow)
		if !strings.Contains(out, tt.title) {
			t.Errorf("Expected title '%s' for type %s", tt.title, tt.ctype)
		}
	}
}

func TestTemplateContractDurationPhrasings(t *testing.T) {
	req := ContractRequest{Supplier: "أ", Buyer: "ب", Items: "نطاق", Price: 10, Type: model.TypeSupply}

	tests := []struct {
		name string
		ctx  ExtractedContext
		want string
	}{
		{
			name: "start date and duration",
			ctx:  ExtractedContext{Scope: "نطاق", StartDate: "2026/01/01", Duration: "90 يوم"},
			want: "تبدأ مدة العقد من تاريخ 2026/01/01 ولمدة 90 يوم",
		},
		{
			name: "start date only",
			ctx:  ExtractedContext{Scope: "نطاق", StartDate: "2026/01/01"},
			want: "تبدأ مدة العقد من تاريخ 2026/01/01، ويلتزم",
		},
		{
			name: "duration only",
			ctx:  ExtractedContext{Scope: "نطاق", Duration: "90 يوم"},
			want: "مدة العقد: 90 يوم",
		},
		{
			name: "neither",
			ctx:  ExtractedContext{Scope: "نطاق"},
			want: "يلتزم الطرف الأول بالتوريد خلال المدة المتفق عليها.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := TemplateContract(req, tt.ctx, templateNow)
			if !strings.Contains(out, tt.want) {
				t.Errorf("Expected phrasing '%s' in output", tt.want)
			}
		})
	}
}

func TestTemplateContractPaymentTerms(t *testing.T) {
	req := ContractRequest{Supplier: "أ", Buyer: "ب", Items: "نطاق", Price: 10, Type: model.TypeSupply}

	out := TemplateContract(req, ExtractedContext{Scope: "نطاق", PaymentTerms: "دفعتان متساويتان"}, templateNow)
	if !strings.Contains(out, "وفقاً لشروط الدفع المتفق عليها: دفعتان متساويتان.") {
		t.Error("Expected custom payment terms phrasing")
	}

	out = TemplateContract(req, ExtractedContext{Scope: "نطاق"}, templateNow)
	if !strings.Contains(out, "تُدفع عند استلام البضائع") {
		t.Error("Expected default payment phrasing")
	}
}

func TestTemplateContractNDA(t *testing.T) {
	req := ContractRequest{
		Supplier: "شركة ألفا",
		Buyer:    "مؤسسة بيتا",
		Items:    "معلومات سرية",
		Price:    5,
		Type:     model.TypeNDA,
	}
	out := TemplateContract(req, ExtractContext(req.Items), templateNow)

	// Price renders as a confidentiality duration in years
	if !strings.Contains(out, "مدة العقد: 5 سنة") {
		t.Errorf("Expected NDA price-as-years duration, got: %s", out)
	}
	if !strings.Contains(out, "بالمحافظة على سرية المعلومات") {
		t.Error("Expected NDA guarantee clause")
	}
}

func TestTemplateContractExtraClauses(t *testing.T) {
	req := ContractRequest{Supplier: "أ", Buyer: "ب", Items: "نطاق", Price: 10, Type: model.TypeSupply}

	out := TemplateContract(req, ExtractedContext{Scope: "نطاق", ExtraClauses: "شرط جزائي، قوة قاهرة"}, templateNow)
	if !strings.Contains(out, "البند السابع - بنود إضافية:") {
		t.Error("Expected seventh clause with extra clauses")
	}
	if !strings.Contains(out, "شرط جزائي، قوة قاهرة") {
		t.Error("Expected extra clauses content")
	}

	out = TemplateContract(req, ExtractedContext{Scope: "نطاق"}, templateNow)
	if strings.Contains(out, "البند السابع") {
		t.Error("Expected no seventh clause without extra clauses")
	}
}
