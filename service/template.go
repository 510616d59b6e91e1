package service

import (
	"strings"
	"time"

	"github.com/al0dan/absher/model"
)

// Deterministic fallback used when every generation backend fails. Always
// succeeds; structure is fixed modulo the interpolated fields.

var templateTitles = map[model.ContractType]string{
	model.TypeSupply:  "عقد توريد",
	model.TypeService: "عقد خدمات",
	model.TypeNDA:     "اتفاقية عدم إفصاح",
	model.TypeRental:  "عقد إيجار",
}

// TemplateContract renders the static contract for a request. now supplies
// the agreement date so tests can pin it.
func TemplateContract(req ContractRequest, ctx ExtractedContext, now time.Time) string {
	title, ok := templateTitles[req.Type]
	if !ok {
		title = templateTitles[model.TypeSupply]
	}

	duration := ctx.Duration
	if req.Type == model.TypeNDA && duration == "" {
		// The NDA form reuses the price field as a confidentiality
		// duration in years.
		duration = formatPrice(req.Price) + " سنة"
	}

	// Four fixed phrasings covering the start-date/duration combinations.
	durationText := "يلتزم الطرف الأول بالتوريد خلال المدة المتفق عليها."
	switch {
	case ctx.StartDate != "" && duration != "":
		durationText = "تبدأ مدة العقد من تاريخ " + ctx.StartDate + " ولمدة " + duration + "، ويلتزم الطرف الأول بالتوريد خلال هذه المدة."
	case ctx.StartDate != "":
		durationText = "تبدأ مدة العقد من تاريخ " + ctx.StartDate + "، ويلتزم الطرف الأول بالتوريد خلال المدة المتفق عليها."
	case duration != "":
		durationText = "مدة العقد: " + duration + "، ويلتزم الطرف الأول بالتوريد خلال هذه المدة."
	}

	paymentText := "تُدفع عند استلام البضائع والتحقق من مطابقتها للمواصفات."
	if ctx.PaymentTerms != "" {
		paymentText = "تُدفع وفقاً لشروط الدفع المتفق عليها: " + ctx.PaymentTerms + "."
	}

	guaranteeText := "يضمن الطرف الأول جودة المنتجات لمدة سنة من تاريخ التسليم."
	if req.Type == model.TypeNDA {
		guaranteeText = "يلتزم الطرفان بالمحافظة على سرية المعلومات المتبادلة وعدم إفشائها للغير طوال مدة الاتفاقية."
	}

	var b strings.Builder
	b.WriteString("بسم الله الرحمن الرحيم\n\n")
	b.WriteString(title + "\n\n")
	b.WriteString("تم الاتفاق في " + now.Format("2006/01/02") + " بين:\n\n")
	b.WriteString("الطرف الأول (المورد): " + req.Supplier + "\n")
	b.WriteString("الطرف الثاني (المشتري): " + req.Buyer + "\n\n")
	b.WriteString("البند الأول - موضوع العقد:\n")
	b.WriteString("يلتزم الطرف الأول بتوريد المواد التالية:\n")
	b.WriteString(ctx.Scope + "\n")
	b.WriteString("وفقاً للمواصفات والمعايير القياسية المعتمدة.\n\n")
	b.WriteString("البند الثاني - القيمة:\n")
	b.WriteString("القيمة الإجمالية للعقد: " + formatPrice(req.Price) + " ريال سعودي\n")
	b.WriteString(paymentText + "\n\n")
	b.WriteString("البند الثالث - مدة التوريد:\n")
	b.WriteString(durationText + "\n\n")
	b.WriteString("البند الرابع - الضمانات:\n")
	b.WriteString(guaranteeText + "\n\n")
	b.WriteString("البند الخامس - القانون الواجب التطبيق:\n")
	b.WriteString("يخضع هذا العقد لأحكام نظام المعاملات المدنية السعودي الصادر بالمرسوم الملكي رقم م/191.\n\n")
	b.WriteString("البند السادس - فض النزاعات:\n")
	b.WriteString("في حال نشوء أي خلاف، يتم اللجوء أولاً للتسوية الودية، وإلا فالمحاكم السعودية المختصة.")

	if ctx.ExtraClauses != "" {
		b.WriteString("\n\nالبند السابع - بنود إضافية:\n")
		b.WriteString("يتفق الطرفان على تضمين البنود الإضافية التالية: " + ctx.ExtraClauses + ".")
	}

	b.WriteString("\n\nتحرر هذا العقد من نسختين لكل طرف نسخة للعمل بموجبها.\n")

	return b.String()
}
