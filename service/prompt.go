package service

import (
	"strconv"
	"strings"

	"github.com/al0dan/absher/model"
)

// ContractRequest is the input to the generation pipeline.
type ContractRequest struct {
	Supplier string
	Buyer    string
	Items    string
	Price    float64
	Type     model.ContractType
}

// Prompt is a system/user instruction pair, built once per request.
type Prompt struct {
	System string
	User   string
}

// systemBase frames the Saudi legal context and the output format. Tuned for
// concise Absher-style output from ALLaM-2-7B.
const systemBase = `أنت محامي سعودي. اكتب عقداً عربياً رسمياً مختصراً ومنظماً بصياغة حكومية واضحة.

تنسيق الإخراج:
- لا تستخدم Markdown ولا عناوين ### ولا علامات ` + "```" + ` ولا فواصل زخرفية.
- ابدأ بـ "بسم الله الرحمن الرحيم" ثم عنوان العقد في سطر مستقل.
- بعد التمهيد، اكتب 6–8 مواد مرقمة بصيغة "المادة (1): ...".
- كل مادة جملة أو جملتين فقط، بدون تكرار.
- اذكر البيانات المتفق عليها (البضائع/النطاق، المدة، تاريخ البداية، الدفع) ضمن المواد بشكل طبيعي.
- إذا طُلبت بنود إضافية (مثل الشرط الجزائي أو القوة القاهرة) فخصص لها مادة واضحة.
- اختم بـ "والله ولي التوفيق" ثم "التوقيعات:" وخانتين للتوقيع للطرفين.

قيود:
- لا تذكر عبارات مثل "[ملاحظات AI]" أو "--- التفاصيل التعاقدية ---" ولا تنسخها حرفياً.
- لا تكتب شهادات أو مرفقات أو ملاحظات ختامية خارج نطاق العقد.

المرجع القانوني: نظام المعاملات المدنية السعودي (م/191)
`

// Per-type addenda naming the clauses each contract family must contain.
var typeAddendum = map[model.ContractType]string{
	model.TypeNDA:     "\nالنوع: اتفاقية عدم إفصاح. المواد: تعريف السرية، الالتزامات، الاستثناءات، المدة، الجزاءات.",
	model.TypeService: "\nالنوع: عقد خدمات. المواد: نطاق العمل، المدة، القيمة، الدفع، الجودة، الإنهاء.",
	model.TypeRental:  "\nالنوع: عقد إيجار. المواد: وصف العين، المدة، القيمة، الصيانة، الإخلاء.",
	model.TypeSupply:  "\nالنوع: عقد توريد. المواد: البضائع، الكمية، السعر، التسليم، الضمان، الجزاءات.",
}

// BuildPrompt produces the system and user instructions for a request. It
// never fails; all interpolation is plain string formatting of fields that
// are already validated upstream.
func BuildPrompt(req ContractRequest, ctx ExtractedContext) Prompt {
	contractType := req.Type
	if _, ok := typeAddendum[contractType]; !ok {
		contractType = model.TypeSupply
	}

	var user strings.Builder

	switch contractType {
	case model.TypeNDA:
		user.WriteString("اتفاقية عدم إفصاح:\n")
		user.WriteString("الطرف المفصح: " + req.Supplier + "\n")
		user.WriteString("الطرف المتلقي: " + req.Buyer + "\n")
		user.WriteString("النطاق: " + ctx.Scope)
		// An NDA has no monetary value field; the price carries the
		// confidentiality duration in years when no duration was given.
		if ctx.Duration != "" {
			user.WriteString("\nالمدة: " + ctx.Duration)
		} else {
			user.WriteString("\nالمدة: " + formatPrice(req.Price) + " سنة")
		}
		appendOptionalLine(&user, "بنود إضافية مطلوبة", ctx.ExtraClauses)
		appendOptionalLine(&user, "ملاحظات", ctx.AINotes)

	case model.TypeService:
		user.WriteString("عقد خدمات:\n")
		user.WriteString("مقدم الخدمة: " + req.Supplier + "\n")
		user.WriteString("العميل: " + req.Buyer + "\n")
		user.WriteString("الخدمات/النطاق: " + ctx.Scope + "\n")
		user.WriteString("القيمة: " + formatPrice(req.Price) + " ريال")
		appendStructuredFields(&user, ctx)

	case model.TypeRental:
		user.WriteString("عقد إيجار:\n")
		user.WriteString("المؤجر: " + req.Supplier + "\n")
		user.WriteString("المستأجر: " + req.Buyer + "\n")
		user.WriteString("وصف العين/النطاق: " + ctx.Scope + "\n")
		user.WriteString("الأجرة: " + formatPrice(req.Price) + " ريال")
		appendStructuredFields(&user, ctx)

	default: // supply
		user.WriteString("عقد توريد:\n")
		user.WriteString("المورد: " + req.Supplier + "\n")
		user.WriteString("المشتري: " + req.Buyer + "\n")
		user.WriteString("البضائع/نطاق التوريد: " + ctx.Scope + "\n")
		user.WriteString("القيمة: " + formatPrice(req.Price) + " ريال")
		appendStructuredFields(&user, ctx)
	}

	return Prompt{
		System: systemBase + typeAddendum[contractType],
		User:   user.String(),
	}
}

// appendStructuredFields appends the populated optional fields in fixed
// order: start date, duration, payment terms, extra clauses, AI notes.
func appendStructuredFields(b *strings.Builder, ctx ExtractedContext) {
	appendOptionalLine(b, "تاريخ البداية", ctx.StartDate)
	appendOptionalLine(b, "المدة", ctx.Duration)
	appendOptionalLine(b, "شروط الدفع", ctx.PaymentTerms)
	appendOptionalLine(b, "بنود إضافية مطلوبة", ctx.ExtraClauses)
	appendOptionalLine(b, "ملاحظات", ctx.AINotes)
}

func appendOptionalLine(b *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	b.WriteString("\n" + label + ": " + value)
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
