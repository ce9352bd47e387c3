package extract

import (
	"path/filepath"
	"regexp"
	"strings"
	"unicode"

	invoice "github.com/teo1264/enel-system/internal/invoice/domain"
)

// Field patterns are ordered by priority: the first pattern whose
// capture group matches in full resolves the field, later patterns are
// never consulted. Adding a synonym means appending a lower-priority
// entry, never reordering the existing ones.
var (
	accountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Instala[cç][aã]o[^\d]{0,10}(\d{6,12})`),
		regexp.MustCompile(`(?i)Unidade Consumidora[^\d]{0,10}(\d{6,12})`),
		regexp.MustCompile(`(?i)\bUC\b[^\d]{0,6}(\d{6,12})`),
	}

	amountPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Total a pagar[^\d]{0,10}R\$\s*([\d.,]+)`),
		regexp.MustCompile(`(?i)Valor total[^\d]{0,10}R\$\s*([\d.,]+)`),
		regexp.MustCompile(`(?i)Valor a pagar[^\d]{0,10}R\$\s*([\d.,]+)`),
		regexp.MustCompile(`R\$\s*([\d.,]+)`),
	}

	dueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Vencimento[^\d]{0,10}(\d{2}[/-]\d{2}[/-]\d{4})`),
		regexp.MustCompile(`(?i)Data limite[^\d]{0,10}(\d{2}[/-]\d{2}[/-]\d{4})`),
		regexp.MustCompile(`(?i)Vencimento[^\d]{0,10}(\d{4}-\d{2}-\d{2})`),
	}

	issueDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Data de emiss[aã]o[^\d]{0,10}(\d{2}[/-]\d{2}[/-]\d{4})`),
		regexp.MustCompile(`(?i)Emiss[aã]o[^\d]{0,10}(\d{2}[/-]\d{2}[/-]\d{4})`),
	}

	documentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Nota Fiscal(?:\s*(?:N[º°o.]|No\.?))?[^\d]{0,6}(\d{6,})`),
		regexp.MustCompile(`(?i)\bNF[-\s:]{0,3}(\d{6,})`),
	}

	consumptionPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Consumo[^\d]{0,24}([\d.,]+)\s*kWh`),
		regexp.MustCompile(`(?i)Energia (?:El[eé]trica|Ativa)[^\d]{0,24}([\d.,]+)\s*kWh`),
		regexp.MustCompile(`(?i)([\d.,]+)\s*kWh`),
	}

	periodPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:Compet[eê]ncia|Refer[eê]ncia|M[eê]s de refer[eê]ncia)\D{0,10}(\d{2}/\d{4})`),
		regexp.MustCompile(`\b(\d{2}/\d{4})\b`),
	}

	// Solar compensation block. The whole block is optional: credits
	// are extracted only when the compensation marker is present, and
	// a marker without parseable credits is not a failure.
	solarMarker       = regexp.MustCompile(`(?i)Compensa[cç][aã]o\s+(?:de\s+)?(?:energia|TUSD|TE)`)
	solarTUSDPattern  = regexp.MustCompile(`(?i)(?:Compensa[cç][aã]o\s+)?TUSD[^\d-]{0,16}-?\s*R?\$?\s*([\d.,]+)`)
	solarTEPattern    = regexp.MustCompile(`(?i)(?:Compensa[cç][aã]o\s+)?\bTE\b[^\d-]{0,16}-?\s*R?\$?\s*([\d.,]+)`)
	solarGrossPattern = regexp.MustCompile(`(?i)Valor\s+(?:integral|sem\s+compensa[cç][aã]o|bruto)[^\d]{0,10}R\$\s*([\d.,]+)`)
)

// readabilityKeywords identify text that plausibly came from a utility
// bill; scanned images that OCR-failed produce none of them.
var readabilityKeywords = []string{
	"enel", "energia", "kwh", "fatura", "instala", "consumidora",
	"vencimento", "distribui",
}

// Extractor resolves invoice fields from the text layer of a billing
// document. It is stateless and safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// Parse resolves every invoice field from text. The source file name
// is recorded on the result and used as a document id fallback when
// the fiscal note number is absent from the text. A nil Failure means
// the record passed domain validation.
func (e *Extractor) Parse(text, sourceFile string) (invoice.InvoiceRecord, *Failure) {
	if !Readable(text) {
		return invoice.InvoiceRecord{}, &Failure{
			Field:   "document",
			Reason:  ReasonUnreadable,
			Snippet: snippet(text),
		}
	}

	rec := invoice.InvoiceRecord{SourceFile: sourceFile}

	account, ok := firstMatch(accountPatterns, text)
	if !ok {
		return invoice.InvoiceRecord{}, unresolvable("account_id", text)
	}
	rec.AccountID = account

	rawAmount, ok := firstMatch(amountPatterns, text)
	if !ok {
		return invoice.InvoiceRecord{}, unresolvable("total_amount", text)
	}
	amount, err := parseDecimalBR(rawAmount)
	if err != nil {
		return invoice.InvoiceRecord{}, unresolvable("total_amount", rawAmount)
	}
	rec.TotalAmount = amount

	rawDue, ok := firstMatch(dueDatePatterns, text)
	if !ok {
		return invoice.InvoiceRecord{}, unresolvable("due_date", text)
	}
	due, ok := parseDateBR(rawDue)
	if !ok {
		return invoice.InvoiceRecord{}, unresolvable("due_date", rawDue)
	}
	rec.DueDate = due

	// Issue date is informational; its absence does not fail the
	// document.
	if rawIssue, ok := firstMatch(issueDatePatterns, text); ok {
		if issue, ok := parseDateBR(rawIssue); ok {
			rec.IssueDate = issue
		}
	}

	rawConsumption, ok := firstMatch(consumptionPatterns, text)
	if !ok {
		return invoice.InvoiceRecord{}, unresolvable("consumption_kwh", text)
	}
	consumption, err := parseFloatBR(rawConsumption)
	if err != nil {
		return invoice.InvoiceRecord{}, unresolvable("consumption_kwh", rawConsumption)
	}
	rec.ConsumptionKWh = consumption

	rawPeriod, ok := firstMatch(periodPatterns, text)
	if !ok {
		return invoice.InvoiceRecord{}, unresolvable("billing_period", text)
	}
	period, err := invoice.ParseBillingPeriod(rawPeriod)
	if err != nil {
		return invoice.InvoiceRecord{}, unresolvable("billing_period", rawPeriod)
	}
	rec.Period = period

	if doc, ok := firstMatch(documentPatterns, text); ok {
		rec.DocumentID = doc
	} else {
		rec.DocumentID = documentIDFromFile(sourceFile)
	}
	if rec.DocumentID == "" {
		return invoice.InvoiceRecord{}, unresolvable("document_id", text)
	}

	rec.Solar = parseSolar(text)

	if err := rec.Validate(); err != nil {
		return invoice.InvoiceRecord{}, &Failure{
			Field:   "record",
			Reason:  err.Error(),
			Snippet: snippet(text),
		}
	}
	return rec, nil
}

func parseSolar(text string) *invoice.SolarOffset {
	if !solarMarker.MatchString(text) {
		return nil
	}
	offset := &invoice.SolarOffset{}
	found := false
	if m := solarTUSDPattern.FindStringSubmatch(text); m != nil {
		if d, err := parseDecimalBR(m[1]); err == nil {
			offset.TUSDCredit = d
			found = true
		}
	}
	if m := solarTEPattern.FindStringSubmatch(text); m != nil {
		if d, err := parseDecimalBR(m[1]); err == nil {
			offset.TECredit = d
			found = true
		}
	}
	if !found {
		return nil
	}
	if m := solarGrossPattern.FindStringSubmatch(text); m != nil {
		if d, err := parseDecimalBR(m[1]); err == nil {
			offset.GrossAmount = d
		}
	}
	return offset
}

func firstMatch(patterns []*regexp.Regexp, text string) (string, bool) {
	for _, p := range patterns {
		if m := p.FindStringSubmatch(text); m != nil {
			return strings.TrimSpace(m[1]), true
		}
	}
	return "", false
}

// documentIDFromFile derives a fallback document id from the source
// file name, keeping only characters that survive as an identifier.
func documentIDFromFile(name string) string {
	base := filepath.Base(name)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	var b strings.Builder
	for _, r := range base {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Readable reports whether text looks like the text layer of a real
// bill rather than OCR noise or an empty scan. It requires a minimum
// length, at least two domain keywords, and a majority of printable
// word characters.
func Readable(text string) bool {
	const (
		minLength   = 50
		minKeywords = 2
		minQuality  = 0.6
	)
	if len(text) < minLength {
		return false
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, kw := range readabilityKeywords {
		if strings.Contains(lower, kw) {
			hits++
		}
	}
	if hits < minKeywords {
		return false
	}
	readable := 0
	total := 0
	for _, r := range text {
		total++
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) || unicode.IsPunct(r) || r == '$' {
			readable++
		}
	}
	return float64(readable)/float64(total) >= minQuality
}
