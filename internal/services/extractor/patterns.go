package extractor

import (
	"regexp"
	"strings"
)

// Confirmation-page text patterns. The portals render the acuse as prose,
// not structured data; these are anchored on the labels that have stayed
// stable across portal revisions.
var (
	folioPattern = regexp.MustCompile(`(?i)(?:folio|n[úu]mero de solicitud|buzón electrónico)[:\s#]*([A-Z0-9][A-Z0-9/_-]{4,30})`)

	// Fallback for confirmation pages that print the folio as a bare
	// token with no label, e.g. CCL-QRO-AB1234Z
	bareFolioPattern = regexp.MustCompile(`\b([A-Z]{2,6}[-/][A-Z0-9][A-Z0-9/_-]{3,28})\b`)

	datePattern = regexp.MustCompile(`(\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}-\d{2}-\d{2})`)

	timePattern = regexp.MustCompile(`(\d{1,2}:\d{2})\s*(?:hrs|horas|h\b|[ap]\.?m\.?)?`)

	meetingLinkPattern = regexp.MustCompile(`https?://[^\s"'<>]*(?:meet|zoom|teams|videoconferencia)[^\s"'<>]*`)

	modalityPattern = regexp.MustCompile(`(?i)\b(remota|virtual|videoconferencia|presencial)\b`)

	deadlinePattern = regexp.MustCompile(`(?i)(?:confirmar|ratificar).{0,80}?(\d{1,2}[/-]\d{1,2}[/-]\d{4}|\d{4}-\d{2}-\d{2})`)

	isoDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// findFolio returns the filing reference number found in text, or "".
// Labeled matches win; bare tokens are accepted only when they carry a
// digit, which keeps hyphenated prose out.
func findFolio(text string) string {
	if m := folioPattern.FindStringSubmatch(text); m != nil {
		folio := strings.TrimSpace(m[1])
		// A folio is never a bare year or a short numeric fragment
		if len(folio) >= 5 {
			return folio
		}
	}

	for _, m := range bareFolioPattern.FindAllStringSubmatch(text, -1) {
		folio := m[1]
		if len(folio) >= 5 && strings.ContainsAny(folio, "0123456789") {
			return folio
		}
	}
	return ""
}

// normalizeDate converts dd/mm/yyyy style dates to ISO 2006-01-02
func normalizeDate(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if isoDatePattern.MatchString(raw) {
		return raw
	}

	sep := "/"
	if strings.Contains(raw, "-") {
		sep = "-"
	}
	parts := strings.Split(raw, sep)
	if len(parts) != 3 {
		return raw
	}
	day, month, year := parts[0], parts[1], parts[2]
	if len(day) == 1 {
		day = "0" + day
	}
	if len(month) == 1 {
		month = "0" + month
	}
	return year + "-" + month + "-" + day
}

// normalizeModality maps the portal's wording to the two canonical values
func normalizeModality(raw string) string {
	switch strings.ToLower(raw) {
	case "remota", "virtual", "videoconferencia":
		return "remota"
	case "presencial":
		return "presencial"
	default:
		return ""
	}
}
