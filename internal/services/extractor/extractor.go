// -----------------------------------------------------------------------
// Result extractor - turns the portal confirmation page into a
// structured SubmissionResult
// -----------------------------------------------------------------------

package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
	"github.com/prolabora/concilia/internal/services/browser"
)

// Extractor reads the confirmation page three ways, most capable first:
// the vision model over a screenshot, then DOM selectors, then label
// regexes over a markdown rendering. Later passes only fill fields the
// earlier ones left empty. Success is decided solely by whether a filing
// reference number was found; everything else is best effort.
type Extractor struct {
	vision interfaces.VisionService
	logger arbor.ILogger
}

// NewExtractor creates a new result extractor
func NewExtractor(vision interfaces.VisionService, logger arbor.ILogger) *Extractor {
	return &Extractor{
		vision: vision,
		logger: logger,
	}
}

// pass is one extraction strategy; it fills only empty fields of result
type pass struct {
	name string
	run  func(ctx context.Context, session *browser.Session, result *models.SubmissionResult) error
}

// Extract builds the final result from the current page of the session
func (e *Extractor) Extract(ctx context.Context, session *browser.Session) (*models.SubmissionResult, error) {
	result := &models.SubmissionResult{}

	passes := []pass{
		{"vision", e.visionPass},
		{"dom", e.domPass},
		{"regex", e.regexPass},
	}

	for _, p := range passes {
		if result.FolioSolicitud != "" && result.HearingDate != "" {
			break
		}
		if err := p.run(ctx, session, result); err != nil {
			e.logger.Warn().Err(err).Str("pass", p.name).Msg("Extraction pass failed, continuing with next")
			continue
		}
		if result.ExtractionSource == "" && result.FolioSolicitud != "" {
			result.ExtractionSource = p.name
		}
	}

	result.Success = result.FolioSolicitud != ""
	if !result.Success {
		e.logger.Warn().Msg("No filing reference number found on confirmation page")
	}

	return result, nil
}

// visionPass asks the model to read the confirmation screenshot into JSON
func (e *Extractor) visionPass(ctx context.Context, session *browser.Session, result *models.SubmissionResult) error {
	shot, err := session.Screenshot()
	if err != nil {
		return fmt.Errorf("confirmation screenshot unavailable: %w", err)
	}

	prompt := `This is a confirmation page from a Mexican labor conciliation portal. Extract the filing data. Reply with ONLY a JSON object, no markdown fences:
{"folio": "", "hearing_date": "YYYY-MM-DD", "hearing_time": "HH:MM", "modality": "remota|presencial", "meeting_link": "", "confirmation_deadline": "YYYY-MM-DD", "authority_name": "", "authority_address": "", "authority_phone": "", "instructions": ["..."]}
Use "" for anything not shown.`

	answer, err := e.vision.AnalyzeImage(ctx, shot, prompt)
	if err != nil {
		return err
	}

	answer = strings.TrimSpace(answer)
	answer = strings.TrimPrefix(answer, "```json")
	answer = strings.TrimPrefix(answer, "```")
	answer = strings.TrimSuffix(answer, "```")

	var parsed struct {
		Folio                string   `json:"folio"`
		HearingDate          string   `json:"hearing_date"`
		HearingTime          string   `json:"hearing_time"`
		Modality             string   `json:"modality"`
		MeetingLink          string   `json:"meeting_link"`
		ConfirmationDeadline string   `json:"confirmation_deadline"`
		AuthorityName        string   `json:"authority_name"`
		AuthorityAddress     string   `json:"authority_address"`
		AuthorityPhone       string   `json:"authority_phone"`
		Instructions         []string `json:"instructions"`
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(answer)), &parsed); err != nil {
		return fmt.Errorf("model returned unparseable extraction: %w", err)
	}

	fillIfEmpty(&result.FolioSolicitud, parsed.Folio)
	fillIfEmpty(&result.HearingDate, normalizeDate(parsed.HearingDate))
	fillIfEmpty(&result.HearingTime, parsed.HearingTime)
	fillIfEmpty(&result.Modality, normalizeModality(parsed.Modality))
	fillIfEmpty(&result.MeetingLink, parsed.MeetingLink)
	fillIfEmpty(&result.ConfirmationDeadline, normalizeDate(parsed.ConfirmationDeadline))
	fillIfEmpty(&result.Authority.Name, parsed.AuthorityName)
	fillIfEmpty(&result.Authority.Address, parsed.AuthorityAddress)
	fillIfEmpty(&result.Authority.Phone, parsed.AuthorityPhone)
	if len(result.Instructions) == 0 {
		result.Instructions = parsed.Instructions
	}
	return nil
}

// domPass reads known confirmation-page elements
func (e *Extractor) domPass(ctx context.Context, session *browser.Session, result *models.SubmissionResult) error {
	html, err := session.HTML()
	if err != nil {
		return err
	}
	return e.ExtractFromHTML(html, result)
}

// ExtractFromHTML runs the DOM selector heuristics over raw HTML
func (e *Extractor) ExtractFromHTML(html string, result *models.SubmissionResult) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return fmt.Errorf("failed to parse confirmation HTML: %w", err)
	}

	text := func(selectors ...string) string {
		for _, sel := range selectors {
			if v := strings.TrimSpace(doc.Find(sel).First().Text()); v != "" {
				return v
			}
		}
		return ""
	}

	fillIfEmpty(&result.FolioSolicitud, text("#folioSolicitud", ".folio-solicitud", "[data-folio]"))
	fillIfEmpty(&result.HearingDate, normalizeDate(text("#fechaAudiencia", ".fecha-audiencia")))
	fillIfEmpty(&result.HearingTime, text("#horaAudiencia", ".hora-audiencia"))
	fillIfEmpty(&result.Modality, normalizeModality(text("#modalidadAudiencia", ".modalidad-audiencia")))
	fillIfEmpty(&result.Authority.Name, text("#nombreCentro", ".nombre-centro"))
	fillIfEmpty(&result.Authority.Address, text("#domicilioCentro", ".domicilio-centro"))
	fillIfEmpty(&result.Authority.Phone, text("#telefonoCentro", ".telefono-centro"))

	if result.MeetingLink == "" {
		if href, ok := doc.Find(`a[href*="meet"], a[href*="zoom"], a[href*="teams"]`).First().Attr("href"); ok {
			result.MeetingLink = href
		}
	}

	if len(result.Instructions) == 0 {
		doc.Find("#instrucciones li, .instrucciones li").Each(func(_ int, sel *goquery.Selection) {
			if item := strings.TrimSpace(sel.Text()); item != "" {
				result.Instructions = append(result.Instructions, item)
			}
		})
	}
	return nil
}

// regexPass renders the page to markdown and mines labeled text
func (e *Extractor) regexPass(ctx context.Context, session *browser.Session, result *models.SubmissionResult) error {
	html, err := session.HTML()
	if err != nil {
		return err
	}
	return e.ExtractFromText(html, result)
}

// ExtractFromText runs the regex heuristics over the markdown rendering
func (e *Extractor) ExtractFromText(html string, result *models.SubmissionResult) error {
	converter := md.NewConverter("", true, nil)
	text, err := converter.ConvertString(html)
	if err != nil {
		// Regexes still work on raw HTML, just with more noise
		text = html
	}

	fillIfEmpty(&result.FolioSolicitud, findFolio(text))
	if result.HearingDate == "" {
		if m := datePattern.FindString(text); m != "" {
			result.HearingDate = normalizeDate(m)
		}
	}
	if result.HearingTime == "" {
		if m := timePattern.FindStringSubmatch(text); m != nil {
			result.HearingTime = m[1]
		}
	}
	fillIfEmpty(&result.MeetingLink, meetingLinkPattern.FindString(text))
	if result.Modality == "" {
		if m := modalityPattern.FindString(text); m != "" {
			result.Modality = normalizeModality(m)
		}
	}
	if result.ConfirmationDeadline == "" {
		if m := deadlinePattern.FindStringSubmatch(text); m != nil {
			result.ConfirmationDeadline = normalizeDate(m[1])
		}
	}
	return nil
}

// DownloadAcuse locates the acknowledgment document link, downloads it
// through the session and validates it is a well-formed PDF. A missing or
// corrupt acuse is a warning, not a failure.
func (e *Extractor) DownloadAcuse(ctx context.Context, session *browser.Session) ([]byte, error) {
	html, err := session.HTML()
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse confirmation HTML: %w", err)
	}

	href, ok := doc.Find(`a[href*="acuse"], a[href$=".pdf"]`).First().Attr("href")
	if !ok {
		return nil, fmt.Errorf("no acuse document link on confirmation page")
	}

	data, err := session.DownloadResource(href)
	if err != nil {
		return nil, err
	}

	if err := validatePDF(data); err != nil {
		return nil, fmt.Errorf("acuse document is not a valid PDF: %w", err)
	}
	return data, nil
}

// validatePDF runs a structural check over the downloaded document.
// Each call gets its own temp file; concurrent jobs validate their
// acuses at the same time.
func validatePDF(data []byte) error {
	tempFile, err := os.CreateTemp("", "acuse_*.pdf")
	if err != nil {
		return fmt.Errorf("failed to create temp PDF file: %w", err)
	}
	defer os.Remove(tempFile.Name())

	if _, err := tempFile.Write(data); err != nil {
		tempFile.Close()
		return fmt.Errorf("failed to write temp PDF file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to write temp PDF file: %w", err)
	}

	conf := model.NewDefaultConfiguration()
	if err := api.ValidateFile(tempFile.Name(), conf); err != nil {
		return err
	}
	return nil
}

func fillIfEmpty(target *string, value string) {
	if *target == "" && value != "" {
		*target = value
	}
}
