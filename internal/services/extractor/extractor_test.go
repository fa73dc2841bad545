package extractor

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/models"
)

const confirmationHTML = `
<html><body>
	<div id="acuseRecibo">
		<h2>Solicitud registrada</h2>
		<span id="folioSolicitud">CCL/JAL/2026/004521</span>
		<span id="fechaAudiencia">15/09/2026</span>
		<span id="horaAudiencia">10:30</span>
		<span id="modalidadAudiencia">Remota</span>
		<span id="nombreCentro">Centro de Conciliación Laboral del Estado de Jalisco</span>
		<span id="telefonoCentro">33 1234 5678</span>
		<a href="https://meet.example.gob.mx/sala/004521">Liga de videoconferencia</a>
		<ul id="instrucciones">
			<li>Presentarse 15 minutos antes.</li>
			<li>Tener a la mano identificación oficial.</li>
		</ul>
		<a href="/solicitudes/004521/acuse.pdf">Descargar acuse</a>
	</div>
</body></html>`

func newTestExtractor() *Extractor {
	return NewExtractor(nil, arbor.NewLogger())
}

func TestExtractFromHTML(t *testing.T) {
	result := &models.SubmissionResult{}
	require.NoError(t, newTestExtractor().ExtractFromHTML(confirmationHTML, result))

	assert.Equal(t, "CCL/JAL/2026/004521", result.FolioSolicitud)
	assert.Equal(t, "2026-09-15", result.HearingDate)
	assert.Equal(t, "10:30", result.HearingTime)
	assert.Equal(t, "remota", result.Modality)
	assert.Equal(t, "https://meet.example.gob.mx/sala/004521", result.MeetingLink)
	assert.Contains(t, result.Authority.Name, "Jalisco")
	assert.Len(t, result.Instructions, 2)
}

func TestExtractFromHTMLDoesNotOverwrite(t *testing.T) {
	result := &models.SubmissionResult{FolioSolicitud: "FROM-VISION-1"}
	require.NoError(t, newTestExtractor().ExtractFromHTML(confirmationHTML, result))

	assert.Equal(t, "FROM-VISION-1", result.FolioSolicitud, "later passes must not overwrite earlier fields")
}

func TestExtractFromTextRegexFallback(t *testing.T) {
	html := `<html><body>
		<p>Su solicitud fue registrada con folio: CFCRL/2026/018822</p>
		<p>Audiencia programada: 03/10/2026 a las 9:00 horas, modalidad presencial.</p>
		<p>Deberá ratificar su solicitud antes del 20/09/2026.</p>
	</body></html>`

	result := &models.SubmissionResult{}
	require.NoError(t, newTestExtractor().ExtractFromText(html, result))

	assert.Equal(t, "CFCRL/2026/018822", result.FolioSolicitud)
	assert.Equal(t, "2026-10-03", result.HearingDate)
	assert.Equal(t, "9:00", result.HearingTime)
	assert.Equal(t, "presencial", result.Modality)
	assert.Equal(t, "2026-09-20", result.ConfirmationDeadline)
}

func TestFindFolioRejectsFragments(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		expected string
	}{
		{"labeled folio", "Folio: ABC123456", "ABC123456"},
		{"numero de solicitud", "Número de solicitud 2026/00391", "2026/00391"},
		{"bare token", "Su referencia CCL-QRO-AB1234Z quedó registrada", "CCL-QRO-AB1234Z"},
		{"labeled wins over bare", "Folio: ABC123456 expediente XX-YY999", "ABC123456"},
		{"bare token without digits", "El caso VER-ACRUZ sigue pendiente", ""},
		{"no label", "El año 2026 fue complicado", ""},
		{"too short", "Folio: AB1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, findFolio(tt.text))
		})
	}
}

func TestNormalizeDate(t *testing.T) {
	assert.Equal(t, "2026-09-15", normalizeDate("15/09/2026"))
	assert.Equal(t, "2026-09-05", normalizeDate("5/9/2026"))
	assert.Equal(t, "2026-09-15", normalizeDate("2026-09-15"))
	assert.Equal(t, "", normalizeDate(""))
}

func TestSuccessRequiresFolio(t *testing.T) {
	// Page with hearing data but no folio: everything extracted, success false
	html := `<html><body><p>Audiencia: 03/10/2026 a las 9:00</p></body></html>`

	result := &models.SubmissionResult{}
	require.NoError(t, newTestExtractor().ExtractFromText(html, result))
	result.Success = result.FolioSolicitud != ""

	assert.False(t, result.Success)
	assert.Equal(t, "2026-10-03", result.HearingDate)
}

func TestValidatePDFRejectsGarbage(t *testing.T) {
	err := validatePDF([]byte("this is not a pdf"))
	assert.Error(t, err)
}

func TestValidatePDFConcurrentCalls(t *testing.T) {
	// Parallel validations must not share a temp file; each call should
	// fail on document structure, never on a missing file
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := validatePDF([]byte("this is not a pdf"))
			assert.Error(t, err)
			assert.NotContains(t, err.Error(), "no such file")
		}()
	}
	wg.Wait()
}
