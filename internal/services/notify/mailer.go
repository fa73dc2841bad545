// -----------------------------------------------------------------------
// Mail notifier - sends a summary message when a filing reaches a
// terminal state. Subscribes to the job event bus.
// -----------------------------------------------------------------------

package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/ternarybob/arbor"

	"github.com/prolabora/concilia/internal/common"
	"github.com/prolabora/concilia/internal/interfaces"
	"github.com/prolabora/concilia/internal/models"
)

// Mailer sends terminal-state notifications over SMTP
type Mailer struct {
	config *common.NotifyConfig
	logger arbor.ILogger
}

// NewMailer creates a new mail notifier
func NewMailer(config *common.NotifyConfig, logger arbor.ILogger) *Mailer {
	return &Mailer{
		config: config,
		logger: logger,
	}
}

// Register subscribes the mailer to terminal job events. A disabled
// mailer registers nothing.
func (m *Mailer) Register(events interfaces.EventService) error {
	if !m.config.Enabled {
		m.logger.Debug().Msg("Mail notifications disabled")
		return nil
	}

	for _, eventType := range []interfaces.EventType{
		interfaces.EventJobCompleted,
		interfaces.EventJobFailed,
	} {
		if err := events.Subscribe(eventType, m.handleEvent); err != nil {
			return err
		}
	}
	return nil
}

func (m *Mailer) handleEvent(ctx context.Context, event interfaces.Event) error {
	job, ok := event.Payload.(*models.FilingJob)
	if !ok {
		return fmt.Errorf("unexpected payload type for %s", event.Type)
	}

	subject, body := m.compose(job)
	if err := m.send(subject, body); err != nil {
		return fmt.Errorf("failed to send notification for job %s: %w", job.ID, err)
	}

	m.logger.Info().Str("job_id", job.ID).Str("status", string(job.Status)).Msg("Notification sent")
	return nil
}

func (m *Mailer) compose(job *models.FilingJob) (string, string) {
	var body strings.Builder

	if job.Status == models.JobStatusCompleted && job.Result != nil {
		subject := fmt.Sprintf("Solicitud presentada: %s", job.Result.FolioSolicitud)
		body.WriteString(fmt.Sprintf("La solicitud de conciliación del caso %s fue registrada.\r\n\r\n", job.CaseID))
		body.WriteString(fmt.Sprintf("Folio: %s\r\n", job.Result.FolioSolicitud))
		if job.Result.HearingDate != "" {
			body.WriteString(fmt.Sprintf("Audiencia: %s %s (%s)\r\n", job.Result.HearingDate, job.Result.HearingTime, job.Result.Modality))
		}
		if job.Result.MeetingLink != "" {
			body.WriteString(fmt.Sprintf("Liga: %s\r\n", job.Result.MeetingLink))
		}
		if job.Result.Authority.Name != "" {
			body.WriteString(fmt.Sprintf("Autoridad: %s\r\n", job.Result.Authority.Name))
		}
		return subject, body.String()
	}

	subject := fmt.Sprintf("Solicitud fallida: caso %s", job.CaseID)
	body.WriteString(fmt.Sprintf("El trámite automatizado del caso %s no pudo completarse.\r\n\r\n", job.CaseID))
	body.WriteString(fmt.Sprintf("Motivo: %s\r\n", job.Error))
	body.WriteString("El caso debe presentarse manualmente o reintentarse.\r\n")
	return subject, body.String()
}

func (m *Mailer) send(subject, body string) error {
	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", m.config.From))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", m.config.To))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(body)

	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	var auth smtp.Auth
	if m.config.Username != "" {
		auth = smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	}

	return smtp.SendMail(addr, auth, m.config.From, []string{m.config.To}, []byte(msg.String()))
}
