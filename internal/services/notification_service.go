// internal/services/notification_service.go
package services

import (
	"bytes"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/sirupsen/logrus"

	"github.com/lendigo/lendigo-backend/internal/config"
	"github.com/lendigo/lendigo-backend/internal/models"
)

// NotificationService sends email to the party a loan event concerns. Calls
// are fired from goroutines, so failures are logged, never returned to the
// request path.
type NotificationService struct {
	config *config.Config
}

type EmailTemplate struct {
	Subject string
	Body    string
}

func NewNotificationService(config *config.Config) *NotificationService {
	return &NotificationService{config: config}
}

func (s *NotificationService) SendWelcomeEmail(user *models.User) error {
	data := map[string]interface{}{
		"Username":     user.Username,
		"PlatformName": "Lendigo",
		"BaseURL":      s.config.Frontend.BaseURL,
	}

	tmpl := s.getEmailTemplate("welcome")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.sendEmail(user.Email, tmpl.Subject, body)
}

// SendLoanEventNotification mails the counterparty of the actor: owner
// decisions go to the tenant, tenant moves go to the owner. The loan must
// have Item, Item.Owner and Tenant loaded.
func (s *NotificationService) SendLoanEventNotification(loan *models.Loan, event string) {
	recipient, ok := s.recipientFor(loan, event)
	if !ok {
		return
	}

	data := map[string]interface{}{
		"Username": recipient.Username,
		"ItemName": loan.Item.Name,
		"Event":    humanizeLoanEvent(event),
		"LoanURL":  fmt.Sprintf("%s/loans/%s", s.config.Frontend.BaseURL, loan.ID),
	}

	tmpl := s.getEmailTemplate("loan_event")
	body, err := s.renderTemplate(tmpl.Body, data)
	if err != nil {
		logrus.WithError(err).WithField("loan_id", loan.ID).Error("Failed to render loan notification")
		return
	}

	subject := fmt.Sprintf("%s - %s", tmpl.Subject, loan.Item.Name)
	if err := s.sendEmail(recipient.Email, subject, body); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"loan_id": loan.ID,
			"event":   event,
		}).Error("Failed to send loan notification")
	}
}

func (s *NotificationService) recipientFor(loan *models.Loan, event string) (*models.User, bool) {
	switch event {
	case "inquired", "prepare_for_pickup", "prepare_for_return",
		"tenant_cancels":
		return &loan.Item.Owner, true
	case "owner_accepts", "owner_denies",
		"owner_confirms_pickup", "owner_denies_pickup",
		"owner_confirms_return", "owner_denies_return",
		"pickup_protocol_requested", "return_protocol_requested",
		"pickup_protocol_confirmed", "pickup_protocol_denied",
		"return_protocol_confirmed", "return_protocol_denied":
		return &loan.Tenant, true
	}
	return nil, false
}

func humanizeLoanEvent(event string) string {
	descriptions := map[string]string{
		"inquired":                   "a new rental inquiry was opened",
		"owner_accepts":              "the owner accepted your inquiry",
		"owner_denies":               "the owner denied your inquiry",
		"tenant_cancels":             "the tenant cancelled the loan",
		"prepare_for_pickup":         "the loan is ready for pickup",
		"prepare_for_return":         "the loan is ready for return",
		"pickup_protocol_requested":  "the owner recorded the handover condition",
		"pickup_protocol_confirmed":  "the pickup was confirmed, the loan is now active",
		"pickup_protocol_denied":     "the pickup was denied",
		"return_protocol_requested":  "the owner recorded the return condition",
		"return_protocol_confirmed":  "the return was confirmed, the loan is closed",
		"return_protocol_denied":     "the return was denied",
		"owner_confirms_pickup":      "the pickup was confirmed, the loan is now active",
		"owner_denies_pickup":        "the pickup was denied",
		"owner_confirms_return":      "the return was confirmed, the loan is closed",
		"owner_denies_return":        "the return was denied",
	}
	if desc, ok := descriptions[event]; ok {
		return desc
	}
	return "your loan was updated"
}

func (s *NotificationService) sendEmail(to, subject, body string) error {
	if s.config.Email.SMTPHost == "" || s.config.Email.SMTPUsername == "" {
		// Email not configured, just log
		logrus.WithFields(logrus.Fields{"to": to, "subject": subject}).Info("Email skipped (SMTP not configured)")
		return nil
	}

	auth := smtp.PlainAuth("", s.config.Email.SMTPUsername, s.config.Email.SMTPPassword, s.config.Email.SMTPHost)

	msg := []byte(fmt.Sprintf("From: %s <%s>\r\nTo: %s\r\nSubject: %s\r\nContent-Type: text/html; charset=\"UTF-8\"\r\n\r\n%s",
		s.config.Email.FromName, s.config.Email.FromEmail, to, subject, body))

	addr := fmt.Sprintf("%s:%s", s.config.Email.SMTPHost, s.config.Email.SMTPPort)
	return smtp.SendMail(addr, auth, s.config.Email.FromEmail, []string{to}, msg)
}

func (s *NotificationService) renderTemplate(templateStr string, data interface{}) (string, error) {
	tmpl, err := template.New("email").Parse(templateStr)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *NotificationService) getEmailTemplate(templateType string) EmailTemplate {
	templates := map[string]EmailTemplate{
		"welcome": {
			Subject: "Welcome to Lendigo",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Welcome {{.Username}}!</h2>
	<p>Thank you for joining {{.PlatformName}}. Browse what your neighbours are lending:</p>
	<a href="{{.BaseURL}}/items">Explore items</a>
	<p>Best regards,<br>{{.PlatformName}} Team</p>
</body>
</html>`,
		},
		"loan_event": {
			Subject: "Loan update",
			Body: `
<!DOCTYPE html>
<html>
<body>
	<h2>Hello {{.Username}},</h2>
	<p>Regarding "{{.ItemName}}": {{.Event}}.</p>
	<a href="{{.LoanURL}}">View loan</a>
	<p>Best regards,<br>Lendigo Team</p>
</body>
</html>`,
		},
	}

	if tmpl, exists := templates[templateType]; exists {
		return tmpl
	}

	return EmailTemplate{
		Subject: "Notification",
		Body:    "<p>{{.Event}}</p>",
	}
}
