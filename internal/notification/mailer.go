package notification

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/smtp"
	"text/template"

	"github.com/nos-commerce-backend/internal/config"
	"github.com/nos-commerce-backend/internal/domain/shared"
)

// emailTemplate pairs a subject line with a plain-text body template
type emailTemplate struct {
	subject string
	body    *template.Template
}

var templates = map[shared.EmailKind]emailTemplate{
	shared.EmailOrderConfirmed: {
		subject: "Your order has been placed",
		body: template.Must(template.New("order_confirmed").Parse(
			"Thank you for your order!\n\nOrder {{.order_id}} for {{.total}} has been received and is awaiting review.\n")),
	},
	shared.EmailOrderAccepted: {
		subject: "Your order is being processed",
		body: template.Must(template.New("order_accepted").Parse(
			"Good news!\n\nOrder {{.order_id}} has been accepted and is being prepared for shipment.\n")),
	},
	shared.EmailOrderShipped: {
		subject: "Your order has shipped",
		body: template.Must(template.New("order_shipped").Parse(
			"Order {{.order_id}} is on its way.\n{{if .eta}}Estimated arrival: {{.eta}}\n{{end}}")),
	},
	shared.EmailOrderDelivered: {
		subject: "Your order has been delivered",
		body: template.Must(template.New("order_delivered").Parse(
			"Order {{.order_id}} has been delivered. We hope you enjoy it!\n")),
	},
	shared.EmailOrderCancelled: {
		subject: "Your order has been cancelled",
		body: template.Must(template.New("order_cancelled").Parse(
			"Order {{.order_id}} has been cancelled.{{if .reason}} Reason: {{.reason}}.{{end}}{{if .refunded}} The amount paid has been returned to your wallet.{{end}}\n")),
	},
	shared.EmailTransactionNotification: {
		subject: "Wallet transaction notice",
		body: template.Must(template.New("transaction").Parse(
			"A {{.type}} of {{.amount}} was recorded on your wallet.\nNew balance: {{.balance}}\n")),
	},
}

// Mailer renders notification messages and sends them over SMTP
type Mailer struct {
	cfg    *config.SMTPConfig
	logger *slog.Logger
}

func NewMailer(cfg *config.SMTPConfig, logger *slog.Logger) *Mailer {
	return &Mailer{
		cfg:    cfg,
		logger: logger,
	}
}

// Send renders the template for the message kind and delivers the email.
// Unknown kinds are an error; the consumer logs and drops them.
func (m *Mailer) Send(msg shared.EmailMessage) error {
	tmpl, ok := templates[msg.Kind]
	if !ok {
		return fmt.Errorf("no template for notification kind %q", msg.Kind)
	}

	var body bytes.Buffer
	if err := tmpl.body.Execute(&body, msg.Data); err != nil {
		return fmt.Errorf("failed to render %q template: %w", msg.Kind, err)
	}

	var raw bytes.Buffer
	fmt.Fprintf(&raw, "From: %s <%s>\r\n", m.cfg.FromName, m.cfg.From)
	fmt.Fprintf(&raw, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&raw, "Subject: %s\r\n", tmpl.subject)
	raw.WriteString("MIME-Version: 1.0\r\nContent-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	raw.Write(body.Bytes())

	addr := m.cfg.Host + ":" + m.cfg.Port

	// Local debug sinks run without authentication
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{msg.Recipient}, raw.Bytes()); err != nil {
		return fmt.Errorf("failed to send email to %s: %w", msg.Recipient, err)
	}

	m.logger.Info("Email sent",
		"kind", string(msg.Kind),
		"recipient", msg.Recipient,
	)
	return nil
}
