package mailer

import (
	"context"
	"fmt"
	"net/smtp"
	"os"
	"strconv"

	log "github.com/sirupsen/logrus"

	"github.com/gautampatil/credify-services/internal/certsvc/models"
)

// Config holds the SMTP settings for outbound certificate mail.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func ConfigFromEnv() Config {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	from := os.Getenv("MAIL_FROM")
	if from == "" {
		from = "Credify <credify@mail.com>"
	}

	return Config{
		Host:     os.Getenv("SMTP_HOST"),
		Port:     port,
		Username: os.Getenv("SMTP_USER"),
		Password: os.Getenv("SMTP_PASS"),
		From:     from,
	}
}

// Mailer sends the "certificate issued" notification to the recipient.
type Mailer struct {
	cfg Config
}

func New(cfg Config) *Mailer {
	return &Mailer{cfg: cfg}
}

// OnIssued mails the certificate link to the recipient. When SMTP
// credentials are not configured the mail is skipped with a warning so
// development setups work without a mail server.
func (m *Mailer) OnIssued(ctx context.Context, cert *models.Certificate) error {
	if m.cfg.Username == "" || m.cfg.Password == "" {
		log.Warnf("smtp credentials not configured, skipping mail for certificate %s to %s",
			cert.ID.Hex(), cert.Email)
		return nil
	}

	subject := "Credify Issued you a new Certificate!"
	body := fmt.Sprintf(
		`<h1>Hey %s,</h1><p>Get your Certificate <a href="https://credify.io/%s">here</a> for %s held on %s</p>`,
		cert.Name, cert.ID.Hex(), cert.EventName, cert.EventDate,
	)

	msg := fmt.Sprintf("From: %s\r\n", m.cfg.From) +
		fmt.Sprintf("To: %s\r\n", cert.Email) +
		fmt.Sprintf("Subject: %s\r\n", subject) +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: text/html; charset=\"UTF-8\"\r\n" +
		"\r\n" + body

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)

	if err := smtp.SendMail(addr, auth, m.cfg.Username, []string{cert.Email}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send certificate mail: %w", err)
	}

	log.Infof("certificate mail sent to %s for certificate %s", cert.Email, cert.ID.Hex())
	return nil
}
