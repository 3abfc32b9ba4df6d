package services

import (
	"crypto/tls"
	"fmt"
	"log"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"
)

// EmailSender dispatches transactional mail through an SMTP relay. The relay
// is optional: with no host configured every send is logged and reported as
// failed instead of crashing the request.
type EmailSender struct {
	Host        string
	Port        int
	Username    string
	Password    string
	From        string
	FromName    string
	FrontendURL string
}

func (e EmailSender) Configured() bool {
	return e.Host != ""
}

// SendPasswordResetEmail returns false when the mail could not be handed to
// the relay; the caller decides how to surface that.
func (e EmailSender) SendPasswordResetEmail(to, resetURL string) bool {
	content := "Poštovani,<br><br>" +
		"Primili ste ovaj email jer ste zatražili reset lozinke za vaš BioZen Tracker nalog.<br><br>" +
		"<div style=\"text-align: center; margin: 30px 0;\">" +
		"<a href=\"" + resetURL + "\" style=\"display: inline-block; background: #416539; color: #ffffff; padding: 14px 32px; text-decoration: none; border-radius: 8px; font-weight: 600;\">Resetuj lozinku</a>" +
		"</div>" +
		"<p style=\"color: #6b6b6b; font-size: 14px;\">Ili kopirajte i nalepite ovaj link u vaš browser:<br>" +
		"<a href=\"" + resetURL + "\" style=\"color: #416539; word-break: break-all;\">" + resetURL + "</a></p>" +
		"<p style=\"color: #6b6b6b; font-size: 13px;\">Link je važeći 1 sat.</p>" +
		"<p style=\"color: #6b6b6b; font-size: 13px;\">Ako niste zatražili reset lozinke, ignorišite ovaj email.</p>"
	return e.send(to, "BioZen Tracker - Reset lozinke", e.buildTemplate("Reset lozinke", content))
}

func (e EmailSender) SendWelcomeEmail(to string) bool {
	content := "Poštovani,<br><br>" +
		"Dobrodošli u <strong>BioZen Tracker</strong> - vašu aplikaciju za praćenje kilaže i zdravog načina života!<br><br>" +
		"Vaš nalog je uspešno kreiran. Sada možete uneti svoje podatke, pratiti kilažu kroz vreme i dobiti savete za skidanje kilograma.<br><br>" +
		"<div style=\"text-align: center; margin: 30px 0;\">" +
		"<a href=\"" + e.FrontendURL + "\" style=\"display: inline-block; background: #416539; color: #ffffff; padding: 14px 32px; text-decoration: none; border-radius: 8px; font-weight: 600;\">Pristupite aplikaciji</a>" +
		"</div>" +
		"<p style=\"color: #2d2d2d; font-size: 15px; font-weight: 600;\">Želimo vam puno uspeha u postizanju vaših ciljeva!</p>"
	return e.send(to, "Dobrodošli u BioZen Tracker!", e.buildTemplate("Dobrodošli!", content))
}

func (e EmailSender) buildTemplate(title, content string) string {
	return "<!DOCTYPE html>" +
		"<html lang=\"sr\"><head><meta charset=\"UTF-8\"></head>" +
		"<body style=\"margin: 0; padding: 0; font-family: Arial, sans-serif; background-color: #f5f5f0;\">" +
		"<table role=\"presentation\" width=\"100%\" cellpadding=\"0\" cellspacing=\"0\" style=\"padding: 40px 20px;\"><tr><td align=\"center\">" +
		"<table role=\"presentation\" width=\"600\" cellpadding=\"0\" cellspacing=\"0\" style=\"background-color: #ffffff; border-radius: 12px; overflow: hidden;\">" +
		"<tr><td style=\"background: #416539; padding: 30px; text-align: center;\">" +
		"<h1 style=\"margin: 0; color: #ffffff; font-size: 28px;\">BioZen Tracker</h1></td></tr>" +
		"<tr><td style=\"padding: 40px 30px;\">" +
		"<h2 style=\"margin: 0 0 20px 0; color: #2d2d2d; font-size: 24px;\">" + title + "</h2>" +
		"<div style=\"color: #2d2d2d; font-size: 15px;\">" + content + "</div></td></tr>" +
		"<tr><td style=\"background-color: #f5f5f0; padding: 30px; text-align: center;\">" +
		"<p style=\"margin: 0; color: #6b6b6b; font-size: 12px;\">Aplikacija za praćenje kilaže i zdravog načina života</p>" +
		"<p style=\"margin: 10px 0 0 0;\"><a href=\"" + e.FrontendURL + "\" style=\"color: #416539; text-decoration: none; font-size: 11px;\">" + e.FrontendURL + "</a></p>" +
		"</td></tr></table></td></tr></table></body></html>"
}

func (e EmailSender) send(to, subject, htmlBody string) bool {
	if !e.Configured() {
		log.Printf("email: SMTP relay not configured, dropping %q to %s", subject, to)
		return false
	}
	from := mail.Address{Name: e.FromName, Address: e.From}

	var msg strings.Builder
	msg.WriteString(fmt.Sprintf("From: %s\r\n", from.String()))
	msg.WriteString(fmt.Sprintf("To: %s\r\n", to))
	msg.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	msg.WriteString(fmt.Sprintf("Date: %s\r\n", time.Now().UTC().Format(time.RFC1123Z)))
	msg.WriteString("MIME-Version: 1.0\r\n")
	msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	msg.WriteString("\r\n")
	msg.WriteString(htmlBody)

	if err := e.sendStartTLS(to, from.Address, msg.String()); err != nil {
		log.Printf("email: send to %s failed: %v", to, err)
		return false
	}
	return true
}

func (e EmailSender) sendStartTLS(to, from, msg string) error {
	addr := fmt.Sprintf("%s:%d", e.Host, e.Port)
	conn, err := net.DialTimeout("tcp", addr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.Host)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	defer client.Close()

	if ok, _ := client.Extension("STARTTLS"); ok {
		if err := client.StartTLS(&tls.Config{ServerName: e.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if e.Username != "" {
		auth := smtp.PlainAuth("", e.Username, e.Password, e.Host)
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	writer, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := writer.Write([]byte(msg)); err != nil {
		return err
	}
	if err := writer.Close(); err != nil {
		return err
	}
	return client.Quit()
}
