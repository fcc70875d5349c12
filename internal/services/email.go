package services

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net/smtp"
	"strings"
	"time"

	"github.com/codesurge/hackathon/internal/config"
	"github.com/codesurge/hackathon/pkg/logger"
)

const platformName = "CodeSurge Hackathon Platform"

// EmailService renders notification events and sends them over SMTP.
type EmailService struct {
	cfg  *config.EmailConfig
	loc  *time.Location
	send func(to []string, subject, body string) error
}

func NewEmailService(cfg *config.EmailConfig, loc *time.Location) *EmailService {
	if loc == nil {
		loc = time.UTC
	}
	s := &EmailService{cfg: cfg, loc: loc}
	s.send = s.sendEmail
	return s
}

// Deliver is the TaskProcessor for notification tasks.
func (s *EmailService) Deliver(ctx context.Context, task *NotificationTask) error {
	event := &task.Event
	if !s.cfg.Enabled || s.cfg.Host == "" {
		logger.Debug().Str("type", string(event.Type)).Str("to", event.Email).Msg("[Email] Disabled, skipping notification")
		return nil
	}
	if event.Email == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	subject, body := s.buildMessage(event)
	return s.send([]string{event.Email}, subject, body)
}

func (s *EmailService) buildMessage(e *NotificationEvent) (string, string) {
	var subject, intro string
	rows := []struct{ label, value string }{
		{"Team", e.TeamName},
	}

	switch e.Type {
	case EventUserRegistered:
		subject = "Welcome to " + platformName
		intro = "Your team has been registered. You can now sign in and wait for a hackathon to start."
		rows = append(rows, struct{ label, value string }{"Username", e.Username})
	case EventHackathonStarted:
		subject = "Hackathon Started - " + e.HackathonName
		intro = "Your hackathon has started. Pick a problem and get building."
		rows = append(rows, s.windowRows(e)...)
	case EventHackathonScheduled:
		subject = "Hackathon Scheduled - " + e.HackathonName
		intro = "Your team has been enrolled in an upcoming hackathon."
		rows = append(rows, s.windowRows(e)...)
	case EventProblemSelected:
		subject = "Problem Selected - " + e.HackathonName
		intro = "Your team has locked in a problem statement."
		rows = append(rows, struct{ label, value string }{"Problem", e.ProblemTitle})
		rows = append(rows, s.windowRows(e)...)
	case EventSolutionSubmitted:
		subject = "Solution Submitted - " + e.HackathonName
		intro = "We received your solution. Good luck!"
		rows = append(rows,
			struct{ label, value string }{"Problem", e.ProblemTitle},
			struct{ label, value string }{"Repository", e.GithubURL},
		)
		if e.HostedURL != "" {
			rows = append(rows, struct{ label, value string }{"Hosted at", e.HostedURL})
		}
	case EventHackathonEnded:
		subject = "Hackathon Ended - " + e.HackathonName
		intro = "Your hackathon participation has ended."
		rows = append(rows, struct{ label, value string }{"Reason", e.Reason})
		if e.EndTime != nil {
			rows = append(rows, struct{ label, value string }{"Ended at", s.formatTime(*e.EndTime)})
		}
	default:
		subject = platformName + " notification"
	}

	var sb strings.Builder
	sb.WriteString("<html><body style=\"font-family: Arial, sans-serif;\">")
	sb.WriteString(fmt.Sprintf("<h2>%s</h2>", html.EscapeString(subject)))
	if intro != "" {
		sb.WriteString(fmt.Sprintf("<p>%s</p>", html.EscapeString(intro)))
	}
	sb.WriteString("<table style=\"border-collapse: collapse; margin-bottom: 20px;\">")
	for _, r := range rows {
		if r.value == "" {
			continue
		}
		sb.WriteString(fmt.Sprintf("<tr><td style=\"padding: 8px; border: 1px solid #ddd; font-weight: bold;\">%s</td><td style=\"padding: 8px; border: 1px solid #ddd;\">%s</td></tr>",
			html.EscapeString(r.label), html.EscapeString(r.value)))
	}
	sb.WriteString("</table>")
	sb.WriteString(fmt.Sprintf("<hr><p style=\"color: #888; font-size: 12px;\">%s</p>", platformName))
	sb.WriteString("</body></html>")

	return subject, sb.String()
}

func (s *EmailService) windowRows(e *NotificationEvent) []struct{ label, value string } {
	var rows []struct{ label, value string }
	if e.HackathonName != "" {
		rows = append(rows, struct{ label, value string }{"Hackathon", e.HackathonName})
	}
	if e.StartTime != nil {
		rows = append(rows, struct{ label, value string }{"Starts", s.formatTime(*e.StartTime)})
	}
	if e.EndTime != nil {
		rows = append(rows, struct{ label, value string }{"Ends", s.formatTime(*e.EndTime)})
	}
	return rows
}

func (s *EmailService) formatTime(t time.Time) string {
	return t.In(s.loc).Format(DisplayTimeLayout + " MST")
}

func (s *EmailService) sendEmail(to []string, subject, body string) error {
	cfg := s.cfg
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}

	var message strings.Builder
	message.WriteString(fmt.Sprintf("From: %s\r\n", from))
	message.WriteString(fmt.Sprintf("To: %s\r\n", strings.Join(to, ",")))
	message.WriteString(fmt.Sprintf("Subject: %s\r\n", subject))
	message.WriteString("MIME-Version: 1.0\r\n")
	message.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	message.WriteString("\r\n")
	message.WriteString(body)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	var err error
	if cfg.UseTLS {
		err = s.sendEmailTLS(addr, auth, from, to, message.String())
	} else {
		err = smtp.SendMail(addr, auth, from, to, []byte(message.String()))
	}

	if err != nil {
		logger.Warnf("[Email] Failed to send %q: %v", subject, err)
		return err
	}

	logger.Infof("[Email] Sent %q to %v", subject, to)
	return nil
}

func (s *EmailService) sendEmailTLS(addr string, auth smtp.Auth, from string, to []string, message string) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: s.cfg.Host})
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte(message)); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}
