package email

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strconv"
	"time"

	"github.com/pixelcraft/internal/config"
	"github.com/pixelcraft/internal/model"
)

type Sender struct {
	cfg *config.SMTPConfig
}

func NewSender(cfg *config.SMTPConfig) *Sender {
	return &Sender{cfg: cfg}
}

// SendOrderNotification отправляет на почту студии письмо о новом заказе.
func (s *Sender) SendOrderNotification(ctx context.Context, to string, o *model.Order) error {
	if s.cfg.Username == "" || s.cfg.Password == "" {
		return fmt.Errorf("email: SMTP не настроен")
	}
	from := s.cfg.FromEmail
	if from == "" {
		from = s.cfg.Username
	}
	body := fmt.Sprintf(
		"New order #%d\n\nService: %s\nName: %s\nEmail: %s\nWhatsApp: %s\nBudget: %s\nDelivery: %s\n\n%s\n",
		o.ID, o.Service, o.FullName, o.Email, o.Whatsapp, o.Budget, o.DeliveryTime, o.Description,
	)
	if o.HasAttachment() {
		body += fmt.Sprintf("\nAttachment: %s (%d bytes) — download from the admin panel.\n", o.FileName, o.FileSize)
	}
	var buf bytes.Buffer
	buf.WriteString("From: " + s.cfg.FromName + " <" + from + ">\r\n")
	buf.WriteString("To: " + to + "\r\n")
	buf.WriteString(fmt.Sprintf("Subject: New order #%d: %s\r\n", o.ID, o.Service))
	buf.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	buf.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	buf.WriteString(body)
	addr := s.cfg.Host + ":" + strconv.Itoa(s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, auth, from, []string{to}, buf.Bytes()) }()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	}
}
