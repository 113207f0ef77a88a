package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net"
	netmail "net/mail"
	"net/smtp"
	"os"
	"strings"
	"time"

	"storefront/internal/config"

	"github.com/jordan-wright/email"
)

const TemplateOrderConfirmation = "order_confirmation"

//go:embed templates/*.html
var templateFS embed.FS

// 注文確認メールの差し込みデータ
type OrderConfirmation struct {
	CustomerName    string
	OrderID         int64
	OrderDate       string
	Items           []OrderConfirmationItem
	ShippingFee     string
	TotalPrice      string
	ShippingAddress string
	PaymentMethod   string
}

type OrderConfirmationItem struct {
	Name     string
	Quantity int64
	Price    string
}

// SMTPSender はテンプレートを描画してSMTPで送る
type SMTPSender struct {
	cfg       config.MailConfig
	templates *template.Template
	dialer    *net.Dialer
}

func NewSMTPSender(cfg config.MailConfig) (*SMTPSender, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse mail templates: %w", err)
	}
	return &SMTPSender{
		cfg:       cfg,
		templates: tmpl,
		dialer:    &net.Dialer{Timeout: 10 * time.Second},
	}, nil
}

// Render は件名と本文を返す
func (s *SMTPSender) Render(templateName string, data any) (string, string, error) {
	var subject, body bytes.Buffer
	if err := s.templates.ExecuteTemplate(&subject, templateName+".subject", data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", templateName, err)
	}
	if err := s.templates.ExecuteTemplate(&body, templateName+".body", data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", templateName, err)
	}
	return strings.TrimSpace(subject.String()), body.String(), nil
}

// Send は ctx の期限で SMTP の会話ごと打ち切る。
// 期限切れで返ったときはサーバーにデータ終端が届いていないので配送されない
func (s *SMTPSender) Send(ctx context.Context, to string, templateName string, data any) error {
	subject, body, err := s.Render(templateName, data)
	if err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = []string{to}
	e.Subject = subject
	e.HTML = []byte(body)

	if err := s.deliver(ctx, e); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("send mail to %s: %w: %w", to, ctxErr, err)
		}
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("send mail to %s: %w: %w", to, context.DeadlineExceeded, err)
		}
		return fmt.Errorf("send mail to %s: %w", to, err)
	}
	return nil
}

func (s *SMTPSender) deliver(ctx context.Context, e *email.Email) error {
	from, err := netmail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("parse from: %w", err)
	}
	msg, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	conn, err := s.dialer.DialContext(ctx, "tcp", s.cfg.Addr())
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return err
		}
	}
	// キャンセルされたら読み書き中でも止める
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if s.cfg.Username != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("smtp server does not support AUTH")
		}
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(from.Address); err != nil {
		return err
	}
	for _, rcpt := range e.To {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	// 終端の "." への応答でサーバーが受け付ける
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
