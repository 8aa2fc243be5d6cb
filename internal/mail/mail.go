// Package mail sends order confirmation emails over SMTP.
package mail

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/smtp"
	"strconv"

	"github.com/flicky/go-storefront/internal/config"
	"github.com/flicky/go-storefront/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

var confirmationTmpl = template.Must(template.ParseFS(templateFS, "templates/order_confirmation.html"))

type confirmationLine struct {
	Name     string
	Quantity int
	Price    string
	Subtotal string
}

type confirmationData struct {
	OrderNumber string
	PlacedAt    string
	Items       []confirmationLine
	Subtotal    string
	Tax         string
	Shipping    string
	Discount    string
	Total       string
	Currency    string
}

// RenderConfirmation builds the subject and HTML body for an order.
func RenderConfirmation(order *model.Order) (string, string, error) {
	data := confirmationData{
		OrderNumber: order.OrderNumber,
		PlacedAt:    order.CreatedAt.Format("January 2, 2006"),
		Subtotal:    order.Subtotal.StringFixed(2),
		Tax:         order.Tax.StringFixed(2),
		Shipping:    order.ShippingCost.StringFixed(2),
		Total:       order.Total.StringFixed(2),
		Currency:    order.Currency,
	}
	if order.Discount.IsPositive() {
		data.Discount = order.Discount.StringFixed(2)
	}
	for _, item := range order.Items {
		data.Items = append(data.Items, confirmationLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price.StringFixed(2),
			Subtotal: item.Subtotal.StringFixed(2),
		})
	}

	var body bytes.Buffer
	if err := confirmationTmpl.Execute(&body, data); err != nil {
		return "", "", fmt.Errorf("render confirmation: %w", err)
	}
	return "Your order " + order.OrderNumber, body.String(), nil
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

type SMTPMailer struct {
	cfg  config.MailConfig
	send sendFunc
}

func NewSMTPMailer(cfg config.MailConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *SMTPMailer) SendOrderConfirmation(_ context.Context, order *model.Order) error {
	subject, body, err := RenderConfirmation(order)
	if err != nil {
		return err
	}

	message := fmt.Sprintf(
		"From: %s\r\nTo: %s\r\nSubject: %s\r\nMIME-version: 1.0;\r\nContent-Type: text/html; charset=\"UTF-8\";\r\n\r\n%s",
		m.cfg.From, order.Email, subject, body,
	)

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	addr := m.cfg.Host + ":" + strconv.Itoa(m.cfg.Port)
	if err := m.send(addr, auth, m.cfg.From, []string{order.Email}, []byte(message)); err != nil {
		return fmt.Errorf("send confirmation: %w", err)
	}
	return nil
}

// LogMailer stands in when no SMTP host is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger}
}

func (m *LogMailer) SendOrderConfirmation(_ context.Context, order *model.Order) error {
	m.logger.Info("order confirmation (smtp disabled)", "order_number", order.OrderNumber, "email", order.Email)
	return nil
}
