package mailer

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gomail "gopkg.in/mail.v2"
)

type fakeDialer struct {
	fails int
	calls int
	sent  []*gomail.Message
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	d.calls++
	if d.calls <= d.fails {
		return errors.New("connection refused")
	}
	d.sent = append(d.sent, m...)
	return nil
}

func confirmation() OrderConfirmation {
	return OrderConfirmation{
		Username: "ferreteria_sur",
		Number:   "PF-X7K2QA",
		Note:     "retira en local",
		Items: []OrderLine{
			{SKU: "ABR-001", Name: "Abrazadera trefilada", Quantity: 3, UnitPrice: decimal.RequireFromString("180")},
		},
		Subtotal: decimal.NewFromInt(600),
		Discount: decimal.NewFromInt(10),
		Total:    decimal.NewFromInt(540),
	}
}

func TestRenderOrderConfirmation(t *testing.T) {
	subject, body, err := render(OrderConfirmationTemplate, confirmation())
	require.NoError(t, err)

	assert.Equal(t, "Pedido PF-X7K2QA recibido", subject)
	assert.Contains(t, body, "Hola ferreteria_sur")
	assert.Contains(t, body, "ABR-001")
	assert.Contains(t, body, "$180.00")
	assert.Contains(t, body, "Descuento: 10%")
	assert.Contains(t, body, "Total: $540.00")
	assert.Contains(t, body, "retira en local")
}

func TestRenderUnknownTemplate(t *testing.T) {
	_, _, err := render("missing.tmpl", nil)
	assert.Error(t, err)
}

func TestSendRetries(t *testing.T) {
	d := &fakeDialer{fails: 2}
	m := &SMTPMailer{fromEmail: "ventas@example.com", dialer: d}

	status, err := m.Send(OrderConfirmationTemplate, "ferreteria_sur", "compras@example.com", confirmation())
	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, 3, d.calls)
	require.Len(t, d.sent, 1)
	assert.Equal(t, []string{"Pedido PF-X7K2QA recibido"}, d.sent[0].GetHeader("Subject"))
}

func TestSendGivesUp(t *testing.T) {
	d := &fakeDialer{fails: maxRetries}
	m := &SMTPMailer{fromEmail: "ventas@example.com", dialer: d}

	status, err := m.Send(OrderConfirmationTemplate, "x", "x@example.com", confirmation())
	assert.Error(t, err)
	assert.Equal(t, -1, status)
	assert.Equal(t, maxRetries, d.calls)
}

func TestNewSMTPMailerValidation(t *testing.T) {
	_, err := NewSMTPMailer("", 587, "u", "p", "from@example.com")
	assert.Error(t, err)
	_, err = NewSMTPMailer("smtp.example.com", 587, "u", "p", "")
	assert.Error(t, err)

	m, err := NewSMTPMailer("smtp.example.com", 587, "u", "p", "from@example.com")
	require.NoError(t, err)
	assert.NotNil(t, m)
}
