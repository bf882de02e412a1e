package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cgvrzon/arynstal/internal/leads"
)

type recordingSender struct {
	sent    []EmailMessage
	failFor map[string]error
}

func (r *recordingSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := r.failFor[msg.To]; err != nil {
		return err
	}
	r.sent = append(r.sent, msg)
	return nil
}

func testLead() *leads.Lead {
	return &leads.Lead{
		Name:             "Juan Pérez",
		Email:            "juan.perez@example.com",
		Phone:            "666 777 888",
		Message:          "Necesito una reforma completa del baño principal",
		Source:           leads.SourceWeb,
		Urgency:          leads.UrgencyNormal,
		PreferredContact: leads.ContactEmail,
	}
}

func TestNotifyNewLead_BothEmailsSent(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, Config{
		Enabled:                  true,
		AdminEmail:               "info@arynstal.es",
		SendCustomerConfirmation: true,
	}, nil)

	res := svc.NotifyNewLead(context.Background(), testLead())

	assert.True(t, res.AdminNotified)
	assert.True(t, res.CustomerConfirmed)
	require.Len(t, sender.sent, 2)
	assert.Equal(t, "info@arynstal.es", sender.sent[0].To)
	assert.Contains(t, sender.sent[0].Subject, "Juan Pérez")
	assert.Equal(t, "juan.perez@example.com", sender.sent[1].To)
	assert.Contains(t, sender.sent[1].Body, "within 24 hours")
}

func TestNotifyNewLead_AdminFailureDoesNotBlockCustomer(t *testing.T) {
	sender := &recordingSender{
		failFor: map[string]error{"info@arynstal.es": errors.New("smtp unreachable")},
	}
	svc := NewService(sender, Config{
		Enabled:                  true,
		AdminEmail:               "info@arynstal.es",
		SendCustomerConfirmation: true,
	}, nil)

	res := svc.NotifyNewLead(context.Background(), testLead())

	assert.False(t, res.AdminNotified)
	assert.True(t, res.CustomerConfirmed)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "juan.perez@example.com", sender.sent[0].To)
}

func TestNotifyNewLead_ConfirmationGatedOff(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, Config{
		Enabled:                  true,
		AdminEmail:               "info@arynstal.es",
		SendCustomerConfirmation: false,
	}, nil)

	res := svc.NotifyNewLead(context.Background(), testLead())

	assert.True(t, res.AdminNotified)
	assert.False(t, res.CustomerConfirmed)
	require.Len(t, sender.sent, 1)
}

func TestNotifyNewLead_Disabled(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, Config{Enabled: false, AdminEmail: "info@arynstal.es"}, nil)

	res := svc.NotifyNewLead(context.Background(), testLead())

	assert.False(t, res.AdminNotified)
	assert.False(t, res.CustomerConfirmed)
	assert.Empty(t, sender.sent)
}

func TestNotifyNewLead_UrgentFlaggedInSubject(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, Config{Enabled: true, AdminEmail: "info@arynstal.es"}, nil)

	lead := testLead()
	lead.Urgency = leads.UrgencyUrgent
	svc.NotifyNewLead(context.Background(), lead)

	require.Len(t, sender.sent, 1)
	assert.Contains(t, sender.sent[0].Subject, "[URGENT]")
}

func TestNotifyNewLead_EscapesHTMLInEmailBodies(t *testing.T) {
	sender := &recordingSender{}
	svc := NewService(sender, Config{
		Enabled:                  true,
		AdminEmail:               "info@arynstal.es",
		SendCustomerConfirmation: true,
	}, nil)

	lead := testLead()
	lead.Name = `<img src=x onerror=alert(1)>`
	lead.Message = `<script>document.location='https://evil.example'</script> presupuesto para reforma`

	res := svc.NotifyNewLead(context.Background(), lead)

	assert.True(t, res.AdminNotified)
	assert.True(t, res.CustomerConfirmed)
	require.Len(t, sender.sent, 2)

	for _, msg := range sender.sent {
		assert.NotContains(t, msg.HTML, "<img src=x")
		assert.NotContains(t, msg.HTML, "<script>")
		assert.Contains(t, msg.HTML, "&lt;script&gt;")
		assert.Contains(t, msg.HTML, "&lt;img src=x onerror=alert(1)&gt;")
	}
	// The plain-text body is not an HTML context and stays verbatim.
	assert.Contains(t, sender.sent[0].Body, "<script>")
}
