package notify

import "log"

// Sender delivers a rendered notification. *email.Service satisfies this.
type Sender interface {
	SendNotification(kind, to string, cc []string, fields map[string]string) error
}

// MailEmitter delivers intents over a Sender. Delivery runs in its own
// goroutine so a slow SMTP server never blocks the workflow mutation, and a
// failed send is logged rather than surfaced.
type MailEmitter struct {
	sender Sender
}

func NewMailEmitter(sender Sender) *MailEmitter {
	return &MailEmitter{sender: sender}
}

func (m *MailEmitter) Emit(intent Intent) {
	go func() {
		if err := m.sender.SendNotification(string(intent.Kind), intent.To, intent.CC, intent.Fields); err != nil {
			log.Printf("notify: %s to=%s failed: %v", intent.Kind, intent.To, err)
		}
	}()
}
