package send_email

import (
	"github.com/stockflow-io/stockflow/pkg/models"
	"github.com/stockflow-io/stockflow/pkg/protocol"
)

// NewFactory creates the send_email action factory bound to a notification
// channel.
func NewFactory(channel protocol.NotificationChannel) protocol.ActionFactory {
	return &Factory{channel: channel}
}

type Factory struct {
	channel protocol.NotificationChannel
}

func (f *Factory) ID() models.ActionType {
	return models.ActionSendEmail
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"to": map[string]any{
				"description": "Recipient address or list of addresses",
			},
			"subject": map[string]any{
				"type":        "string",
				"description": "Subject line; supports {{dotted.path}} tokens",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "HTML body; supports {{dotted.path}} tokens",
			},
		},
		"required": []string{"to", "subject"},
	}
}

func (f *Factory) Create(config map[string]any) (protocol.Action, error) {
	return NewSendEmailAction(config, f.channel)
}
