package providers

import "context"

// OutboundEmail is a fully-formed message handed to the mail collaborator.
type OutboundEmail struct {
	ToName    string
	ToAddress string
	Subject   string
	Body      string
}

// MailProvider defines the boundary to the email-sending collaborator.
// Dispatch failures are logged by callers, never propagated into booking
// results.
type MailProvider interface {
	// Send delivers the message and returns the provider message id
	Send(ctx context.Context, email OutboundEmail) (messageID string, err error)
}
