package port

import (
	"context"

	"github.com/newsline/accounts-service/internal/core/domain"
)

// EmailPublisher hands activation emails to the delivery collaborator.
// Implementations must be safe to call with a short-deadline context:
// the registration transaction has already committed by the time this
// runs, and a delivery failure is reported, not propagated.
type EmailPublisher interface {
	PublishActivationEmail(ctx context.Context, email domain.ActivationEmail) error
}
