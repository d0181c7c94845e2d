package conversation

import (
	"context"

	"glowdesk/models"
)

// ReplyGenerator rephrases a canned prompt into natural language. It must
// return within a bounded time; on any failure the machine falls back to
// the canned prompt.
type ReplyGenerator interface {
	GenerateReply(ctx context.Context, promptContext string, lang models.Language) (string, error)
}

// OrderFinalizer submits a fully validated session as an order. It
// returns the backend result plus the payment link, when the chosen
// payment method is the online type.
type OrderFinalizer interface {
	Finalize(ctx context.Context, session *models.Session) (*models.OrderResult, string, error)
}
