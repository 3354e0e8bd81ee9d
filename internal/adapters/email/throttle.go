package email

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// ThrottledSender spaces out calls to another Sender. Each Send and each
// SendBatch call consumes one token.
type ThrottledSender struct {
	next    Sender
	limiter *rate.Limiter
}

// NewThrottledSender allows perSecond calls per second with the given burst.
// PRE: perSecond > 0, burst >= 1
func NewThrottledSender(next Sender, perSecond float64, burst int) *ThrottledSender {
	return &ThrottledSender{next: next, limiter: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Send waits for a token and forwards the request.
// POST: Returns the context error without sending if ctx ends first
func (s *ThrottledSender) Send(ctx context.Context, req SendRequest) (SendResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return SendResult{}, fmt.Errorf("email throttle: %w", err)
	}
	return s.next.Send(ctx, req)
}

// SendBatch waits for a token and forwards the batch.
func (s *ThrottledSender) SendBatch(ctx context.Context, reqs []SendRequest) ([]SendResult, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("email throttle: %w", err)
	}
	return s.next.SendBatch(ctx, reqs)
}
