package payment

import (
	"context"
	"math/rand/v2"
)

// RandomAuthorizer approves a fixed share of payments at random.
type RandomAuthorizer struct {
	SuccessRate float64
}

func (a RandomAuthorizer) Authorize(context.Context, Request, float64) (bool, error) {
	return rand.Float64() < a.SuccessRate, nil
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req Request, amount float64) (bool, error)

func (f AuthorizerFunc) Authorize(ctx context.Context, req Request, amount float64) (bool, error) {
	return f(ctx, req, amount)
}
