package payments

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"stayfinder/internal/app/policies"
)

// FakeGateway keeps intents in memory. It backs the memory storage mode and
// tests; SucceedIntent and FailIntent stand in for the real collaborator's
// asynchronous capture.
type FakeGateway struct {
	mu      sync.Mutex
	intents map[string]policies.PaymentIntent
}

func NewFakeGateway() *FakeGateway {
	return &FakeGateway{intents: make(map[string]policies.PaymentIntent)}
}

func (f *FakeGateway) CreateIntent(_ context.Context, _ policies.IntentParams) (policies.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := "pi_" + uuid.NewString()
	intent := policies.PaymentIntent{
		ID:           id,
		ClientSecret: id + "_secret_" + uuid.NewString(),
		Status:       "requires_payment_method",
	}
	f.intents[id] = intent
	return intent, nil
}

func (f *FakeGateway) RetrieveIntent(_ context.Context, intentID string) (policies.PaymentIntent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[intentID]
	if !ok {
		return policies.PaymentIntent{}, fmt.Errorf("payments: unknown intent %q", intentID)
	}
	return intent, nil
}

func (f *FakeGateway) CreateRefund(_ context.Context, params policies.RefundParams) (policies.Refund, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.intents[params.IntentID]; !ok {
		return policies.Refund{}, fmt.Errorf("payments: unknown intent %q", params.IntentID)
	}
	return policies.Refund{ID: "re_" + uuid.NewString(), Amount: params.Amount}, nil
}

// SucceedIntent moves an intent to the succeeded state with a fresh charge.
func (f *FakeGateway) SucceedIntent(intentID, method string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[intentID]
	if !ok {
		return
	}
	intent.Status = policies.IntentSucceeded
	intent.ChargeID = "ch_" + uuid.NewString()
	intent.PaymentMethod = method
	f.intents[intentID] = intent
}

// FailIntent moves an intent to a failed state.
func (f *FakeGateway) FailIntent(intentID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	intent, ok := f.intents[intentID]
	if !ok {
		return
	}
	intent.Status = "requires_payment_method"
	intent.ChargeID = ""
	f.intents[intentID] = intent
}

var _ policies.PaymentsPort = (*FakeGateway)(nil)
