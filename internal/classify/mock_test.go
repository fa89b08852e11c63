package classify

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/hero-lab/litscreen/pkg/anthropic"
)

// mockAnthropicClient mocks the anthropic.Client interface.
type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

// fakeClassifier returns scripted verdicts in order and counts calls.
type fakeClassifier struct {
	verdicts []Verdict
	calls    int
}

func (f *fakeClassifier) Classify(ctx context.Context, title, abstract string) (Verdict, error) {
	v := f.verdicts[f.calls%len(f.verdicts)]
	f.calls++
	return v, nil
}
