// Package mailertest provides test doubles for mailer.Sender.
package mailertest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/dmitrymomot/mailrelay/pkg/mailer"
)

// MockSender is a testify mock implementing mailer.Sender.
type MockSender struct {
	mock.Mock
}

// NewMockSender returns a mock reporting the given provider name.
func NewMockSender(name string) *MockSender {
	m := &MockSender{}
	m.On("Name").Return(name).Maybe()
	return m
}

func (m *MockSender) Name() string {
	return m.Called().String(0)
}

func (m *MockSender) Send(ctx context.Context, email *mailer.Email) (*mailer.Receipt, error) {
	args := m.Called(ctx, email)
	receipt, _ := args.Get(0).(*mailer.Receipt)
	return receipt, args.Error(1)
}
