package answer

import "context"

// MockClient permite tests sin llamar al chatbot real.
type MockClient struct {
	Reply Reply
	Err   error
	Calls int
}

func (m *MockClient) Ask(ctx context.Context, query string) (Reply, error) {
	m.Calls++
	return m.Reply, m.Err
}
