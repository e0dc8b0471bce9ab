package custody

import "context"

// MockNodeService is a test double for NodeService.
// All function fields must be set before the corresponding method is called.
type MockNodeService struct {
	HandshakeFn func(ctx context.Context) error
	WrapFn      func(ctx context.Context, req *WrapRequest) (*WrappedKey, error)
	UnwrapFn    func(ctx context.Context, req *UnwrapRequest) ([]byte, error)
}

func (m *MockNodeService) Handshake(ctx context.Context) error {
	return m.HandshakeFn(ctx)
}

func (m *MockNodeService) Wrap(ctx context.Context, req *WrapRequest) (*WrappedKey, error) {
	return m.WrapFn(ctx, req)
}

func (m *MockNodeService) Unwrap(ctx context.Context, req *UnwrapRequest) ([]byte, error) {
	return m.UnwrapFn(ctx, req)
}
