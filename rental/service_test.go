package rental

import (
	"context"
	"crypto/sha256"
	"fmt"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/agentrentorg/libagentrent-go/custody"
	"github.com/agentrentorg/libagentrent-go/ledger"
	"github.com/agentrentorg/libagentrent-go/policy"
	"github.com/agentrentorg/libagentrent-go/records"
	"github.com/agentrentorg/libagentrent-go/signin"
)

const (
	testDomain   = "agentrent.example.com"
	testChainID  = uint64(1337)
	testContract = "0x4444444444444444444444444444444444444444"
)

// fakeChain implements ledger.Service over in-memory registration and
// renter state. Account plays the transaction sender whose rental the Rent
// call activates.
type fakeChain struct {
	mu         sync.Mutex
	Account    string
	registered map[string]*ledger.ContentInfo
	renters    map[string]map[string]bool // cid -> addr -> active

	RegisterErr error
	RentErr     error
	RentCalls   int
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		registered: map[string]*ledger.ContentInfo{},
		renters:    map[string]map[string]bool{},
	}
}

func (c *fakeChain) RegisterContent(_ context.Context, cid string, price *big.Int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.RegisterErr != nil {
		return "", c.RegisterErr
	}
	c.registered[cid] = &ledger.ContentInfo{Uploader: c.Account, Price: price}
	return "0xregister", nil
}

func (c *fakeChain) Rent(_ context.Context, cid string, payment *big.Int) (*ledger.TxReceipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.RentCalls++
	if c.RentErr != nil {
		return nil, c.RentErr
	}
	info, ok := c.registered[cid]
	if !ok {
		return nil, ledger.ErrContentNotRegistered
	}
	if payment.Cmp(info.Price) < 0 {
		return nil, ledger.ErrInsufficientPayment
	}
	if c.renters[cid] == nil {
		c.renters[cid] = map[string]bool{}
	}
	c.renters[cid][c.Account] = true
	return &ledger.TxReceipt{TxHash: "0xrent", Status: true, BlockNumber: 1}, nil
}

func (c *fakeChain) IsRenter(_ context.Context, cid, addr string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.renters[cid][addr], nil
}

func (c *fakeChain) ContentInfo(_ context.Context, cid string) (*ledger.ContentInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	info, ok := c.registered[cid]
	if !ok {
		return nil, ledger.ErrContentNotRegistered
	}
	return info, nil
}

func (c *fakeChain) markRenter(cid, addr string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.renters[cid] == nil {
		c.renters[cid] = map[string]bool{}
	}
	c.renters[cid][addr] = true
}

// fakeNode implements custody.NodeService: real auth verification, stored
// policies, and policy evaluation against the fake chain's renter state.
type fakeNode struct {
	mu    sync.Mutex
	chain *fakeChain
	wraps map[string]wrapEntry
	seq   int

	// WrapFailures fails this many wrap calls before recovering.
	WrapFailures int

	// UnwrapDenials rejects this many unwraps as unauthorized before
	// evaluating honestly, simulating chain observation lag.
	UnwrapDenials int
}

type wrapEntry struct {
	key []byte
	pol *policy.Policy
}

func newFakeNode(chain *fakeChain) *fakeNode {
	return &fakeNode{chain: chain, wraps: map[string]wrapEntry{}}
}

func (n *fakeNode) Handshake(context.Context) error { return nil }

func (n *fakeNode) Wrap(_ context.Context, req *custody.WrapRequest) (*custody.WrappedKey, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.WrapFailures > 0 {
		n.WrapFailures--
		return nil, fmt.Errorf("node offline")
	}
	if err := signin.Verify(req.Auth); err != nil {
		return nil, err
	}
	if req.ExpiryBound.IsZero() {
		return nil, &custody.NodeError{Code: custody.CodeExpiryNotSet, Message: "wrap requires expiry"}
	}

	n.seq++
	ct := []byte(fmt.Sprintf("wrap-%d", n.seq))
	n.wraps[string(ct)] = wrapEntry{key: append([]byte(nil), req.Key...), pol: req.Policy}

	sum := sha256.Sum256(req.Key)
	return &custody.WrappedKey{
		Ciphertext:  ct,
		ContentHash: sum[:],
		ExpiryBound: req.ExpiryBound,
	}, nil
}

func (n *fakeNode) Unwrap(ctx context.Context, req *custody.UnwrapRequest) ([]byte, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if err := signin.Verify(req.Auth); err != nil {
		return nil, err
	}
	if req.ExpiryBound.IsZero() {
		return nil, &custody.NodeError{Code: custody.CodeExpiryNotSet, Message: "no expiry bound"}
	}

	entry, ok := n.wraps[string(req.Wrapped.Ciphertext)]
	if !ok {
		return nil, &custody.NodeError{Code: custody.CodeUnauthorized, Message: "unknown payload"}
	}
	if n.UnwrapDenials > 0 {
		n.UnwrapDenials--
		return nil, &custody.NodeError{Code: custody.CodeUnauthorized, Message: "not yet observed"}
	}
	if !n.authorized(ctx, entry.pol, req.Auth.Address) {
		return nil, &custody.NodeError{Code: custody.CodeUnauthorized, Message: "policy rejected"}
	}
	return entry.key, nil
}

// authorized evaluates the wrap-time policy with OR semantics, consulting
// the fake chain for contract clauses.
func (n *fakeNode) authorized(ctx context.Context, pol *policy.Policy, addr string) bool {
	if pol == nil {
		return false
	}
	for _, c := range pol.Clauses {
		switch cl := c.(type) {
		case policy.EqualityClause:
			if signin.SameAddress(cl.Address, addr) {
				return true
			}
		case policy.ContractClause:
			if active, err := n.chain.IsRenter(ctx, cl.ContentID, addr); err == nil && active {
				return true
			}
		}
	}
	return false
}

// fakeContent implements ContentStore over a map.
type fakeContent struct {
	mu    sync.Mutex
	blobs map[string][]byte
	seq   int

	UploadErr error
	FetchErr  error
}

func newFakeContent() *fakeContent {
	return &fakeContent{blobs: map[string][]byte{}}
}

func (f *fakeContent) Upload(_ context.Context, _ string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.UploadErr != nil {
		return "", f.UploadErr
	}
	f.seq++
	cid := fmt.Sprintf("bafy-%d", f.seq)
	f.blobs[cid] = append([]byte(nil), data...)
	return cid, nil
}

func (f *fakeContent) Fetch(_ context.Context, cid string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FetchErr != nil {
		return nil, f.FetchErr
	}
	data, ok := f.blobs[cid]
	if !ok {
		return nil, fmt.Errorf("fake content: %s not found", cid)
	}
	return data, nil
}

// fixture bundles the shared fakes of one test scenario. Multiple services
// (owner, renter, grantee) attach to the same fixture.
type fixture struct {
	store   *records.MemStore
	chain   *fakeChain
	node    *fakeNode
	content *fakeContent
}

func newFixture() *fixture {
	chain := newFakeChain()
	return &fixture{
		store:   records.NewMemStore(),
		chain:   chain,
		node:    newFakeNode(chain),
		content: newFakeContent(),
	}
}

type serviceOpt func(*Config)

func withoutLedger() serviceOpt {
	return func(cfg *Config) {
		cfg.Ledger = nil
		cfg.RentalContract = ""
	}
}

func withEvents(ev Events) serviceOpt {
	return func(cfg *Config) { cfg.Events = ev }
}

// newTestService builds a Service for one actor over the fixture's fakes,
// with a fast recovery window.
func (fx *fixture) newTestService(t *testing.T, signer signin.Signer, opts ...serviceOpt) *Service {
	cli, err := custody.NewClient(fx.node, 0)
	require.NoError(t, err)

	cfg := Config{
		Records:        fx.store,
		Custody:        cli,
		Content:        fx.content,
		Signer:         signer,
		Ledger:         fx.chain,
		RentalContract: testContract,
		Domain:         testDomain,
		ChainID:        testChainID,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	svc, err := NewService(cfg)
	require.NoError(t, err)
	svc.recoveryInterval = 10 * time.Millisecond
	svc.recoveryCeiling = 200 * time.Millisecond
	return svc
}

func newSigner(t *testing.T) *signin.LocalSigner {
	s, err := signin.GenerateLocalSigner()
	require.NoError(t, err)
	return s
}

// publishHello publishes "hello" as the given owner service and returns the
// healthy record.
func publishHello(t *testing.T, svc *Service) *records.ContentRecord {
	res, err := svc.Publish(context.Background(), PublishRequest{
		Name:     "hello.txt",
		Data:     []byte("hello"),
		Price:    "0.05",
		Metadata: records.Metadata{Title: "hello"},
	})
	require.NoError(t, err)
	require.NoError(t, res.CustodyErr)
	require.NotNil(t, res.Record)
	return res.Record
}
