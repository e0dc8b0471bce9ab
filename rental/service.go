// Package rental orchestrates the full content lifecycle: publish (encrypt,
// upload, register on chain, persist the key to custody) and rent (pay,
// await confirmation, recover the key, decrypt). It owns flow sequencing and
// degradation rules; the per-concern clients own their own retries.
package rental

import (
	"context"
	"time"

	"github.com/apex/log"

	"github.com/agentrentorg/libagentrent-go/custody"
	"github.com/agentrentorg/libagentrent-go/ledger"
	"github.com/agentrentorg/libagentrent-go/records"
	"github.com/agentrentorg/libagentrent-go/signin"
)

const (
	// recoveryCeiling bounds the post-payment key recovery window. Custody
	// nodes observe the chain with some lag; within this window an
	// unauthorized rejection is retried rather than surfaced.
	recoveryCeiling = 30 * time.Second

	// recoveryInterval is the delay between recovery attempts.
	recoveryInterval = 3 * time.Second
)

// ContentStore is the ciphertext store boundary the orchestrator needs.
// *store.Client satisfies it.
type ContentStore interface {
	Upload(ctx context.Context, name string, data []byte) (string, error)
	Fetch(ctx context.Context, cid string) ([]byte, error)
}

// Config assembles a Service. Records, Custody, Content, Signer, and Domain
// are required. Ledger and RentalContract are optional: without them,
// publishes are policy-degraded (owner-only) and non-owners cannot rent.
type Config struct {
	Records records.Store
	Custody *custody.Client
	Content ContentStore
	Signer  signin.Signer

	// Ledger is the on-chain rental ledger. Nil disables registration and
	// paid rentals.
	Ledger ledger.Service

	// RentalContract is the ledger contract address embedded in rental
	// policies. Empty produces owner-only (degraded) policies.
	RentalContract string

	// Domain is the sign-in statement domain.
	Domain string

	// ChainID identifies the chain in sign-in statements and policies.
	ChainID uint64

	Events Events

	// Logger defaults to the apex/log standard logger.
	Logger log.Interface
}

// Service runs publish, rent, share, and persist-retry flows.
type Service struct {
	records records.Store
	custody *custody.Client
	content ContentStore
	signer  signin.Signer
	ledger  ledger.Service

	rentalContract string
	domain         string
	chainID        uint64

	events Events
	log    log.Interface

	// Test hooks; zero values use the package constants.
	recoveryCeiling  time.Duration
	recoveryInterval time.Duration
}

// NewService validates cfg and assembles a Service.
func NewService(cfg Config) (*Service, error) {
	switch {
	case cfg.Records == nil:
		return nil, errMissing("record store")
	case cfg.Custody == nil:
		return nil, errMissing("custody client")
	case cfg.Content == nil:
		return nil, errMissing("content store")
	case cfg.Signer == nil:
		return nil, errMissing("signer")
	case cfg.Domain == "":
		return nil, errMissing("sign-in domain")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = log.Log
	}

	return &Service{
		records:        cfg.Records,
		custody:        cfg.Custody,
		content:        cfg.Content,
		signer:         cfg.Signer,
		ledger:         cfg.Ledger,
		rentalContract: cfg.RentalContract,
		domain:         cfg.Domain,
		chainID:        cfg.ChainID,
		events:         cfg.Events,
		log:            logger,
	}, nil
}

// Address returns the canonical address of the configured signer.
func (s *Service) Address() string {
	return s.signer.Address()
}

// authFunc builds a fresh sign-in assertion per invocation. Never cached:
// the custody network enforces a recency bound on the statement.
func (s *Service) authFunc() custody.AuthFunc {
	return func(ctx context.Context) (*signin.AuthAssertion, error) {
		stmt, err := signin.BuildStatement(s.signer.Address(), s.domain, s.chainID)
		if err != nil {
			return nil, err
		}
		return s.signer.SignMessage(stmt.Message())
	}
}

func (s *Service) logger(flow string) *log.Entry {
	return s.log.WithFields(log.Fields{
		"module": "rental",
		"flow":   flow,
		"addr":   s.signer.Address(),
	})
}

func (s *Service) recoveryWindow() (time.Duration, time.Duration) {
	interval, ceiling := s.recoveryInterval, s.recoveryCeiling
	if interval <= 0 {
		interval = recoveryInterval
	}
	if ceiling <= 0 {
		ceiling = recoveryCeiling
	}
	return interval, ceiling
}
