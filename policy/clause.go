// Package policy builds and serializes the declarative access conditions
// evaluated by the threshold custody network before a wrapped key is
// released. A policy is an ordered clause list with logical OR semantics:
// the first clause satisfied by the requester authorizes the unwrap.
package policy

import (
	"fmt"

	"github.com/agentrentorg/libagentrent-go/signin"
)

// ClauseKind discriminates the clause union.
type ClauseKind string

const (
	// KindEquality authorizes when the requester's authenticated address
	// equals a fixed address.
	KindEquality ClauseKind = "equality"

	// KindContractPredicate authorizes when an on-chain view call against
	// the rental ledger returns true for the requester.
	KindContractPredicate ClauseKind = "contract"
)

// Clause is one access condition. Exactly two shapes exist: EqualityClause
// and ContractClause. The custody network compares clause values as opaque
// strings, so all addresses are normalized to lowercase at construction.
type Clause interface {
	// Kind returns the clause discriminator.
	Kind() ClauseKind

	// validate checks structural integrity before serialization.
	validate() error
}

// EqualityClause requires the requester address to equal Address.
type EqualityClause struct {
	// Address is the canonical lowercase address allowed to unwrap.
	Address string `json:"address"`
}

// Kind implements Clause.
func (EqualityClause) Kind() ClauseKind { return KindEquality }

func (c EqualityClause) validate() error {
	if _, err := signin.NormalizeAddress(c.Address); err != nil {
		return fmt.Errorf("%w: equality: %w", ErrInvalidClause, err)
	}
	return nil
}

// ContractClause requires an on-chain view call to return true:
// Method(ContentID, requester) == true against Contract on ChainID.
type ContractClause struct {
	// Contract is the rental ledger contract address.
	Contract string `json:"contract"`

	// Method is the view function evaluated by the custody nodes.
	Method string `json:"method"`

	// ContentID is the content-address handle passed as first argument.
	ContentID string `json:"contentId"`

	// ChainID identifies the chain the nodes read from.
	ChainID uint64 `json:"chainId"`
}

// Kind implements Clause.
func (ContractClause) Kind() ClauseKind { return KindContractPredicate }

func (c ContractClause) validate() error {
	if _, err := signin.NormalizeAddress(c.Contract); err != nil {
		return fmt.Errorf("%w: contract: %w", ErrInvalidClause, err)
	}
	if c.Method == "" {
		return fmt.Errorf("%w: contract: empty method", ErrInvalidClause)
	}
	if c.ContentID == "" {
		return fmt.Errorf("%w: contract: empty content id", ErrInvalidClause)
	}
	return nil
}

// clauseEnvelope is the serialized form of a clause: the kind tag plus the
// clause body flattened alongside it.
type clauseEnvelope struct {
	Kind      ClauseKind `json:"kind"`
	Address   string     `json:"address,omitempty"`
	Contract  string     `json:"contract,omitempty"`
	Method    string     `json:"method,omitempty"`
	ContentID string     `json:"contentId,omitempty"`
	ChainID   uint64     `json:"chainId,omitempty"`
}

// marshalClause converts a clause into its envelope.
func marshalClause(c Clause) (clauseEnvelope, error) {
	if err := c.validate(); err != nil {
		return clauseEnvelope{}, err
	}
	switch v := c.(type) {
	case EqualityClause:
		return clauseEnvelope{Kind: KindEquality, Address: v.Address}, nil
	case ContractClause:
		return clauseEnvelope{
			Kind:      KindContractPredicate,
			Contract:  v.Contract,
			Method:    v.Method,
			ContentID: v.ContentID,
			ChainID:   v.ChainID,
		}, nil
	default:
		return clauseEnvelope{}, fmt.Errorf("%w: %T", ErrUnknownClauseKind, c)
	}
}

// unmarshalClause converts an envelope back into its concrete clause type.
func unmarshalClause(env clauseEnvelope) (Clause, error) {
	switch env.Kind {
	case KindEquality:
		c := EqualityClause{Address: env.Address}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	case KindContractPredicate:
		c := ContractClause{
			Contract:  env.Contract,
			Method:    env.Method,
			ContentID: env.ContentID,
			ChainID:   env.ChainID,
		}
		if err := c.validate(); err != nil {
			return nil, err
		}
		return c, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownClauseKind, env.Kind)
	}
}
