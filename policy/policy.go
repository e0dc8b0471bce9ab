package policy

import (
	"encoding/json"
	"fmt"

	"github.com/agentrentorg/libagentrent-go/signin"
)

// Policy is an ordered list of access clauses with logical OR evaluation:
// the first clause the requester satisfies authorizes the key release.
//
// Degraded marks a rental policy that fell back to owner-equality because no
// rental ledger contract was configured. The fallback changes who can ever
// decrypt, so it must be observable in the persisted record, never silent.
type Policy struct {
	Clauses  []Clause
	Degraded bool
}

// BuildOwnerPolicy returns a single-clause policy: requester must equal the
// normalized owner address.
func BuildOwnerPolicy(owner string) (*Policy, error) {
	addr, err := signin.NormalizeAddress(owner)
	if err != nil {
		return nil, err
	}
	return &Policy{Clauses: []Clause{EqualityClause{Address: addr}}}, nil
}

// BuildRentalPolicy returns the composite policy for rentable content:
// owner-equality OR on-chain isRenter(contentID, requester) against the
// rental ledger contract.
//
// When rentalContract is empty the policy degrades to owner-equality only.
// Rentals can never succeed under a degraded policy; uploads still work.
func BuildRentalPolicy(owner, contentID, rentalContract string, chainID uint64) (*Policy, error) {
	ownerAddr, err := signin.NormalizeAddress(owner)
	if err != nil {
		return nil, err
	}
	if contentID == "" {
		return nil, fmt.Errorf("%w: empty content id", ErrInvalidClause)
	}

	if rentalContract == "" {
		p, err := BuildOwnerPolicy(ownerAddr)
		if err != nil {
			return nil, err
		}
		p.Degraded = true
		return p, nil
	}

	contract, err := signin.NormalizeAddress(rentalContract)
	if err != nil {
		return nil, err
	}
	return &Policy{Clauses: []Clause{
		EqualityClause{Address: ownerAddr},
		ContractClause{
			Contract:  contract,
			Method:    "isRenter",
			ContentID: contentID,
			ChainID:   chainID,
		},
	}}, nil
}

// BuildSharePolicy returns a single-clause policy granting the normalized
// grantee address.
func BuildSharePolicy(grantee string) (*Policy, error) {
	addr, err := signin.NormalizeAddress(grantee)
	if err != nil {
		return nil, err
	}
	return &Policy{Clauses: []Clause{EqualityClause{Address: addr}}}, nil
}

// Authorizes statically pre-checks whether authAddr could ever satisfy the
// policy. Equality clauses are checked locally; a contract clause cannot be
// evaluated off-chain and is treated as potentially satisfiable.
//
// A policy containing only equality clauses, none of which match, returns
// ErrAddressMismatch naming both the expected and the authenticated address.
func (p *Policy) Authorizes(authAddr string) error {
	if p == nil || len(p.Clauses) == 0 {
		return ErrEmptyPolicy
	}
	addr, err := signin.NormalizeAddress(authAddr)
	if err != nil {
		return err
	}

	var expected []string
	for _, c := range p.Clauses {
		switch v := c.(type) {
		case EqualityClause:
			if signin.SameAddress(v.Address, addr) {
				return nil
			}
			expected = append(expected, v.Address)
		case ContractClause:
			// Live chain state decides; cannot be rejected here.
			return nil
		}
	}
	return fmt.Errorf("%w: expected one of %v, authenticated as %s",
		ErrAddressMismatch, expected, addr)
}

// MarshalJSON serializes the clause list as an ordered array of tagged
// envelopes. The Degraded flag is carried alongside so persisted records
// keep the fallback observable.
func (p *Policy) MarshalJSON() ([]byte, error) {
	if len(p.Clauses) == 0 {
		return nil, ErrEmptyPolicy
	}
	envs := make([]clauseEnvelope, 0, len(p.Clauses))
	for _, c := range p.Clauses {
		env, err := marshalClause(c)
		if err != nil {
			return nil, err
		}
		envs = append(envs, env)
	}
	return json.Marshal(struct {
		Clauses  []clauseEnvelope `json:"clauses"`
		Degraded bool             `json:"degraded,omitempty"`
	}{Clauses: envs, Degraded: p.Degraded})
}

// UnmarshalJSON restores a policy from its serialized form, rejecting
// unknown clause kinds and structurally invalid clauses.
func (p *Policy) UnmarshalJSON(data []byte) error {
	var wire struct {
		Clauses  []clauseEnvelope `json:"clauses"`
		Degraded bool             `json:"degraded"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("policy: decode: %w", err)
	}
	if len(wire.Clauses) == 0 {
		return ErrEmptyPolicy
	}
	clauses := make([]Clause, 0, len(wire.Clauses))
	for _, env := range wire.Clauses {
		c, err := unmarshalClause(env)
		if err != nil {
			return err
		}
		clauses = append(clauses, c)
	}
	p.Clauses = clauses
	p.Degraded = wire.Degraded
	return nil
}
