package signin

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Statement is a canonical human-readable sign-in statement. The custody
// network re-serializes the message on its side, so the template is fixed
// and line-ending sensitive: build and verification both operate on the
// normalized form.
type Statement struct {
	Domain   string
	Address  string
	ChainID  uint64
	Nonce    string
	IssuedAt time.Time
}

// statementLine is the fixed middle line of every sign-in statement.
const statementLine = "Sign this message to prove ownership of your wallet and authorize key custody operations."

// BuildStatement constructs a fresh sign-in statement for the given address,
// domain, and chain id. A new nonce and issuance timestamp are generated on
// every call; statements must not be reused across custody operations
// because the network enforces a recency bound.
func BuildStatement(address, domain string, chainID uint64) (*Statement, error) {
	if domain == "" {
		return nil, ErrEmptyDomain
	}
	addr, err := NormalizeAddress(address)
	if err != nil {
		return nil, err
	}
	return &Statement{
		Domain:   domain,
		Address:  addr,
		ChainID:  chainID,
		Nonce:    newNonce(),
		IssuedAt: time.Now().UTC().Truncate(time.Second),
	}, nil
}

// Message renders the statement using the fixed line-oriented template.
// Line order matters: greeting, blank, address, blank, statement, blank,
// URI, Version, Chain ID, Nonce, Issued At.
func (s *Statement) Message() string {
	lines := []string{
		fmt.Sprintf("%s wants you to sign in with your wallet:", s.Domain),
		"",
		s.Address,
		"",
		statementLine,
		"",
		fmt.Sprintf("URI: https://%s", s.Domain),
		"Version: 1",
		fmt.Sprintf("Chain ID: %d", s.ChainID),
		fmt.Sprintf("Nonce: %s", s.Nonce),
		fmt.Sprintf("Issued At: %s", s.IssuedAt.Format(time.RFC3339)),
	}
	return strings.Join(lines, "\n")
}

// ParseStatement parses a rendered statement back into its fields. It
// accepts any line-ending convention; the message is normalized first.
func ParseStatement(msg string) (*Statement, error) {
	lines := strings.Split(NormalizeMessage(msg), "\n")
	if len(lines) != 11 {
		return nil, fmt.Errorf("%w: want 11 lines, got %d", ErrInvalidStatement, len(lines))
	}

	const greetingSuffix = " wants you to sign in with your wallet:"
	if !strings.HasSuffix(lines[0], greetingSuffix) {
		return nil, fmt.Errorf("%w: bad greeting line", ErrInvalidStatement)
	}
	domain := strings.TrimSuffix(lines[0], greetingSuffix)

	if lines[1] != "" || lines[3] != "" || lines[5] != "" {
		return nil, fmt.Errorf("%w: missing blank separator", ErrInvalidStatement)
	}
	if lines[4] != statementLine {
		return nil, fmt.Errorf("%w: unexpected statement line", ErrInvalidStatement)
	}

	addr, err := NormalizeAddress(lines[2])
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidStatement, err)
	}

	if lines[6] != "URI: https://"+domain {
		return nil, fmt.Errorf("%w: URI does not match domain", ErrInvalidStatement)
	}
	if lines[7] != "Version: 1" {
		return nil, fmt.Errorf("%w: unsupported version", ErrInvalidStatement)
	}

	var chainID uint64
	if _, err := fmt.Sscanf(lines[8], "Chain ID: %d", &chainID); err != nil {
		return nil, fmt.Errorf("%w: bad chain id line", ErrInvalidStatement)
	}

	nonce, ok := strings.CutPrefix(lines[9], "Nonce: ")
	if !ok || nonce == "" {
		return nil, fmt.Errorf("%w: bad nonce line", ErrInvalidStatement)
	}

	issuedRaw, ok := strings.CutPrefix(lines[10], "Issued At: ")
	if !ok {
		return nil, fmt.Errorf("%w: bad issued-at line", ErrInvalidStatement)
	}
	issuedAt, err := time.Parse(time.RFC3339, issuedRaw)
	if err != nil {
		return nil, fmt.Errorf("%w: bad issued-at timestamp: %w", ErrInvalidStatement, err)
	}

	return &Statement{
		Domain:   domain,
		Address:  addr,
		ChainID:  chainID,
		Nonce:    nonce,
		IssuedAt: issuedAt,
	}, nil
}

// NormalizeMessage converts all line endings to LF and trims surrounding
// whitespace. Signing and verification must both operate on the normalized
// form, otherwise the custody network's re-serialization invalidates the
// signature check.
func NormalizeMessage(msg string) string {
	m := strings.ReplaceAll(msg, "\r\n", "\n")
	m = strings.ReplaceAll(m, "\r", "\n")
	return strings.TrimSpace(m)
}

// newNonce returns a 32-char lowercase hex nonce.
func newNonce() string {
	u := uuid.New()
	return strings.ReplaceAll(u.String(), "-", "")
}
