package custody

import "errors"

var (
	// ErrPersistFailed indicates all wrap attempts were exhausted. The last
	// underlying error is wrapped. Non-fatal to publication: the caller
	// decides whether to persist a degraded record.
	ErrPersistFailed = errors.New("custody: key persistence failed after all attempts")

	// ErrMissingExpiryBound indicates the network rejected an unwrap because
	// the wrapped payload carries no expiry metadata. Legacy payloads in
	// this state are permanently unrecoverable; the owner must re-wrap.
	ErrMissingExpiryBound = errors.New("custody: wrapped key has no expiry bound; owner must re-wrap")

	// ErrUnauthorized indicates the network evaluated the policy against
	// live chain state and refused to release the key.
	ErrUnauthorized = errors.New("custody: policy evaluation denied key release")

	// ErrSessionExpired indicates the auth assertion's recency bound lapsed.
	// A fresh assertion must be generated; the stale one is never reusable.
	ErrSessionExpired = errors.New("custody: auth session expired")

	// ErrContentHashMismatch indicates the recovered key does not match the
	// content hash commitment stored at wrap time.
	ErrContentHashMismatch = errors.New("custody: recovered key does not match content hash")

	// ErrNoNodes indicates the client has no node endpoints configured.
	ErrNoNodes = errors.New("custody: no node endpoints configured")

	// ErrAllNodesFailed indicates every configured node rejected or failed
	// the request.
	ErrAllNodesFailed = errors.New("custody: all nodes failed")

	// ErrNilParam indicates a required parameter was nil.
	ErrNilParam = errors.New("custody: nil parameter")
)

// Node error codes carried in the network's error envelope. The client maps
// these onto the sentinel errors above so orchestrators can branch on kind.
const (
	CodeExpiryNotSet   = "expiry_not_set"
	CodeUnauthorized   = "unauthorized"
	CodeSessionExpired = "session_expired"
)

// NodeError is a structured rejection from a custody node.
type NodeError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *NodeError) Error() string {
	return "custody: node error " + e.Code + ": " + e.Message
}

// classify maps a node error onto the sentinel taxonomy. Unknown codes pass
// through unchanged.
func classify(err error) error {
	var ne *NodeError
	if !errors.As(err, &ne) {
		return err
	}
	switch ne.Code {
	case CodeExpiryNotSet:
		return errors.Join(ErrMissingExpiryBound, err)
	case CodeUnauthorized:
		return errors.Join(ErrUnauthorized, err)
	case CodeSessionExpired:
		return errors.Join(ErrSessionExpired, err)
	default:
		return err
	}
}
