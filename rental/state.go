package rental

// PublishState tracks a publish flow for observers.
type PublishState int

const (
	PublishIdle PublishState = iota
	PublishEncrypting
	PublishUploading
	PublishRegistering
	PublishPersistingKey
	PublishDone
	// PublishDoneDegraded marks a publish whose key never reached custody;
	// the record exists locally but cannot be rented.
	PublishDoneDegraded
	PublishFailed
)

func (s PublishState) String() string {
	switch s {
	case PublishIdle:
		return "idle"
	case PublishEncrypting:
		return "encrypting"
	case PublishUploading:
		return "uploading"
	case PublishRegistering:
		return "registering_on_chain"
	case PublishPersistingKey:
		return "persisting_key"
	case PublishDone:
		return "published"
	case PublishDoneDegraded:
		return "published_degraded"
	case PublishFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// RentState tracks a rent flow for observers.
type RentState int

const (
	RentIdle RentState = iota
	RentCheckingOwnership
	RentPaying
	RentAwaitingConfirmation
	RentRecoveringKey
	RentDecrypting
	RentReady
	RentFailed
)

func (s RentState) String() string {
	switch s {
	case RentIdle:
		return "idle"
	case RentCheckingOwnership:
		return "checking_ownership"
	case RentPaying:
		return "paying"
	case RentAwaitingConfirmation:
		return "awaiting_confirmation"
	case RentRecoveringKey:
		return "recovering_key"
	case RentDecrypting:
		return "decrypting"
	case RentReady:
		return "ready"
	case RentFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Events carries observer callbacks. All fields are optional; the service
// only ever invokes a callback that is set, synchronously, from the calling
// goroutine.
type Events struct {
	// PublishStateChanged fires on every publish state transition.
	PublishStateChanged func(PublishState)

	// RentStateChanged fires on every rent state transition.
	RentStateChanged func(RentState)
}

func (e Events) publish(s PublishState) {
	if e.PublishStateChanged != nil {
		e.PublishStateChanged(s)
	}
}

func (e Events) rent(s RentState) {
	if e.RentStateChanged != nil {
		e.RentStateChanged(s)
	}
}
