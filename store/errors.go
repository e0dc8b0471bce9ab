package store

import "errors"

var (
	// ErrNoCredentials indicates no pinning API credentials are configured.
	// Upload is unavailable; fetch still works through public gateways.
	ErrNoCredentials = errors.New("store: pinning API credentials not configured")

	// ErrUploadFailed indicates the pinning API rejected or failed the upload.
	ErrUploadFailed = errors.New("store: upload failed")

	// ErrNotFound indicates no configured gateway could serve the content id.
	ErrNotFound = errors.New("store: content not found")

	// ErrNoGateways indicates fetch was attempted with an empty gateway list.
	ErrNoGateways = errors.New("store: no gateways configured")

	// ErrInvalidCID indicates an empty or malformed content id.
	ErrInvalidCID = errors.New("store: invalid content id")

	// ErrDNSLookupFailed indicates a DNS query error or empty answer.
	ErrDNSLookupFailed = errors.New("store: DNS lookup failed")

	// ErrDNSSECValidationFailed indicates the upstream resolver did not
	// authenticate the response.
	ErrDNSSECValidationFailed = errors.New("store: DNSSEC validation failed")

	// ErrNoDNSLink indicates the name has TXT records but none carry a
	// dnslink binding.
	ErrNoDNSLink = errors.New("store: no dnslink record")
)
