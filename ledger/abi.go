package ledger

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/sha3"
)

// wordLen is the ABI word size in bytes.
const wordLen = 32

// Contract function signatures, bit-exact against the rental ledger.
const (
	sigUploadAgent = "uploadAgent(string,uint256)"
	sigRentAgent   = "rentAgent(string)"
	sigIsRenter    = "isRenter(string,address)"
	sigAgents      = "agents(string)"
)

// selector returns the 4-byte Keccak-256 selector for a function signature.
func selector(sig string) []byte {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(sig))
	return h.Sum(nil)[:4]
}

// abiWord left-pads b into a single 32-byte word.
func abiWord(b []byte) []byte {
	w := make([]byte, wordLen)
	copy(w[wordLen-len(b):], b)
	return w
}

// intWord encodes a non-negative int (an offset or length) as one ABI word.
func intWord(n int) []byte {
	return abiWord(new(big.Int).SetInt64(int64(n)).Bytes())
}

// encodeUint256 encodes v as one ABI word. Values outside the uint256 range
// have no 32-byte representation and are rejected.
func encodeUint256(v *big.Int) ([]byte, error) {
	if v == nil || v.Sign() < 0 || v.BitLen() > 8*wordLen {
		return nil, fmt.Errorf("%w: %s does not fit a uint256 word", ErrInvalidAmount, v)
	}
	return abiWord(v.Bytes()), nil
}

// encodeAddress encodes a 0x-prefixed hex address as one ABI word.
func encodeAddress(addr string) ([]byte, error) {
	raw, err := hex.DecodeString(strings.TrimPrefix(strings.ToLower(addr), "0x"))
	if err != nil || len(raw) != 20 {
		return nil, fmt.Errorf("%w: bad address %q", ErrInvalidResponse, addr)
	}
	return abiWord(raw), nil
}

// encodeCallData ABI-encodes a call with one leading dynamic string
// argument followed by zero or more static (32-byte word) arguments, which
// covers the entire rental ledger surface. Layout:
//
//	selector || head words || string length || padded string bytes
//
// The string's head word holds its tail offset from the start of the
// argument block.
func encodeCallData(sig, str string, staticArgs ...[]byte) []byte {
	headWords := 1 + len(staticArgs)
	data := selector(sig)

	// Head: offset of the dynamic tail, then the static args in order.
	data = append(data, intWord(headWords*wordLen)...)
	for _, arg := range staticArgs {
		data = append(data, arg...)
	}

	// Tail: string length word, then data padded to a word boundary.
	data = append(data, intWord(len(str))...)
	padded := make([]byte, (len(str)+wordLen-1)/wordLen*wordLen)
	copy(padded, str)
	return append(data, padded...)
}

// decodeBool decodes a single ABI bool return word.
func decodeBool(data []byte) (bool, error) {
	if len(data) != wordLen {
		return false, fmt.Errorf("%w: want %d return bytes, got %d", ErrInvalidResponse, wordLen, len(data))
	}
	for _, b := range data[:wordLen-1] {
		if b != 0 {
			return false, fmt.Errorf("%w: malformed bool word", ErrInvalidResponse)
		}
	}
	switch data[wordLen-1] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: malformed bool word", ErrInvalidResponse)
	}
}

// decodeAddressUint decodes an (address, uint256) return pair, the shape of
// the contract's agents(cid) getter.
func decodeAddressUint(data []byte) (string, *big.Int, error) {
	if len(data) != 2*wordLen {
		return "", nil, fmt.Errorf("%w: want %d return bytes, got %d", ErrInvalidResponse, 2*wordLen, len(data))
	}
	addr := "0x" + hex.EncodeToString(data[12:wordLen])
	val := new(big.Int).SetBytes(data[wordLen : 2*wordLen])
	return addr, val, nil
}

// decodeHexBytes strips the 0x prefix and hex-decodes an RPC data string.
func decodeHexBytes(s string) ([]byte, error) {
	b, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return nil, fmt.Errorf("%w: bad hex data: %w", ErrInvalidResponse, err)
	}
	return b, nil
}

// hexQuantity renders v as a 0x-prefixed minimal hex quantity.
func hexQuantity(v *big.Int) string {
	if v == nil || v.Sign() == 0 {
		return "0x0"
	}
	return "0x" + v.Text(16)
}
