// Package hashid wraps cryptographic digests behind a single
// Algorithm-tagged HashID type, so callers can pick a hash function by
// configuration rather than by import.
package hashid

import (
	"crypto/sha512"
	"errors"
	"fmt"
	"hash"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/ripemd160" //nolint:staticcheck // RipeMD-160 requested explicitly by name
	"golang.org/x/crypto/sha3"
)

// Algorithm names a supported (or recognized-but-unsupported) digest
// function.
type Algorithm int

const (
	Blake2b512 Algorithm = iota
	RipeMD160
	SHA3_512
	SHA384
	Skein512
	Whirlpool
)

// String returns the algorithm's canonical display name, matching the
// format original_source's hashid.rs Display impls produce.
func (a Algorithm) String() string {
	switch a {
	case Blake2b512:
		return "Blake2b"
	case RipeMD160:
		return "RipeMD-160"
	case SHA3_512:
		return "SHA3-512"
	case SHA384:
		return "SHA384"
	case Skein512:
		return "Skein-512"
	case Whirlpool:
		return "Whirlpool"
	default:
		return "unknown"
	}
}

// ErrUnsupportedAlgorithm is returned by New and Sum for algorithms that
// are recognized as tags but have no maintained Go implementation
// available: Skein512 and Whirlpool.
var ErrUnsupportedAlgorithm = errors.New("hashid: no Go implementation available for this algorithm")

// ErrUnknownAlgorithmTag is returned by ParseAlgorithm for a tag that
// does not match any known algorithm.
var ErrUnknownAlgorithmTag = errors.New("hashid: unrecognized algorithm tag")

// New constructs a hash.Hash for algo, or ErrUnsupportedAlgorithm if no Go
// implementation is available.
func New(algo Algorithm) (hash.Hash, error) {
	switch algo {
	case Blake2b512:
		return blake2b.New512(nil)
	case RipeMD160:
		return ripemd160.New(), nil
	case SHA3_512:
		return sha3.New512(), nil
	case SHA384:
		return sha512.New384(), nil
	case Skein512, Whirlpool:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, algo)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownAlgorithmTag, int(algo))
	}
}

// HashID is a digest tagged with the algorithm that produced it.
type HashID struct {
	Algo   Algorithm
	Digest []byte
}

// String renders "<algo-name>:<hex-lowercase-digest>", matching
// hashid.rs's Display impls byte-for-byte in format.
func (h HashID) String() string {
	return fmt.Sprintf("%s:%x", h.Algo, h.Digest)
}

// Sum hashes data with algo and returns the tagged digest.
func Sum(algo Algorithm, data []byte) (HashID, error) {
	h, err := New(algo)
	if err != nil {
		return HashID{}, err
	}
	h.Write(data)
	return HashID{Algo: algo, Digest: h.Sum(nil)}, nil
}

// NullHash returns the digest of the empty byte string under algo.
func NullHash(algo Algorithm) (HashID, error) {
	return Sum(algo, nil)
}

// ParseAlgorithm maps a configuration tag to an Algorithm. Recognized
// tags are "Blake2b", "RipeMD-160", "SHA3-512", "SHA384", "Skein", and
// "Whirlpool" — matching original_source's CompoundHashAlgo::try_from.
func ParseAlgorithm(tag string) (Algorithm, error) {
	switch tag {
	case "Blake2b":
		return Blake2b512, nil
	case "RipeMD-160":
		return RipeMD160, nil
	case "SHA3-512":
		return SHA3_512, nil
	case "SHA384":
		return SHA384, nil
	case "Skein":
		return Skein512, nil
	case "Whirlpool":
		return Whirlpool, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownAlgorithmTag, tag)
	}
}

// ParseCompoundAlgorithm is ParseAlgorithm with an empty tag defaulting
// to SHA3_512, matching original_source's Default for CompoundHashAlgo.
func ParseCompoundAlgorithm(tag string) (Algorithm, error) {
	if tag == "" {
		return SHA3_512, nil
	}
	return ParseAlgorithm(tag)
}
