// Package difficulty implements the consensus difficulty and target
// arithmetic used by the miner.
//
// A difficulty D maps to a 256-bit target floor(2^256 / D); a digest
// satisfies the difficulty when, read as a big-endian unsigned integer,
// it is at or below the target. All conversions use arbitrary-precision
// integer math so results are bit-exact with the network's consensus
// rules; the retarget curve deliberately mixes a transcendental factor
// with fixed-point truncation so independently-computed nodes agree.
package difficulty

import (
	"errors"
	"math"
	"math/big"

	"ferrominer/block"
)

const (
	// BlockTimeMillis is the target block time of the network.
	BlockTimeMillis = 15 * 1000

	// MinimumDifficulty is the floor below which the retarget never drops.
	MinimumDifficulty uint64 = 100

	// retargetSmoothing dampens how aggressively difficulty reacts to a
	// single solve time.
	retargetSmoothing = 8.0

	// fixedPointScale is the scale used to truncate the exponential
	// adjustment factor before it is applied.
	fixedPointScale = 10000
)

var (
	// ErrZeroDifficulty is returned when a difficulty of zero is used;
	// zero has no target representation.
	ErrZeroDifficulty = errors.New("difficulty cannot be zero")

	// ErrConversion is returned when a value cannot be represented as a
	// big integer. It is part of the consensus error set; with 64-bit
	// difficulties no conversion can actually fail.
	ErrConversion = errors.New("cannot convert value to big integer")
)

// oneLsh256 is 1 shifted left 256 bits, defined once to avoid recomputing
// it on every target conversion.
var oneLsh256 = new(big.Int).Lsh(big.NewInt(1), 256)

// ToTarget converts a difficulty to its 256-bit target as
// floor(2^256 / difficulty). Integer floor division only; approximating
// this with floating point would diverge from consensus.
func ToTarget(difficulty uint64) (*big.Int, error) {
	if difficulty == 0 {
		return nil, ErrZeroDifficulty
	}
	return new(big.Int).Div(oneLsh256, new(big.Int).SetUint64(difficulty)), nil
}

// HashToBig interprets a digest as a big-endian unsigned integer so it can
// be compared against a target.
func HashToBig(digest block.Digest) *big.Int {
	return new(big.Int).SetBytes(digest[:])
}

// MeetsTarget reports whether the digest, read big-endian, is at or below
// the target.
func MeetsTarget(digest block.Digest, target *big.Int) bool {
	return HashToBig(digest).Cmp(target) <= 0
}

// Check reports whether the digest satisfies the given difficulty.
// It returns ErrZeroDifficulty for a difficulty of zero.
func Check(digest block.Digest, difficulty uint64) (bool, error) {
	target, err := ToTarget(difficulty)
	if err != nil {
		return false, err
	}
	return MeetsTarget(digest, target), nil
}

// Next computes the difficulty for the block following a parent solved at
// parentTimestampMS with the given difficulty.
//
// The solve time is clamped to [0, 2*BlockTimeMillis]: a timestamp earlier
// than the parent's counts as an instant solve rather than underflowing,
// and a single outlier slow block cannot swing difficulty past the 2x
// bound. The exponential adjustment factor is truncated at a fixed-point
// scale before being applied, keeping the result identical across nodes
// regardless of their floating point environment. The result never drops
// below MinimumDifficulty and saturates at the maximum representable
// difficulty rather than wrapping.
func Next(parentTimestampMS, newTimestampMS uint64, previousDifficulty uint64) uint64 {
	var solveTime uint64
	if newTimestampMS > parentTimestampMS {
		solveTime = newTimestampMS - parentTimestampMS
	}
	if solveTime > 2*BlockTimeMillis {
		solveTime = 2 * BlockTimeMillis
	}

	easypart := int64(math.Exp((1-float64(solveTime)/float64(BlockTimeMillis))/retargetSmoothing) * fixedPointScale)

	// The scaled product can exceed 64 bits for very large difficulties,
	// so the adjustment is applied in big-int space.
	diff := new(big.Int).SetUint64(previousDifficulty)
	diff.Mul(diff, big.NewInt(easypart))
	diff.Div(diff, big.NewInt(fixedPointScale))
	if !diff.IsUint64() {
		return math.MaxUint64
	}
	if d := diff.Uint64(); d >= MinimumDifficulty {
		return d
	}
	return MinimumDifficulty
}
