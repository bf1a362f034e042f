package difficulty

import (
	"math"
	"math/big"
	"testing"

	"ferrominer/block"
)

func TestToTargetMatchesFloorDivision(t *testing.T) {
	oneLsh256 := new(big.Int).Lsh(big.NewInt(1), 256)

	difficulties := []uint64{1, 2, 3, 1000, 123456789, 1 << 40, ^uint64(0)}
	for _, d := range difficulties {
		target, err := ToTarget(d)
		if err != nil {
			t.Fatalf("ToTarget(%d) failed: %v", d, err)
		}

		want := new(big.Int).Div(oneLsh256, new(big.Int).SetUint64(d))
		if target.Cmp(want) != 0 {
			t.Errorf("ToTarget(%d) = %s, want %s", d, target, want)
		}
	}
}

func TestToTargetZeroDifficulty(t *testing.T) {
	_, err := ToTarget(0)
	if err != ErrZeroDifficulty {
		t.Errorf("ToTarget(0) error = %v, want ErrZeroDifficulty", err)
	}
}

func TestToTargetDifficultyOne(t *testing.T) {
	// Difficulty 1 is the trivial target: every digest must satisfy it
	// except nothing, since 2^256 / 1 exceeds any 256-bit digest.
	target, err := ToTarget(1)
	if err != nil {
		t.Fatalf("ToTarget(1) failed: %v", err)
	}

	var maxDigest block.Digest
	for i := range maxDigest {
		maxDigest[i] = 0xff
	}
	if !MeetsTarget(maxDigest, target) {
		t.Error("all-ones digest should satisfy difficulty 1")
	}
}

func TestMeetsTargetBoundaries(t *testing.T) {
	target := big.NewInt(0x0100)

	tests := []struct {
		name  string
		value int64
		want  bool
	}{
		{"below target", 0x00ff, true},
		{"equal to target", 0x0100, true},
		{"above target", 0x0101, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var digest block.Digest
			big.NewInt(tt.value).FillBytes(digest[:])
			if got := MeetsTarget(digest, target); got != tt.want {
				t.Errorf("MeetsTarget(%#x, %#x) = %v, want %v", tt.value, target, got, tt.want)
			}
		})
	}
}

func TestMeetsTargetIsBigEndian(t *testing.T) {
	// A digest with only its first byte set is numerically huge and must
	// fail any realistic target.
	var digest block.Digest
	digest[0] = 0x01

	target, err := ToTarget(1 << 16)
	if err != nil {
		t.Fatal(err)
	}
	if MeetsTarget(digest, target) {
		t.Error("digest with high leading byte should not satisfy target")
	}

	// The same byte at the little end is tiny and must pass.
	var small block.Digest
	small[block.DigestSize-1] = 0x01
	if !MeetsTarget(small, target) {
		t.Error("numerically tiny digest should satisfy target")
	}
}

func TestCheckComposesConversionAndComparison(t *testing.T) {
	template := &block.Template{Height: 42, Timestamp: 1700000000000, Nonce: 7}
	digest := template.Hash()

	for _, d := range []uint64{1, 5, 1000, 1 << 30} {
		target, err := ToTarget(d)
		if err != nil {
			t.Fatal(err)
		}

		got, err := Check(digest, d)
		if err != nil {
			t.Fatalf("Check failed: %v", err)
		}
		if want := MeetsTarget(digest, target); got != want {
			t.Errorf("Check(digest, %d) = %v, want %v", d, got, want)
		}
	}

	if _, err := Check(digest, 0); err != ErrZeroDifficulty {
		t.Errorf("Check with zero difficulty error = %v, want ErrZeroDifficulty", err)
	}
}

func TestNextMonotonicInSolveTime(t *testing.T) {
	const prev = uint64(1_000_000)

	var last uint64
	first := true
	for solveTime := uint64(0); solveTime <= 3*BlockTimeMillis; solveTime += 500 {
		diff := Next(0, solveTime, prev)
		if diff < MinimumDifficulty {
			t.Fatalf("Next returned %d, below minimum %d", diff, MinimumDifficulty)
		}
		if !first && diff > last {
			t.Fatalf("difficulty increased from %d to %d as solve time grew to %d", last, diff, solveTime)
		}
		last = diff
		first = false
	}
}

func TestNextClampsSolveTime(t *testing.T) {
	const prev = uint64(500_000)

	atClamp := Next(0, 2*BlockTimeMillis, prev)
	wayPast := Next(0, 10*BlockTimeMillis, prev)
	if atClamp != wayPast {
		t.Errorf("solve times past 2x block time should clamp: got %d and %d", atClamp, wayPast)
	}
}

func TestNextOnTargetKeepsDifficulty(t *testing.T) {
	// A solve exactly on the block time has an adjustment factor of
	// e^0 = 1, so difficulty stays put modulo fixed-point truncation.
	const prev = uint64(1000)

	got := Next(0, BlockTimeMillis, prev)
	if got != prev {
		t.Errorf("on-target solve changed difficulty from %d to %d", prev, got)
	}
}

func TestNextFloorsAtMinimum(t *testing.T) {
	// Slow solves on an already-minimal difficulty cannot go lower.
	got := Next(0, 2*BlockTimeMillis, MinimumDifficulty)
	if got != MinimumDifficulty {
		t.Errorf("Next = %d, want minimum %d", got, MinimumDifficulty)
	}

	// Same for a previous difficulty below the minimum.
	got = Next(0, BlockTimeMillis, 1)
	if got != MinimumDifficulty {
		t.Errorf("Next = %d, want minimum %d", got, MinimumDifficulty)
	}
}

func TestNextOutOfOrderTimestamps(t *testing.T) {
	// A new timestamp earlier than the parent's is clamped to a zero
	// solve time instead of underflowing, giving the same result as an
	// instant solve.
	const prev = uint64(10_000)

	outOfOrder := Next(BlockTimeMillis, 0, prev)
	instant := Next(0, 0, prev)
	if outOfOrder != instant {
		t.Errorf("out-of-order timestamps = %d, want instant-solve result %d", outOfOrder, instant)
	}
	if outOfOrder < prev {
		t.Errorf("instant solve should not lower difficulty: %d < %d", outOfOrder, prev)
	}
}

func TestNextLargeDifficultyDoesNotWrap(t *testing.T) {
	prev := ^uint64(0) - 12345

	// A slow solve lowers a near-max difficulty; the result must match
	// the exact wide computation, not a wrapped 64-bit product.
	got := Next(0, 2*BlockTimeMillis, prev)
	easypart := int64(math.Exp((1-2.0)/retargetSmoothing) * fixedPointScale)
	want := new(big.Int).SetUint64(prev)
	want.Mul(want, big.NewInt(easypart))
	want.Div(want, big.NewInt(fixedPointScale))
	if !want.IsUint64() {
		t.Fatal("reference result should fit in 64 bits")
	}
	if got != want.Uint64() {
		t.Errorf("Next = %d, want %d", got, want.Uint64())
	}

	// An instant solve pushes it past 64 bits; the result saturates.
	if got := Next(0, 0, prev); got != ^uint64(0) {
		t.Errorf("Next = %d, want saturation at %d", got, ^uint64(0))
	}
}

func TestNextFastSolveRaisesDifficulty(t *testing.T) {
	const prev = uint64(1_000_000)

	fast := Next(0, BlockTimeMillis/4, prev)
	if fast <= prev {
		t.Errorf("fast solve should raise difficulty: got %d from %d", fast, prev)
	}

	slow := Next(0, 2*BlockTimeMillis, prev)
	if slow >= prev {
		t.Errorf("slow solve should lower difficulty: got %d from %d", slow, prev)
	}
}
