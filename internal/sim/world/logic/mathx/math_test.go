package mathx

import "testing"

func TestFloorDiv_NegativeTowardNegInf(t *testing.T) {
	cases := []struct{ a, b, want int }{
		{0, 8, 0},
		{7, 8, 0},
		{8, 8, 1},
		{-1, 8, -1},
		{-8, 8, -1},
		{-9, 8, -2},
		{15, 8, 1},
	}
	for _, c := range cases {
		if got := FloorDiv(c.a, c.b); got != c.want {
			t.Fatalf("FloorDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}

func TestMod_AlwaysNonNegative(t *testing.T) {
	for a := -32; a <= 32; a++ {
		m := Mod(a, 8)
		if m < 0 || m >= 8 {
			t.Fatalf("Mod(%d,8) = %d out of range", a, m)
		}
		if FloorDiv(a, 8)*8+m != a {
			t.Fatalf("FloorDiv/Mod do not recompose %d", a)
		}
	}
}

func TestHash2_DeterministicAndSeedSensitive(t *testing.T) {
	if Hash2(1, 4, -7) != Hash2(1, 4, -7) {
		t.Fatal("Hash2 not deterministic")
	}
	if Hash2(1, 4, -7) == Hash2(2, 4, -7) {
		t.Fatal("Hash2 ignores seed")
	}
}
