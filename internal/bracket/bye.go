package bracket

// NextPow2 returns the smallest power of two >= n (minimum 1).
func NextPow2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}

// ByeCount returns how many of sideCount sides receive an automatic
// round-1 advance so that the field folds down to a power of two. Every
// later round then has an even side count by construction.
func ByeCount(sideCount int) int {
	return NextPow2(sideCount) - sideCount
}

// RoundCount returns the number of rounds a bracket of sideCount sides
// plays through, byes included.
func RoundCount(sideCount int) int {
	rounds := 0
	for n := NextPow2(sideCount); n > 1; n /= 2 {
		rounds++
	}
	return rounds
}
