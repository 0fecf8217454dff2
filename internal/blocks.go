package internal

import "fmt"

// CeilDiv returns a/b rounded up. It does not overflow for any a.
func CeilDiv(a, b uint64) uint64 {
	q := a / b
	if a%b != 0 {
		q++
	}
	return q
}

// BlockOffset converts a block index into a byte offset within the image.
func BlockOffset(index uint64, blockSize int) int64 {
	return int64(index) * int64(blockSize)
}

// HumanSize renders a byte count the way the list and info commands show it.
func HumanSize(size uint64) string {
	if size < 1024 {
		return fmt.Sprintf("%dB", size)
	}
	sizef := float64(size)
	for _, unit := range []string{"K", "M", "G"} {
		sizef /= 1024
		if sizef < 1024 {
			return fmt.Sprintf("%.1f%s", sizef, unit)
		}
	}
	return fmt.Sprintf("%.1fT", sizef/1024)
}

// FormatWithCommas groups the digits of n in threes.
func FormatWithCommas(n uint64) string {
	str := fmt.Sprintf("%d", n)
	if len(str) <= 3 {
		return str
	}

	var result []byte
	for i, c := range []byte(str) {
		if i > 0 && (len(str)-i)%3 == 0 {
			result = append(result, ',')
		}
		result = append(result, c)
	}
	return string(result)
}
