// Package numerology derives life path numbers from dates.
package numerology

import "strconv"

// Master numbers stop the reduction even though they exceed nine.
var masterNumbers = map[int]bool{11: true, 22: true, 33: true}

// IsMaster reports whether n is one of 11, 22 or 33.
func IsMaster(n int) bool {
	return masterNumbers[n]
}

// LifePath sums every decimal digit found in date and keeps re-summing the
// digits of the total until it is at most 9 or a master number. Any string is
// accepted; one without digits yields 0.
func LifePath(date string) int {
	sum := digitSum(date)
	for sum > 9 && !IsMaster(sum) {
		sum = digitSum(strconv.Itoa(sum))
	}
	return sum
}

func digitSum(s string) int {
	total := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			total += int(r - '0')
		}
	}
	return total
}
