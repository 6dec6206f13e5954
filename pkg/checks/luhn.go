package checks

import (
	"fmt"
	"strings"

	"sentra-hq/warden/pkg/ruleset"
)

// evaluateChecksumForbid scans the text for contiguous digit runs (separators
// like spaces and dashes tolerated mid-run) whose length falls inside the
// configured range and which pass the Luhn checksum. Runs that merely look
// like card numbers but fail the checksum never trigger.
func evaluateChecksumForbid(c *ruleset.Check, text string) Result {
	for _, run := range digitRuns(text) {
		n := len(run.digits)
		if n < c.MinRunLength || n > c.MaxRunLength {
			continue
		}
		if !luhnValid(run.digits) {
			continue
		}
		return Result{
			Triggered: true,
			Evidence: fmt.Sprintf("luhn-valid digit run (%d digits) at [%d,%d): %s",
				n, run.start, run.end, maskDigits(run.digits)),
		}
	}
	return Result{}
}

// digitRun is a maximal sequence of digits possibly interrupted by single
// separator characters, with its location in the source text.
type digitRun struct {
	digits []byte // digits only, separators stripped
	start  int    // byte offset of the first digit
	end    int    // byte offset one past the last digit
}

// digitRuns extracts maximal separator-tolerant digit runs. A run begins and
// ends on a digit; spaces and dashes join adjacent digit groups but never
// lead or trail.
func digitRuns(text string) []digitRun {
	var runs []digitRun
	i := 0
	for i < len(text) {
		if !isDigit(text[i]) {
			i++
			continue
		}

		run := digitRun{start: i}
		j := i
		lastDigit := i
		for j < len(text) {
			switch {
			case isDigit(text[j]):
				run.digits = append(run.digits, text[j])
				lastDigit = j
				j++
			case isSeparator(text[j]) && j+1 < len(text) && isDigit(text[j+1]):
				// Separator joins two digit groups; keep scanning.
				j++
			default:
				j = len(text)
			}
		}
		run.end = lastDigit + 1
		runs = append(runs, run)
		i = run.end
	}
	return runs
}

// luhnValid applies the modulo-10 positional-weighting checksum: from the
// rightmost digit, every second digit is doubled (subtracting 9 when the
// double exceeds 9) and the total must be divisible by 10.
func luhnValid(digits []byte) bool {
	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// maskDigits hides all but the last four digits of a run.
func maskDigits(digits []byte) string {
	n := len(digits)
	if n <= 4 {
		return strings.Repeat("*", n)
	}
	return strings.Repeat("*", n-4) + string(digits[n-4:])
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

func isSeparator(b byte) bool {
	return b == ' ' || b == '-'
}
