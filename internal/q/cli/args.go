package cli

import "fmt"

// NoArgs accepts no positional args.
func NoArgs(args []string) error {
	return ExactArgs(0)(args)
}

// ExactArgs accepts exactly n positional args.
func ExactArgs(n int) ArgsFunc {
	return countArgs(func(got int) bool { return got == n }, func() string {
		if n == 0 {
			return "no args"
		}
		return pluralArgs(n)
	})
}

// MinimumArgs accepts n or more positional args.
func MinimumArgs(n int) ArgsFunc {
	return countArgs(func(got int) bool { return got >= n }, func() string { return "at least " + pluralArgs(n) })
}

// RangeArgs accepts between min and max positional args, inclusive.
func RangeArgs(min, max int) ArgsFunc {
	return countArgs(func(got int) bool { return got >= min && got <= max }, func() string { return pluralArgs(min) + "-" + pluralArgs(max) })
}

func countArgs(ok func(got int) bool, want func() string) ArgsFunc {
	return func(args []string) error {
		if ok(len(args)) {
			return nil
		}
		return usageErrorf("expected %s, got %d", want(), len(args))
	}
}

func pluralArgs(n int) string {
	if n == 1 {
		return "1 arg"
	}
	return fmt.Sprintf("%d args", n)
}
