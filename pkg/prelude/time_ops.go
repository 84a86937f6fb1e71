package prelude

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/thomasrohde/lam/pkg/evaluator"
)

// sleep(seconds) → seconds, or false for a non-number
func sleepFn(host Host) evaluator.NativeFunc {
	return func(_ *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
		var num evaluator.Number
		ok := len(args) > 0
		if ok {
			num, ok = args[0].(evaluator.Number)
		}
		if !ok || math.IsNaN(num.Value) {
			if _, err := io.WriteString(host.Out, "Invalid argument: must be a number.\n"); err != nil {
				return nil, err
			}
			return evaluator.False, nil
		}

		if num.Value > 0 {
			host.Sleep(secondsToDuration(num.Value))
		}
		return num, nil
	}
}

// secondsToDuration converts a positive number of seconds, saturating at
// the longest Duration instead of overflowing.
func secondsToDuration(seconds float64) time.Duration {
	if seconds >= float64(math.MaxInt64)/float64(time.Second) {
		return time.Duration(math.MaxInt64)
	}
	return time.Duration(seconds * float64(time.Second))
}

// time(fn) → true after printing how long fn took
func timeFn(host Host) evaluator.NativeFunc {
	return func(ev *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("expected a function")
		}
		switch args[0].(type) {
		case evaluator.Closure, evaluator.Native:
		default:
			return nil, fmt.Errorf("expected a function, got %s", evaluator.TypeName(args[0]))
		}

		start := host.Now()
		if _, err := ev.Apply(args[0], nil); err != nil {
			return nil, err
		}
		elapsed := host.Now().Sub(start)

		if _, err := fmt.Fprintf(host.Out, "%dµs\n", elapsed.Microseconds()); err != nil {
			return nil, err
		}
		return evaluator.NewBool(true), nil
	}
}
