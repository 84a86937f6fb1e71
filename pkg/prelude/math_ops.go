package prelude

import (
	"fmt"
	"math"

	"github.com/thomasrohde/lam/pkg/evaluator"
)

func numbers(args []evaluator.Value) ([]float64, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("expected at least one number")
	}
	nums := make([]float64, len(args))
	for i, arg := range args {
		num, ok := arg.(evaluator.Number)
		if !ok {
			return nil, fmt.Errorf("argument %d must be a number, got %s", i+1, evaluator.TypeName(arg))
		}
		nums[i] = num.Value
	}
	return nums, nil
}

// max(n, ...) → number
func preludeMax(_ *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	nums, err := numbers(args)
	if err != nil {
		return nil, err
	}
	max := math.Inf(-1)
	for _, n := range nums {
		max = math.Max(max, n)
	}
	return evaluator.NewNumber(max), nil
}

// min(n, ...) → number
func preludeMin(_ *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	nums, err := numbers(args)
	if err != nil {
		return nil, err
	}
	min := math.Inf(1)
	for _, n := range nums {
		min = math.Min(min, n)
	}
	return evaluator.NewNumber(min), nil
}
