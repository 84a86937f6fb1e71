package prelude

import (
	"fmt"

	"github.com/thomasrohde/lam/pkg/evaluator"
)

// str(value) → string
func preludeStr(_ *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected 1 argument, got %d", len(args))
	}
	return evaluator.NewString(evaluator.Format(args[0])), nil
}

// concat(args...) → string
func preludeConcat(_ *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
	return evaluator.NewString(joinFormatted(args, "")), nil
}
