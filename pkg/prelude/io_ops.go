package prelude

import (
	"io"

	"github.com/thomasrohde/lam/pkg/evaluator"
)

// print(args...) / puts(args...) → first argument or false
func printFn(out io.Writer, suffix string) evaluator.NativeFunc {
	return func(_ *evaluator.Evaluator, args []evaluator.Value) (evaluator.Value, error) {
		if _, err := io.WriteString(out, joinFormatted(args, ", ")+suffix); err != nil {
			return nil, err
		}
		if len(args) == 0 {
			return evaluator.False, nil
		}
		return args[0], nil
	}
}
