package prelude

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/thomasrohde/lam/pkg/capabilities"
	"github.com/thomasrohde/lam/pkg/evaluator"
)

// Host is what the prelude needs from the outside world.
type Host struct {
	// Out receives everything print, puts, sleep and time write.
	// Defaults to os.Stdout.
	Out io.Writer

	// Sleep defaults to time.Sleep.
	Sleep func(time.Duration)

	// Now defaults to time.Now. Its readings must carry the monotonic clock.
	Now func() time.Time
}

func (h Host) withDefaults() Host {
	if h.Out == nil {
		h.Out = os.Stdout
	}
	if h.Sleep == nil {
		h.Sleep = time.Sleep
	}
	if h.Now == nil {
		h.Now = time.Now
	}
	return h
}

// RegisterDefaults adds all prelude functions.
func RegisterDefaults(r *Registry, host Host) {
	host = host.withDefaults()

	// Output
	r.Register(Fn{Name: "print", Capability: capabilities.IO, Usage: "print(args...)",
		Summary: "write the arguments joined by \", \"; returns the first argument or false",
		Execute: printFn(host.Out, "")})
	r.Register(Fn{Name: "puts", Capability: capabilities.IO, Usage: "puts(args...)",
		Summary: "like print, followed by a newline",
		Execute: printFn(host.Out, "\n")})

	// Time
	r.Register(Fn{Name: "sleep", Capability: capabilities.Time, Usage: "sleep(seconds)",
		Summary: "pause for the given number of seconds; returns the argument",
		Execute: sleepFn(host)})
	r.Register(Fn{Name: "time", Capability: capabilities.Time, Usage: "time(fn)",
		Summary: "call fn with no arguments and print the elapsed microseconds; returns true",
		Execute: timeFn(host)})

	// Strings
	r.Register(Fn{Name: "str", Capability: capabilities.Pure, Usage: "str(value)",
		Summary: "the value as print would show it",
		Execute: preludeStr})
	r.Register(Fn{Name: "concat", Capability: capabilities.Pure, Usage: "concat(args...)",
		Summary: "concatenate the printed forms of the arguments",
		Execute: preludeConcat})

	// Math
	r.Register(Fn{Name: "max", Capability: capabilities.Pure, Usage: "max(n, ...)",
		Summary: "largest of one or more numbers",
		Execute: preludeMax})
	r.Register(Fn{Name: "min", Capability: capabilities.Pure, Usage: "min(n, ...)",
		Summary: "smallest of one or more numbers",
		Execute: preludeMin})
}

// Default returns a registry holding every prelude function.
func Default(host Host) *Registry {
	r := NewRegistry()
	RegisterDefaults(r, host)
	return r
}

func joinFormatted(args []evaluator.Value, sep string) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = evaluator.Format(arg)
	}
	return strings.Join(parts, sep)
}
