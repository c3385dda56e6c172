package libemit

type (
	// Option configures an Emitter.
	Option func(*options)

	options struct {
		logger Logger
	}
)

// WithLogger sets the logger the emitter reports registrations, removals and
// recovered panics to. Defaults to NoopLogger.
func WithLogger(l Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func newOptions(opts []Option) options {
	o := options{logger: NoopLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
