package coop

type Option func(*Options)

// Options configure RWLock, WaitGroup and CancellableWaitGroup. Fields that
// do not apply to a primitive are ignored by it.
type Options struct {
	// Name labels the primitive in Observer events.
	Name     string
	Observer Observer
	// MaxConcurrency bounds how many functions a CancellableWaitGroup runs at
	// once. Zero or less means unbounded.
	MaxConcurrency int
}

func buildOptions(optFns []Option) Options {
	var o Options
	for _, fn := range optFns {
		fn(&o)
	}
	return o
}

func WithName(name string) Option { return func(o *Options) { o.Name = name } }

func WithObserver(obs Observer) Option { return func(o *Options) { o.Observer = obs } }

func WithMaxConcurrency(n int) Option { return func(o *Options) { o.MaxConcurrency = n } }

func (o *Options) observer() Observer {
	if o.Observer == nil {
		return nopObserver{}
	}
	return o.Observer
}
