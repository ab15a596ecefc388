package framegraph

// Option configures a FrameGraph during creation.
//
// Example:
//
//	fg := framegraph.New(allocator,
//	    framegraph.WithName("shadow-frame"),
//	    framegraph.WithCapacity(32, 64))
type Option func(*options)

// options holds optional configuration for FrameGraph creation.
type options struct {
	name        string
	passCap     int
	resourceCap int
}

// defaultOptions returns the default frame graph options.
func defaultOptions() options {
	return options{
		name:        "framegraph",
		passCap:     16,
		resourceCap: 32,
	}
}

// WithName sets the graph's name, used in log records and as the
// graphviz dump title.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithCapacity pre-sizes the internal arenas for the expected number
// of passes and resources, avoiding reallocation while declaring a
// large frame. Values of zero or less keep the defaults.
func WithCapacity(passes, resources int) Option {
	return func(o *options) {
		if passes > 0 {
			o.passCap = passes
		}
		if resources > 0 {
			o.resourceCap = resources
		}
	}
}
