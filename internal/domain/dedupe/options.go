package dedupe

// Option configures a ring deduper.
type Option func(*ringDeduper)

// WithCapacity sets how many request ids are remembered. Values below 1 keep the default.
func WithCapacity(n int) Option {
	return func(d *ringDeduper) {
		if n > 0 {
			d.capacity = n
		}
	}
}
