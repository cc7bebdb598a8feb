package scoring

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithModel sets the scoring model.
func WithModel(m Model) Option {
	return func(a *Aggregator) {
		if m != nil {
			a.model = m
		}
	}
}

// WithLimit caps the number of returned matches. Zero or less disables the cap.
func WithLimit(n int) Option {
	return func(a *Aggregator) {
		a.limit = n
	}
}
