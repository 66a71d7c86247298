package forest

// Params configures a Forest.
type Params struct {
	Trees           int
	MaxDepth        int // 0 grows until leaves are pure
	MinSamplesSplit int
	// MaxFeatures is the number of features tried per split; 0 means
	// floor(sqrt(number of features)).
	MaxFeatures int
	Seed        uint64
}

// DefaultParams mirror a 100-tree forest seeded with 42.
func DefaultParams() Params {
	return Params{
		Trees:           100,
		MinSamplesSplit: 2,
		Seed:            42,
	}
}

// Option modifies Params
type Option func(*Params)

// WithTrees sets the number of trees
func WithTrees(n int) Option {
	return func(p *Params) { p.Trees = n }
}

// WithMaxDepth limits tree depth
func WithMaxDepth(d int) Option {
	return func(p *Params) { p.MaxDepth = d }
}

// WithMinSamplesSplit sets the smallest node that may be split
func WithMinSamplesSplit(n int) Option {
	return func(p *Params) { p.MinSamplesSplit = n }
}

// WithMaxFeatures sets how many features are tried per split
func WithMaxFeatures(n int) Option {
	return func(p *Params) { p.MaxFeatures = n }
}

// WithSeed sets the random seed
func WithSeed(seed uint64) Option {
	return func(p *Params) { p.Seed = seed }
}
