package component

// Context is the key-value side channel accumulated across a pipeline.
// Updates append or overwrite; keys are never deleted. When two components
// provide the same key the later one wins.
type Context map[string]any

// Update folds updates into c. A nil update is a no-op.
func (c Context) Update(updates Context) {
	for k, v := range updates {
		c[k] = v
	}
}

// Get returns the value stored under key
func (c Context) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

// Clone returns a shallow copy
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Keys returns the keys of c in no particular order
func (c Context) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// FoldProvided folds ProvideContext of every component into a fresh context,
// left to right.
func FoldProvided(pipeline []Component) (Context, error) {
	shared := make(Context)
	for _, c := range pipeline {
		updates, err := c.ProvideContext()
		if err != nil {
			return nil, err
		}
		shared.Update(updates)
	}
	return shared, nil
}
