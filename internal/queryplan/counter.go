package queryplan

// JoinID identifies one remote join placeholder within a compilation.
type JoinID int

// Counter hands out join ids for one compilation.
//
// Ids are strictly increasing and never repeat. A Counter is owned by a
// single compilation and threaded by pointer through every recursive call,
// including the plans built for remote join targets, so nested levels share
// one id space. It is not safe for concurrent use and needs no locking:
// concurrent compilations each create their own.
type Counter struct {
	id int
}

// NewCounter creates a counter; the first call to Next returns 1.
func NewCounter() *Counter {
	return &Counter{}
}

// Next returns the next join id.
func (c *Counter) Next() JoinID {
	c.id++
	return JoinID(c.id)
}

// Current returns the last id handed out, or 0 if none has been.
func (c *Counter) Current() JoinID {
	return JoinID(c.id)
}
