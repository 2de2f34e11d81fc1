package storage

// Collection is an ordered list of records stored at one path. Mutations
// stay local until Write stores them back into the transaction.
type Collection[T any] struct {
	tx    *Tx
	path  string
	items []T
}

// Get loads the collection stored at path. A missing path yields an empty
// collection.
func Get[T any](tx *Tx, path string) (*Collection[T], error) {
	var items []T
	if _, err := tx.Get(path, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []T{}
	}
	return &Collection[T]{tx: tx, path: path, items: items}, nil
}

// Value returns a copy of the items in stored order
func (c *Collection[T]) Value() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of items
func (c *Collection[T]) Len() int {
	return len(c.items)
}

// Find returns the first item matching pred
func (c *Collection[T]) Find(pred func(T) bool) (T, bool) {
	for _, item := range c.items {
		if pred(item) {
			return item, true
		}
	}
	var zero T
	return zero, false
}

// Filter returns the items matching pred in stored order
func (c *Collection[T]) Filter(pred func(T) bool) []T {
	out := make([]T, 0, len(c.items))
	for _, item := range c.items {
		if pred(item) {
			out = append(out, item)
		}
	}
	return out
}

// Reverse returns a copy of the items, last stored first
func (c *Collection[T]) Reverse() []T {
	out := make([]T, len(c.items))
	for i, item := range c.items {
		out[len(c.items)-1-i] = item
	}
	return out
}

// Push appends items
func (c *Collection[T]) Push(items ...T) {
	c.items = append(c.items, items...)
}

// Remove deletes every item matching pred and returns them
func (c *Collection[T]) Remove(pred func(T) bool) []T {
	kept := make([]T, 0, len(c.items))
	var removed []T
	for _, item := range c.items {
		if pred(item) {
			removed = append(removed, item)
			continue
		}
		kept = append(kept, item)
	}
	c.items = kept
	return removed
}

// DropFirst removes up to n items from the front and returns them
func (c *Collection[T]) DropFirst(n int) []T {
	if n <= 0 {
		return nil
	}
	if n > len(c.items) {
		n = len(c.items)
	}
	dropped := make([]T, n)
	copy(dropped, c.items[:n])
	c.items = append([]T{}, c.items[n:]...)
	return dropped
}

// Clear removes every item and returns them
func (c *Collection[T]) Clear() []T {
	removed := c.items
	c.items = []T{}
	return removed
}

// Write stores the collection back at its path
func (c *Collection[T]) Write() error {
	return c.tx.Set(c.path, c.items)
}
