package dom

// Attr is a single attribute or style property.
type Attr struct {
	Key string
	Val string
}

// Attrs is an insertion ordered attribute list. Keys are unique.
type Attrs []Attr

// Get returns value for the key and whether it was present.
func (a Attrs) Get(key string) (string, bool) {
	for _, at := range a {
		if at.Key == key {
			return at.Val, true
		}
	}
	return "", false
}

// Value returns value for the key or empty string.
func (a Attrs) Value(key string) string {
	v, _ := a.Get(key)
	return v
}

// Has reports whether key is present.
func (a Attrs) Has(key string) bool {
	_, ok := a.Get(key)
	return ok
}

// Set replaces value of the existing key in place or appends a new one.
func (a *Attrs) Set(key, val string) {
	for i := range *a {
		if (*a)[i].Key == key {
			(*a)[i].Val = val
			return
		}
	}
	*a = append(*a, Attr{Key: key, Val: val})
}

// Delete removes key and reports whether it was present.
func (a *Attrs) Delete(key string) bool {
	for i := range *a {
		if (*a)[i].Key == key {
			*a = append((*a)[:i], (*a)[i+1:]...)
			return true
		}
	}
	return false
}

// Keys returns attribute names in order.
func (a Attrs) Keys() []string {
	keys := make([]string, 0, len(a))
	for _, at := range a {
		keys = append(keys, at.Key)
	}
	return keys
}

// Clone returns independent copy, nil for empty list.
func (a Attrs) Clone() Attrs {
	if len(a) == 0 {
		return nil
	}
	return append(Attrs(nil), a...)
}

// Equal compares two lists ignoring order.
func (a Attrs) Equal(b Attrs) bool {
	if len(a) != len(b) {
		return false
	}
	for _, at := range a {
		if v, ok := b.Get(at.Key); !ok || v != at.Val {
			return false
		}
	}
	return true
}
