package datafile

// Dict is a string-keyed map that remembers insertion order. Encoding a Dict
// writes its pairs in that order, and decoding preserves wire order.
type Dict struct {
	keys   []string
	values map[string]any
}

// NewDict creates an empty dict.
func NewDict() *Dict {
	return &Dict{values: make(map[string]any)}
}

// Set stores a value. Replacing an existing key keeps its original position.
// Set returns the dict so calls can be chained.
func (d *Dict) Set(key string, v any) *Dict {
	if d.values == nil {
		d.values = make(map[string]any)
	}
	if _, ok := d.values[key]; !ok {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
	return d
}

// Get returns the value stored under key.
func (d *Dict) Get(key string) (any, bool) {
	if d == nil {
		return nil, false
	}
	v, ok := d.values[key]
	return v, ok
}

// Has reports whether key is present.
func (d *Dict) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Delete removes key, preserving the order of the remaining keys.
func (d *Dict) Delete(key string) {
	if d == nil {
		return
	}
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of pairs.
func (d *Dict) Len() int {
	if d == nil {
		return 0
	}
	return len(d.keys)
}

// Keys returns the keys in insertion order.
func (d *Dict) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.keys))
	copy(keys, d.keys)
	return keys
}

// Range calls fn for every pair in order until fn returns false.
func (d *Dict) Range(fn func(key string, v any) bool) {
	if d == nil {
		return
	}
	for _, k := range d.keys {
		if !fn(k, d.values[k]) {
			return
		}
	}
}

// String returns the string stored under key.
func (d *Dict) String(key string) (string, bool) {
	v, _ := d.Get(key)
	s, ok := v.(string)
	return s, ok
}

// Int returns the integer stored under key.
func (d *Dict) Int(key string) (int64, bool) {
	v, _ := d.Get(key)
	i, ok := v.(int64)
	return i, ok
}

// Float returns the double stored under key.
func (d *Dict) Float(key string) (float64, bool) {
	v, _ := d.Get(key)
	f, ok := v.(float64)
	return f, ok
}

// Bytes returns the byte array stored under key.
func (d *Dict) Bytes(key string) ([]byte, bool) {
	v, _ := d.Get(key)
	b, ok := v.([]byte)
	return b, ok
}

// Array returns the array stored under key.
func (d *Dict) Array(key string) ([]any, bool) {
	v, _ := d.Get(key)
	a, ok := v.([]any)
	return a, ok
}

// Dict returns the nested dict stored under key.
func (d *Dict) Dict(key string) (*Dict, bool) {
	v, _ := d.Get(key)
	n, ok := v.(*Dict)
	return n, ok
}
