// Package pseudo implements per-run pseudonymization of free-text identifiers.
//
// A Codebook maps identifier strings to small integer codes within a single
// column family (addresses and message ids are separate codebooks). Codes are
// assigned in first-encountered order starting at 1; code 0 is reserved for a
// designated "self" identity; the empty string maps to null. The mapping is a
// bijection on observed identifiers and is not stable across runs.
package pseudo

type Codebook struct {
	codes   map[string]int
	order   []string
	self    string
	hasSelf bool
	next    int
}

// NewCodebook returns an empty codebook.
func NewCodebook() *Codebook {
	return &Codebook{codes: make(map[string]int), next: 1}
}

// SetSelf reserves code 0 for id. Must be called before any Code lookups that
// should resolve to the self identity.
func (c *Codebook) SetSelf(id string) {
	c.self = id
	c.hasSelf = true
}

// Code returns the code for id, assigning the next free code on first
// encounter. The second return is false for the empty string, which stands
// for a missing identifier and maps to null.
func (c *Codebook) Code(id string) (int, bool) {
	if id == "" {
		return 0, false
	}
	if c.hasSelf && id == c.self {
		return 0, true
	}
	if code, ok := c.codes[id]; ok {
		return code, true
	}
	code := c.next
	c.next++
	c.codes[id] = code
	c.order = append(c.order, id)
	return code, true
}

// Lookup returns the code for id without assigning a new one.
func (c *Codebook) Lookup(id string) (int, bool) {
	if c.hasSelf && id == c.self {
		return 0, true
	}
	code, ok := c.codes[id]
	return code, ok
}

// Len reports how many identifiers have been assigned codes, excluding self.
func (c *Codebook) Len() int { return len(c.codes) }

// Inverse returns the code-to-identifier mapping, including self when set.
func (c *Codebook) Inverse() map[int]string {
	inv := make(map[int]string, len(c.codes)+1)
	for id, code := range c.codes {
		inv[code] = id
	}
	if c.hasSelf {
		inv[0] = c.self
	}
	return inv
}
