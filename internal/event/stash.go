package event

// Stash is the per-path key-value store bridging received messages into
// later constructed ones: ExpectMsg writes every matched field, Rcvd reads
// them back at send time.
//
// A Stash lives exactly as long as one path execution. The executor wipes
// it on every restart, so nothing written in one path is ever visible in
// another.
type Stash struct {
	vals map[string]string
}

// NewStash creates an empty stash.
func NewStash() *Stash {
	return &Stash{vals: make(map[string]string)}
}

// Set writes a value. Writing an existing key overwrites it; the latest
// received message wins.
func (s *Stash) Set(key, value string) {
	s.vals[key] = value
}

// Get reads a value and whether it was ever written.
func (s *Stash) Get(key string) (string, bool) {
	v, ok := s.vals[key]
	return v, ok
}

// Wipe discards every entry. Called by the executor at path start and on
// every runner restart.
func (s *Stash) Wipe() {
	s.vals = make(map[string]string)
}

// Len returns the number of stashed entries.
func (s *Stash) Len() int {
	return len(s.vals)
}
