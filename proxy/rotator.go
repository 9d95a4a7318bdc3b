package proxy

// Rotator hands out endpoints in strict round-robin order: no endpoint is
// handed out twice until every other endpoint has been handed out once.
// The zero-size rotator is valid and means "connect directly".
//
// A Rotator has a single owner, the session rebuild loop, and is not safe
// for concurrent use.
type Rotator struct {
	endpoints []Endpoint
	next      int
	started   bool
}

// NewRotator builds a rotator over the given list. The list is not copied;
// callers must not mutate it afterwards.
func NewRotator(endpoints []Endpoint) *Rotator {
	return &Rotator{endpoints: endpoints}
}

// Size returns the number of endpoints in the rotation.
func (r *Rotator) Size() int {
	return len(r.endpoints)
}

// Next hands out the next endpoint in rotation order. ok is false when the
// rotation is empty.
func (r *Rotator) Next() (ep Endpoint, ok bool) {
	if len(r.endpoints) == 0 {
		return Endpoint{}, false
	}
	ep = r.endpoints[r.next]
	r.next = (r.next + 1) % len(r.endpoints)
	r.started = true
	return ep, true
}

// Current returns the endpoint most recently handed out by Next. ok is
// false before the first Next call or when the rotation is empty.
func (r *Rotator) Current() (Endpoint, bool) {
	if !r.started || len(r.endpoints) == 0 {
		return Endpoint{}, false
	}
	idx := (r.next - 1 + len(r.endpoints)) % len(r.endpoints)
	return r.endpoints[idx], true
}
