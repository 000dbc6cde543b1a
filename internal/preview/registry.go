package preview

import "github.com/google/uuid"

// Listener receives the resolved entry for a key. OnResult runs on the
// scheduler's drain goroutine (or on the caller's goroutine when Subscribe
// replays an already-cached entry), so it must not block.
type Listener interface {
	OnResult(key string, entry Entry)
}

// ListenerFunc adapts a plain function to the Listener interface.
type ListenerFunc func(key string, entry Entry)

func (f ListenerFunc) OnResult(key string, entry Entry) { f(key, entry) }

// Token identifies one subscription so it can be removed without comparing
// listener values.
type Token string

// registry maps keys to their registered listeners. Not safe for concurrent
// use on its own; the Prefetcher serializes access under its mutex.
type registry struct {
	byKey   map[string]map[Token]Listener
	byToken map[Token]string
	global  map[Token]Listener
}

func newRegistry() *registry {
	return &registry{
		byKey:   make(map[string]map[Token]Listener),
		byToken: make(map[Token]string),
		global:  make(map[Token]Listener),
	}
}

func (r *registry) add(key string, l Listener) Token {
	tok := Token(uuid.New().String())

	set, ok := r.byKey[key]
	if !ok {
		set = make(map[Token]Listener)
		r.byKey[key] = set
	}
	set[tok] = l
	r.byToken[tok] = key
	return tok
}

// addGlobal registers a listener for every key's resolution.
func (r *registry) addGlobal(l Listener) Token {
	tok := Token(uuid.New().String())
	r.global[tok] = l
	return tok
}

func (r *registry) remove(tok Token) {
	if _, ok := r.global[tok]; ok {
		delete(r.global, tok)
		return
	}

	key, ok := r.byToken[tok]
	if !ok {
		return
	}
	delete(r.byToken, tok)

	set := r.byKey[key]
	delete(set, tok)
	if len(set) == 0 {
		delete(r.byKey, key)
	}
}

// listeners returns the listeners currently registered for key, so delivery
// can happen outside the prefetcher lock. Listeners stay registered after
// delivery; removal is explicit via Unsubscribe.
func (r *registry) listeners(key string) []Listener {
	set := r.byKey[key]
	if len(set) == 0 && len(r.global) == 0 {
		return nil
	}
	out := make([]Listener, 0, len(set)+len(r.global))
	for _, l := range set {
		out = append(out, l)
	}
	for _, l := range r.global {
		out = append(out, l)
	}
	return out
}

func (r *registry) clear() {
	r.byKey = make(map[string]map[Token]Listener)
	r.byToken = make(map[Token]string)
	r.global = make(map[Token]Listener)
}
