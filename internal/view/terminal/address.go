package terminal

import "sync"

// Address is an in-memory address bar with a back stack.
type Address struct {
	mu    sync.Mutex
	url   string
	stack []string
}

// NewAddress starts at url.
func NewAddress(url string) *Address {
	return &Address{url: url}
}

// URL returns the current address.
func (a *Address) URL() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.url
}

// PushState records a new address.
func (a *Address) PushState(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.stack = append(a.stack, a.url)
	a.url = url
}

// Back pops the previous address. It reports false at the start of history.
func (a *Address) Back() (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.stack) == 0 {
		return a.url, false
	}
	a.url = a.stack[len(a.stack)-1]
	a.stack = a.stack[:len(a.stack)-1]
	return a.url, true
}

// Replace moves to url without recording the current address, as a
// history traversal does.
func (a *Address) Replace(url string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.url = url
}

// Len is the depth of the back stack.
func (a *Address) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.stack)
}
