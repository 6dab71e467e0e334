package mocks

import (
	"fmt"
	"strings"
	"sync"

	"github.com/mcoot/tictactoe3d/internal/dependencies/random"
)

// MockRandom is a mock implementation of Random for testing. Queued values
// are returned in order; when a queue runs dry a deterministic fallback is used.
type MockRandom struct {
	mu sync.Mutex

	strings []string
	tokens  []string
	counter int
}

// Ensure MockRandom implements Random
var _ random.Random = (*MockRandom)(nil)

// NewMockRandom creates a new MockRandom
func NewMockRandom() *MockRandom {
	return &MockRandom{}
}

// Intn always returns 0
func (r *MockRandom) Intn(n int) int {
	return 0
}

// String returns the next queued string, or a counter padded to length
func (r *MockRandom) String(length int, alphabet string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.strings) > 0 {
		next := r.strings[0]
		r.strings = r.strings[1:]
		return next
	}
	r.counter++
	s := fmt.Sprintf("%d", r.counter)
	if len(s) < length {
		s = strings.Repeat(string(alphabet[0]), length-len(s)) + s
	}
	return s
}

// Token returns the next queued token, or a unique numbered token
func (r *MockRandom) Token(n int) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.tokens) > 0 {
		next := r.tokens[0]
		r.tokens = r.tokens[1:]
		return next
	}
	r.counter++
	return fmt.Sprintf("token-%d", r.counter)
}

// QueueString adds values to the String result queue
func (r *MockRandom) QueueString(values ...string) {
	r.mu.Lock()
	r.strings = append(r.strings, values...)
	r.mu.Unlock()
}

// QueueToken adds values to the Token result queue
func (r *MockRandom) QueueToken(values ...string) {
	r.mu.Lock()
	r.tokens = append(r.tokens, values...)
	r.mu.Unlock()
}
