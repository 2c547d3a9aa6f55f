package runner

import (
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
)

// Call is one recorded invocation.
type Call struct {
	Name string
	Args []string
}

func (c Call) String() string {
	return strings.TrimSpace(c.Name + " " + strings.Join(c.Args, " "))
}

type response struct {
	out string
	err error
}

// Fake is a scripted Runner for tests. Responses are keyed by a command-line
// prefix; the longest matching prefix wins. When several responses are queued
// for one prefix they are consumed in order and the last one sticks.
// Unscripted commands succeed with empty output.
type Fake struct {
	mu        sync.Mutex
	calls     []Call
	responses map[string][]response
	missing   map[string]bool
}

func NewFake() *Fake {
	return &Fake{
		responses: make(map[string][]response),
		missing:   make(map[string]bool),
	}
}

// On scripts the output and error returned for commands starting with prefix.
func (f *Fake) On(prefix, out string, err error) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[prefix] = append(f.responses[prefix], response{out: out, err: err})
	return f
}

// Fail scripts a non-zero exit for commands starting with prefix.
func (f *Fake) Fail(prefix, out string) *Fake {
	return f.On(prefix, out, errors.New("exit status 1"))
}

// Missing makes LookPath report the given binaries as not installed.
func (f *Fake) Missing(names ...string) *Fake {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range names {
		f.missing[n] = true
	}
	return f
}

func (f *Fake) Run(_ context.Context, name string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := Call{Name: name, Args: append([]string(nil), args...)}
	f.calls = append(f.calls, call)

	line := call.String()
	best := ""
	found := false
	for prefix := range f.responses {
		if matchPrefix(line, prefix) && (!found || len(prefix) > len(best)) {
			best, found = prefix, true
		}
	}
	if !found {
		return "", nil
	}
	queue := f.responses[best]
	r := queue[0]
	if len(queue) > 1 {
		f.responses[best] = queue[1:]
	}
	return r.out, r.err
}

func (f *Fake) LookPath(name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missing[name] {
		return "", &exec.Error{Name: name, Err: exec.ErrNotFound}
	}
	return "/usr/bin/" + name, nil
}

// Calls returns every recorded invocation in order.
func (f *Fake) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the invocations whose command line starts with prefix.
func (f *Fake) CallsTo(prefix string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if matchPrefix(c.String(), prefix) {
			out = append(out, c)
		}
	}
	return out
}

// Called reports whether any invocation starts with prefix.
func (f *Fake) Called(prefix string) bool {
	return len(f.CallsTo(prefix)) > 0
}

func matchPrefix(line, prefix string) bool {
	if !strings.HasPrefix(line, prefix) {
		return false
	}
	return len(line) == len(prefix) || line[len(prefix)] == ' '
}
