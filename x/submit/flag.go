package submit

import "sync"

var _ Form = (*Flag)(nil)

// Flag is an in-process submitting flag shared by the API and the CLI.
type Flag struct {
	mu         sync.Mutex
	submitting bool
}

// TryStart sets the flag unless a submission is already running.
func (f *Flag) TryStart() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.submitting {
		return false
	}
	f.submitting = true
	return true
}

func (f *Flag) SetSubmitting(submitting bool) {
	f.mu.Lock()
	f.submitting = submitting
	f.mu.Unlock()
}

func (f *Flag) Submitting() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.submitting
}
