package validation

import (
	"sync"

	"github.com/google/uuid"
)

const previewScheme = "preview://"

// Preview is a revocable display handle for an accepted file. The caller
// that requested validation owns it and must call Release exactly once,
// before or at the point the file leaves its working set. Handles are
// self-contained; no shared registry outlives them.
type Preview struct {
	URI string

	mu       sync.Mutex
	data     []byte
	released bool
}

func newPreview(f File) *Preview {
	return &Preview{
		URI:  previewScheme + uuid.New().String(),
		data: f.Data,
	}
}

// Open returns the previewed bytes while the handle is live.
func (p *Preview) Open() ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.released {
		return nil, false
	}
	return p.data, true
}

// Release revokes the handle. Subsequent Open calls fail; repeated Release
// calls are no-ops.
func (p *Preview) Release() {
	p.mu.Lock()
	p.released = true
	p.data = nil
	p.mu.Unlock()
}
