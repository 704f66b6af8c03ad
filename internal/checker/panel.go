package checker

import "sync"

// Panels tracks the expanded state of the why panels currently on the page.
// Panels start collapsed.
type Panels struct {
	mu       sync.Mutex
	expanded map[string]bool
}

// NewPanels creates an empty panel set.
func NewPanels() *Panels {
	return &Panels{expanded: make(map[string]bool)}
}

// Reset forgets every panel and, if id is not empty, registers id collapsed.
// The output container only ever holds one verdict.
func (p *Panels) Reset(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	clear(p.expanded)
	if id != "" {
		p.expanded[id] = false
	}
}

// Toggle flips panel id and returns its new state. Unknown ids are left
// alone and reported with ok == false.
func (p *Panels) Toggle(id string) (expanded, ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	cur, ok := p.expanded[id]
	if !ok {
		return false, false
	}
	p.expanded[id] = !cur
	return !cur, true
}

// Expanded reports whether panel id is expanded.
func (p *Panels) Expanded(id string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.expanded[id]
}
