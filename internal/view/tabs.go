package view

import (
	"context"
	"fmt"
	"sync"
)

// Tab identifies one of the two screens.
type Tab string

const (
	TabAnalyze   Tab = "analyze"
	TabPositions Tab = "positions"
)

// ParseTab validates a tab identifier.
func ParseTab(id string) (Tab, error) {
	switch Tab(id) {
	case TabAnalyze, TabPositions:
		return Tab(id), nil
	}
	return "", fmt.Errorf("unknown view %q", id)
}

// Tabs switches between the screens. Switching never cancels or resets the
// other screen; its state simply persists until shown again.
type Tabs struct {
	positions *PositionsView

	mu     sync.Mutex
	active Tab
}

func NewTabs(positions *PositionsView) *Tabs {
	return &Tabs{positions: positions, active: TabAnalyze}
}

// Select makes tab active. Showing the positions screen for the first time
// triggers its initial request.
func (t *Tabs) Select(ctx context.Context, tab Tab) error {
	if _, err := ParseTab(string(tab)); err != nil {
		return err
	}

	t.mu.Lock()
	t.active = tab
	t.mu.Unlock()

	if tab == TabPositions {
		t.positions.Activate(ctx)
	}
	return nil
}

// Active returns the selected tab.
func (t *Tabs) Active() Tab {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.active
}
