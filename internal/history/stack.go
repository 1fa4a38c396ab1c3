package history

// Entry is one restorable repository state: the roster and which of its
// characters was active
type Entry struct {
	Roster Roster
	Active string
}

// Stack is an unbounded undo/redo history of repository snapshots.
// It is not safe for concurrent use; the orchestrator serializes access.
type Stack struct {
	past     []Entry
	future   []Entry
	tracking bool
}

// NewStack returns an empty stack with tracking enabled
func NewStack() *Stack {
	return &Stack{tracking: true}
}

// Record pushes current onto the undo stack and clears the redo stack.
// It does nothing while tracking is stopped.
func (s *Stack) Record(current Entry) {
	if !s.tracking {
		return
	}
	s.past = append(s.past, current)
	s.future = nil
}

// Undo returns the most recent snapshot and moves current onto the redo
// stack. ok is false, and current is returned, when there is nothing to undo.
func (s *Stack) Undo(current Entry) (Entry, bool) {
	if len(s.past) == 0 {
		return current, false
	}

	top := s.past[len(s.past)-1]
	s.past = s.past[:len(s.past)-1]
	s.future = append(s.future, current)
	return top, true
}

// Redo is the inverse of Undo
func (s *Stack) Redo(current Entry) (Entry, bool) {
	if len(s.future) == 0 {
		return current, false
	}

	top := s.future[len(s.future)-1]
	s.future = s.future[:len(s.future)-1]
	s.past = append(s.past, current)
	return top, true
}

// StartTracking enables recording
func (s *Stack) StartTracking() {
	s.tracking = true
}

// StopTracking disables recording so a batch of edits adds no entries
func (s *Stack) StopTracking() {
	s.tracking = false
}

// Tracking reports whether mutations are being recorded
func (s *Stack) Tracking() bool {
	return s.tracking
}

// CanUndo reports whether Undo would restore a snapshot
func (s *Stack) CanUndo() bool {
	return len(s.past) > 0
}

// CanRedo reports whether Redo would restore a snapshot
func (s *Stack) CanRedo() bool {
	return len(s.future) > 0
}

// Len returns the sizes of the undo and redo stacks
func (s *Stack) Len() (past, future int) {
	return len(s.past), len(s.future)
}

// Reset drops all snapshots. The tracking flag is kept.
func (s *Stack) Reset() {
	s.past = nil
	s.future = nil
}
