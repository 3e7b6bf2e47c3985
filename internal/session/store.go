// Package session holds the process-lifetime planning state: the most
// recently detected tech stack and a bounded history of task requests.
//
// A Store is constructed once by the composition root and shared by
// reference with the detector, the planner and the MCP handlers.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/praveenpatidar171/Task-Planner-extension/internal/stack"
)

// DefaultCapacity is the number of task records kept in history.
const DefaultCapacity = 10

// TaskRecord is one task request and, once generated, its response.
type TaskRecord struct {
	ID        string    `json:"id"`
	Input     string    `json:"input"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}

// Snapshot is a point-in-time copy of the store.
type Snapshot struct {
	TechStack *stack.TechStack `json:"tech_stack"`
	Tasks     []TaskRecord     `json:"tasks"`
	Capacity  int              `json:"capacity"`
}

// Store is safe for concurrent use. Every accessor returns copies; the
// internal stack and history are never handed out.
type Store struct {
	mu       sync.Mutex
	stack    *stack.TechStack
	tasks    []TaskRecord
	capacity int

	onStackChange func(stack.TechStack)
	now           func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithCapacity lowers the task history bound. Values below 1 keep the
// default; values above DefaultCapacity are clamped to it.
func WithCapacity(n int) Option {
	return func(s *Store) {
		if n >= 1 {
			s.capacity = min(n, DefaultCapacity)
		}
	}
}

// OnStackChange registers a callback invoked after SetTechStack actually
// replaces the stored stack. It runs outside the store lock.
func OnStackChange(fn func(stack.TechStack)) Option {
	return func(s *Store) {
		s.onStackChange = fn
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		capacity: DefaultCapacity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the history bound.
func (s *Store) Capacity() int {
	return s.capacity
}

// TechStack returns the cached stack, if any.
func (s *Store) TechStack() (stack.TechStack, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stack == nil {
		return stack.TechStack{}, false
	}
	return s.stack.Clone(), true
}

// SetTechStack normalizes ts and stores it unless it equals the current
// value. It reports whether the stored stack changed.
func (s *Store) SetTechStack(ts stack.TechStack) bool {
	next := ts.Normalize()

	s.mu.Lock()
	if s.stack != nil && s.stack.Equal(next) {
		s.mu.Unlock()
		return false
	}
	s.stack = &next
	cb := s.onStackChange
	s.mu.Unlock()

	if cb != nil {
		cb(next.Clone())
	}
	return true
}

// AddTask appends a record and evicts the oldest records past capacity.
// Repeated inputs are not deduplicated.
func (s *Store) AddTask(input, response string) TaskRecord {
	rec := TaskRecord{
		ID:        uuid.Must(uuid.NewV7()).String(),
		Input:     input,
		Response:  response,
		CreatedAt: s.now().UTC(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = append(s.tasks, rec)
	s.evictOverLimitLocked()
	return rec
}

// UpdateResponse fills in the response of the record with the given ID.
// It reports false when the record has been evicted or cleared.
func (s *Store) UpdateResponse(id, response string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			s.tasks[i].Response = response
			return true
		}
	}
	return false
}

// LastTask returns the most recently added record.
func (s *Store) LastTask() (TaskRecord, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.tasks) == 0 {
		return TaskRecord{}, false
	}
	return s.tasks[len(s.tasks)-1], true
}

// Tasks returns a copy of the history, oldest first.
func (s *Store) Tasks() []TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tasksLocked()
}

// Reset clears both the stack and the history.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stack = nil
	s.tasks = nil
}

// ClearTasks clears the history and keeps the stack.
func (s *Store) ClearTasks() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks = nil
}

// Snapshot returns a copy of the whole store.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := Snapshot{
		Tasks:    s.tasksLocked(),
		Capacity: s.capacity,
	}
	if s.stack != nil {
		cp := s.stack.Clone()
		snap.TechStack = &cp
	}
	return snap
}

func (s *Store) tasksLocked() []TaskRecord {
	out := make([]TaskRecord, len(s.tasks))
	copy(out, s.tasks)
	return out
}

func (s *Store) evictOverLimitLocked() {
	if over := len(s.tasks) - s.capacity; over > 0 {
		// Copy down so the evicted records are not kept alive by the
		// backing array.
		s.tasks = append(s.tasks[:0:0], s.tasks[over:]...)
	}
}
