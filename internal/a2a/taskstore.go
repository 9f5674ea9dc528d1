package a2a

import (
	"bytes"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// NewTaskID generates a random UUID v4 string.
func NewTaskID() string {
	return uuid.NewString()
}

// TaskStore keeps chat turns in memory, grouped by conversation.
type TaskStore struct {
	mu        sync.RWMutex
	tasks     map[string]*Task
	order     []string            // every task id, oldest first
	byContext map[string][]string // task ids per conversation, oldest first
}

// NewTaskStore returns an empty TaskStore.
func NewTaskStore() *TaskStore {
	return &TaskStore{
		tasks:     make(map[string]*Task),
		byContext: make(map[string][]string),
	}
}

// Create records a new turn. Task ids are unique across conversations.
func (s *TaskStore) Create(task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tasks[task.ID]; exists {
		return fmt.Errorf("task %q already exists", task.ID)
	}
	s.tasks[task.ID] = cloneTask(&task)
	s.order = append(s.order, task.ID)
	s.byContext[task.ContextID] = append(s.byContext[task.ContextID], task.ID)
	return nil
}

// Get returns a copy of the task with the given id.
func (s *TaskStore) Get(id string) (*Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	return cloneTask(t), nil
}

// Update applies fn to the stored task under the write lock.
func (s *TaskStore) Update(id string, fn func(*Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: %q", ErrTaskNotFound, id)
	}
	fn(t)
	return nil
}

// List returns the turns matching filter, oldest first. A ContextID
// restricts the listing to one conversation and Status to one state.
// PageToken is the id of the last task of the previous page; PageSize <= 0
// returns every match.
func (s *TaskStore) List(filter ListTasksRequest) (*ListTasksResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.order
	if filter.ContextID != "" {
		ids = s.byContext[filter.ContextID]
	}

	var matched []*Task
	start := -1
	for _, id := range ids {
		t := s.tasks[id]
		if filter.Status != "" && string(t.Status.State) != filter.Status {
			if id == filter.PageToken {
				start = len(matched)
			}
			continue
		}
		matched = append(matched, t)
		if id == filter.PageToken {
			start = len(matched)
		}
	}

	resp := &ListTasksResponse{Tasks: []Task{}, TotalSize: len(matched)}
	page := matched
	if filter.PageToken != "" {
		if start < 0 {
			return nil, fmt.Errorf("invalid page token %q", filter.PageToken)
		}
		page = matched[start:]
	}
	if filter.PageSize > 0 && len(page) > filter.PageSize {
		page = page[:filter.PageSize]
		resp.NextPageToken = page[len(page)-1].ID
	}
	for _, t := range page {
		resp.Tasks = append(resp.Tasks, *cloneTask(t))
	}
	return resp, nil
}

// ClearConversation forgets the finished turns of a conversation and
// returns how many were removed. Turns still running are kept so their
// updates keep landing.
func (s *TaskStore) ClearConversation(contextID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []string
	removed := make(map[string]bool)
	for _, id := range s.byContext[contextID] {
		if s.tasks[id].Status.State.IsTerminal() {
			removed[id] = true
			delete(s.tasks, id)
			continue
		}
		kept = append(kept, id)
	}
	if len(removed) == 0 {
		return 0
	}

	if len(kept) == 0 {
		delete(s.byContext, contextID)
	} else {
		s.byContext[contextID] = kept
	}
	order := s.order[:0]
	for _, id := range s.order {
		if !removed[id] {
			order = append(order, id)
		}
	}
	s.order = order
	return len(removed)
}

// cloneTask returns a copy of src that shares no memory with it.
func cloneTask(src *Task) *Task {
	dst := *src
	dst.Artifacts = cloneEach(src.Artifacts, cloneArtifact)
	dst.History = cloneEach(src.History, cloneMessage)
	dst.Metadata = bytes.Clone(src.Metadata)
	if src.Status.Message != nil {
		msg := cloneMessage(*src.Status.Message)
		dst.Status.Message = &msg
	}
	return &dst
}

func cloneEach[T any](src []T, clone func(T) T) []T {
	if src == nil {
		return nil
	}
	dst := make([]T, len(src))
	for i, v := range src {
		dst[i] = clone(v)
	}
	return dst
}

func cloneMessage(m Message) Message {
	m.Parts = cloneEach(m.Parts, clonePart)
	m.Metadata = bytes.Clone(m.Metadata)
	return m
}

func cloneArtifact(a Artifact) Artifact {
	a.Parts = cloneEach(a.Parts, clonePart)
	a.Metadata = bytes.Clone(a.Metadata)
	return a
}

func clonePart(p Part) Part {
	p.Data = bytes.Clone(p.Data)
	p.Metadata = bytes.Clone(p.Metadata)
	return p
}
