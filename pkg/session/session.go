// Package session persists saved dialogues.
//
// A [Session] is one named dialogue as the editor saved it: the serialized
// graph together with its layout. Stores implement the [Store] interface on
// different backends:
//   - memory: in-process map, for tests and the HTTP API in development
//   - file: one JSON file per dialogue, for the CLI
//   - redis: shared storage for multi-instance API deployments
//   - mongo: document storage
//   - postgres: relational storage with the document as JSONB
//
// # Usage
//
// Open a store from configuration:
//
//	store, err := session.Open(ctx, session.Config{Backend: "file", Dir: dir})
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
// Save and load dialogues:
//
//	sess, err := session.New("intro", ctrl.Save())
//	err = store.Put(ctx, sess)
//
//	sess, err := store.Get(ctx, id)
//	if errors.Is(err, errors.ErrCodeSessionNotFound) {
//	    // no such dialogue
//	}
//	err = ctrl.Load(sess.Document)
package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/dialoguegraph/pkg/errors"
	"github.com/matzehuels/dialoguegraph/pkg/graph"
)

// Session is a saved dialogue.
type Session struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Document  graph.Document `json:"document"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// Summary is the listing form of a saved dialogue.
type Summary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Nodes     int       `json:"nodes"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Summary returns the listing form of s.
func (s *Session) Summary() Summary {
	return Summary{ID: s.ID, Name: s.Name, Nodes: len(s.Document.Nodes), UpdatedAt: s.UpdatedAt}
}

// Validate checks the identifier and name.
func (s *Session) Validate() error {
	if err := errors.ValidateStoreID(s.ID); err != nil {
		return err
	}
	return errors.ValidateDialogueName(s.Name)
}

// Store is the interface for saved-dialogue backends.
type Store interface {
	// Get retrieves a dialogue by ID.
	// Returns a SESSION_NOT_FOUND error if it does not exist.
	Get(ctx context.Context, id string) (*Session, error)

	// Put creates or replaces a dialogue. It sets UpdatedAt, and CreatedAt
	// when zero.
	Put(ctx context.Context, s *Session) error

	// List returns all dialogues, most recently updated first.
	List(ctx context.Context) ([]Summary, error)

	// Delete removes a dialogue.
	// Returns a SESSION_NOT_FOUND error if it does not exist.
	Delete(ctx context.Context, id string) error

	Close() error
}

// New creates a session with a fresh identifier.
func New(name string, doc graph.Document) (*Session, error) {
	if err := errors.ValidateDialogueName(name); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Document:  doc,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func notFound(id string) error {
	return errors.New(errors.ErrCodeSessionNotFound, "dialogue %s not found", id)
}

// touch validates s and stamps its timestamps before a write.
func touch(s *Session) error {
	if err := s.Validate(); err != nil {
		return err
	}
	s.UpdatedAt = time.Now().UTC()
	if s.CreatedAt.IsZero() {
		s.CreatedAt = s.UpdatedAt
	}
	return nil
}

func encode(s *Session) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "encode dialogue %s", s.ID)
	}
	return data, nil
}

func decode(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode stored dialogue")
	}
	return &s, nil
}
