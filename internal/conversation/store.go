// Package conversation persists conversation state on the local device.
// There is no server replication and no expiry: entries accumulate until
// explicitly cleared, and concurrent writers race with last-writer-wins
// semantics.
package conversation

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"fsearch/internal/search"
)

var (
	conversationsBucket = []byte("conversations")
	sessionsBucket      = []byte("sessions")
)

// Store keeps per-query conversation state and the session list in a single
// local BoltDB file, one bucket per dataset, JSON values.
type Store struct {
	db          *bolt.DB
	maxSessions int
}

// Open opens (or creates) the store at path.
func Open(path string, maxSessions int) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(conversationsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(sessionsBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create buckets: %w", err)
	}

	return &Store{db: db, maxSessions: maxSessions}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveConversationState upserts the state for a query. The key is the
// exact, unencoded query string; an empty key is a no-op.
func (s *Store) SaveConversationState(query string, state State) error {
	if query == "" {
		return nil
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal conversation state: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).Put([]byte(query), data)
	})
}

// LoadConversationState returns the state saved for a query, or nil when
// none exists. Corrupt entries are treated as absent, never as an error.
func (s *Store) LoadConversationState(query string) *State {
	if query == "" {
		return nil
	}

	var state *State
	_ = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(conversationsBucket).Get([]byte(query))
		if len(data) == 0 {
			return nil
		}
		var st State
		if err := json.Unmarshal(data, &st); err != nil {
			// Malformed entry - treat as absent
			return nil
		}
		state = &st
		return nil
	})
	return state
}

// ClearConversationState removes the state saved for a query.
func (s *Store) ClearConversationState(query string) error {
	if query == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).Delete([]byte(query))
	})
}

// ListAll returns every saved conversation state keyed by query string,
// skipping malformed entries.
func (s *Store) ListAll() map[string]State {
	out := map[string]State{}
	_ = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(conversationsBucket).ForEach(func(k, v []byte) error {
			var st State
			if err := json.Unmarshal(v, &st); err != nil {
				return nil
			}
			out[string(k)] = st
			return nil
		})
	})
	return out
}

// CreateSession adds a new record to the session list, seeding its history
// with the initial user/assistant exchange. Old sessions are pruned beyond
// the configured maximum.
func (s *Store) CreateSession(sessionID, query, summary string, sources []search.Source) (*ChatSession, error) {
	session := &ChatSession{
		SessionID: sessionID,
		Query:     query,
		Summary:   summary,
		Sources:   sources,
		History: []search.ChatHistoryEntry{
			{Role: search.RoleUser, Content: query},
			{Role: search.RoleAssistant, Content: summary},
		},
		CreatedAt: time.Now(),
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		data, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		if err := b.Put([]byte(sessionID), data); err != nil {
			return err
		}
		return pruneSessions(b, s.maxSessions)
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AppendToSession appends a follow-up exchange to an existing session and
// refreshes its summary and sources.
func (s *Store) AppendToSession(sessionID, query, summary string, sources []search.Source) (*ChatSession, error) {
	var session *ChatSession
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(sessionsBucket)
		data := b.Get([]byte(sessionID))
		if len(data) == 0 {
			return fmt.Errorf("session %s not found", sessionID)
		}

		var st ChatSession
		if err := json.Unmarshal(data, &st); err != nil {
			return fmt.Errorf("failed to parse session: %w", err)
		}

		st.Summary = summary
		st.Sources = sources
		st.History = append(st.History,
			search.ChatHistoryEntry{Role: search.RoleUser, Content: query},
			search.ChatHistoryEntry{Role: search.RoleAssistant, Content: summary},
		)

		updated, err := json.Marshal(&st)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		if err := b.Put([]byte(sessionID), updated); err != nil {
			return err
		}
		session = &st
		return nil
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession returns a session by id, or nil when absent or malformed.
func (s *Store) GetSession(sessionID string) *ChatSession {
	var session *ChatSession
	_ = s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(sessionsBucket).Get([]byte(sessionID))
		if len(data) == 0 {
			return nil
		}
		var st ChatSession
		if err := json.Unmarshal(data, &st); err != nil {
			return nil
		}
		session = &st
		return nil
	})
	return session
}

// ListSessions returns all sessions, newest first.
func (s *Store) ListSessions() []ChatSession {
	sessions := []ChatSession{}
	_ = s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).ForEach(func(k, v []byte) error {
			var st ChatSession
			if err := json.Unmarshal(v, &st); err != nil {
				return nil
			}
			sessions = append(sessions, st)
			return nil
		})
	})

	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.After(sessions[j].CreatedAt)
	})
	return sessions
}

// DeleteSession removes a session from the list.
func (s *Store) DeleteSession(sessionID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(sessionsBucket).Delete([]byte(sessionID))
	})
}

// ClearSessions removes every session.
func (s *Store) ClearSessions() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(sessionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(sessionsBucket)
		return err
	})
}

// pruneSessions deletes the oldest sessions until at most max remain.
// Must be called inside an update transaction.
func pruneSessions(b *bolt.Bucket, max int) error {
	type aged struct {
		key       []byte
		createdAt time.Time
	}

	var all []aged
	err := b.ForEach(func(k, v []byte) error {
		var st ChatSession
		if err := json.Unmarshal(v, &st); err != nil {
			// Malformed entries are first in line for pruning
			all = append(all, aged{key: append([]byte(nil), k...)})
			return nil
		}
		all = append(all, aged{key: append([]byte(nil), k...), createdAt: st.CreatedAt})
		return nil
	})
	if err != nil {
		return err
	}
	if len(all) <= max {
		return nil
	}

	sort.Slice(all, func(i, j int) bool {
		return all[i].createdAt.Before(all[j].createdAt)
	})
	for _, entry := range all[:len(all)-max] {
		if err := b.Delete(entry.key); err != nil {
			return err
		}
	}
	return nil
}
