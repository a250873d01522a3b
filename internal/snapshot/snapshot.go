// Package snapshot owns durable persistence of the in-memory registries.
// A single actor goroutine serializes all file access, so no other
// component ever touches the data directory.
package snapshot

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/peerpractice/server/internal/metrics"
	"github.com/peerpractice/server/internal/model"
)

// schemaVersion tags every snapshot written by this build. Files written
// before the envelope was introduced carry the bare collection and are
// still readable.
const schemaVersion = "v2025_10_14"

const mailboxSize = 128

type envelope struct {
	Version string          `json:"version"`
	Data    json.RawMessage `json:"data"`
}

type message interface{ isMessage() }

type savePosts struct{ posts map[model.PostID]model.Post }
type saveUsers struct{ users map[model.UserID]model.User }

type retrievePosts struct {
	reply chan<- map[model.PostID]model.Post
}
type retrieveUsers struct {
	reply chan<- map[model.UserID]model.User
}

func (savePosts) isMessage()     {}
func (saveUsers) isMessage()     {}
func (retrievePosts) isMessage() {}
func (retrieveUsers) isMessage() {}

// Store is the storage actor. All methods are safe for concurrent use;
// they only enqueue messages on the actor's mailbox.
type Store struct {
	in  chan message
	dir string
	log zerolog.Logger
}

// NewStore spawns the storage actor writing under dir.
func NewStore(dir string, log zerolog.Logger) *Store {
	s := &Store{
		in:  make(chan message, mailboxSize),
		dir: dir,
		log: log.With().Str("actor", "snapshot").Logger(),
	}
	go s.loop()
	return s
}

// SavePosts persists the full posts collection. Fire-and-forget: failures
// are logged inside the actor and never surfaced to the caller.
func (s *Store) SavePosts(ctx context.Context, posts map[model.PostID]model.Post) {
	select {
	case s.in <- savePosts{posts: posts}:
	case <-ctx.Done():
	}
}

// SaveUsers persists the full users collection, fire-and-forget.
func (s *Store) SaveUsers(ctx context.Context, users map[model.UserID]model.User) {
	select {
	case s.in <- saveUsers{users: users}:
	case <-ctx.Done():
	}
}

// RetrievePosts loads the posts snapshot. A missing or unreadable file is
// indistinguishable from an empty dataset.
func (s *Store) RetrievePosts(ctx context.Context) map[model.PostID]model.Post {
	reply := make(chan map[model.PostID]model.Post, 1)
	select {
	case s.in <- retrievePosts{reply: reply}:
	case <-ctx.Done():
		return map[model.PostID]model.Post{}
	}
	select {
	case posts := <-reply:
		return posts
	case <-ctx.Done():
		return map[model.PostID]model.Post{}
	}
}

// RetrieveUsers loads the users snapshot; cold start yields an empty map.
func (s *Store) RetrieveUsers(ctx context.Context) map[model.UserID]model.User {
	reply := make(chan map[model.UserID]model.User, 1)
	select {
	case s.in <- retrieveUsers{reply: reply}:
	case <-ctx.Done():
		return map[model.UserID]model.User{}
	}
	select {
	case users := <-reply:
		return users
	case <-ctx.Done():
		return map[model.UserID]model.User{}
	}
}

func (s *Store) loop() {
	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		s.log.Error().Err(err).Str("dir", s.dir).Msg("failed to create data directory")
	}

	for msg := range s.in {
		switch m := msg.(type) {
		case savePosts:
			s.save("posts", encodePairs(s.log, m.posts))
		case saveUsers:
			s.save("users", encodePairs(s.log, m.users))
		case retrievePosts:
			m.reply <- decodePairs[model.PostID, model.Post](s.log, s.load("posts"))
		case retrieveUsers:
			m.reply <- decodePairs[model.UserID, model.User](s.log, s.load("users"))
		}
	}
}

func (s *Store) save(namespace string, data json.RawMessage) {
	path := s.filePath(namespace)
	if err := writeAtomic(path, data); err != nil {
		metrics.SnapshotSavesTotal.WithLabelValues(namespace, "error").Inc()
		s.log.Error().Err(err).Str("namespace", namespace).Msg("snapshot save failed")
		return
	}
	metrics.SnapshotSavesTotal.WithLabelValues(namespace, "ok").Inc()
	s.log.Trace().Str("namespace", namespace).Msg("snapshot saved")
}

func (s *Store) load(namespace string) json.RawMessage {
	raw, err := os.ReadFile(s.filePath(namespace))
	if err != nil {
		s.log.Info().Err(err).Str("namespace", namespace).Msg("snapshot load defaulting to empty")
		return nil
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Version != "" {
		return env.Data
	}
	// Pre-envelope files hold the bare collection.
	return raw
}

// filePath maps a namespace to its snapshot file, restricting the name to
// a safe character set so no namespace can escape the data directory.
func (s *Store) filePath(namespace string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-', r == '_', r == '.':
			return r
		default:
			return '_'
		}
	}, namespace)
	return filepath.Join(s.dir, cleaned+".json")
}

// writeAtomic writes the enveloped payload to a temp file in the same
// directory, flushes it, and renames over the target. A crash mid-write
// leaves the previous snapshot intact.
func writeAtomic(path string, data json.RawMessage) error {
	payload, err := json.MarshalIndent(envelope{Version: schemaVersion, Data: data}, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := f.Write(payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

// encodePairs serializes a keyed collection as a [[key, value], ...] array.
// Entries that fail to marshal are dropped with a log line rather than
// aborting the whole save.
func encodePairs[K comparable, V any](log zerolog.Logger, m map[K]V) json.RawMessage {
	pairs := make([]json.RawMessage, 0, len(m))
	for k, v := range m {
		pair, err := json.Marshal([2]any{k, v})
		if err != nil {
			log.Error().Err(err).Msg("snapshot entry marshal failed, skipping")
			continue
		}
		pairs = append(pairs, pair)
	}
	out, err := json.Marshal(pairs)
	if err != nil {
		log.Error().Err(err).Msg("snapshot marshal failed")
		return json.RawMessage("[]")
	}
	return out
}

// decodePairs parses a [[key, value], ...] array, skipping entries that
// fail to decode so one malformed record cannot poison the whole load.
func decodePairs[K comparable, V any](log zerolog.Logger, raw json.RawMessage) map[K]V {
	out := make(map[K]V)
	if len(raw) == 0 {
		return out
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err != nil {
		log.Info().Err(err).Msg("snapshot parse defaulting to empty")
		return out
	}
	for _, entry := range entries {
		var pair [2]json.RawMessage
		if err := json.Unmarshal(entry, &pair); err != nil {
			log.Warn().Err(err).Msg("snapshot entry malformed, skipping")
			continue
		}
		var k K
		var v V
		if err := json.Unmarshal(pair[0], &k); err != nil {
			log.Warn().Err(err).Msg("snapshot key malformed, skipping")
			continue
		}
		if err := json.Unmarshal(pair[1], &v); err != nil {
			log.Warn().Err(err).Msg("snapshot value malformed, skipping")
			continue
		}
		out[k] = v
	}
	return out
}
