package question

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gokatarajesh/quiz-bank/internal/metrics"
	"github.com/gokatarajesh/quiz-bank/internal/storage"
)

const (
	DefaultStorageKey     = "user_quiz_questions"
	defaultPersistTimeout = 3 * time.Second
)

// StoreOptions tunes a Store. Zero values fall back to the shipped defaults.
type StoreOptions struct {
	Key            string
	Seed           []Question
	PersistTimeout time.Duration
	ExportFilename string
	Rand           *rand.Rand
	Metrics        *metrics.Metrics
}

// Store is the canonical question bank: the seed set plus questions authored
// or imported by users. Only the user subset is written to the KV surface.
type Store struct {
	kv             storage.KV
	key            string
	persistTimeout time.Duration
	exportFilename string
	metrics        *metrics.Metrics
	logger         zerolog.Logger

	mu        sync.RWMutex
	questions []Question
	seedIDs   map[string]struct{}

	rngMu sync.Mutex
	rng   *rand.Rand

	importing atomic.Bool

	listenersMu sync.Mutex
	listeners   map[int]func(total int)
	nextID      int
}

// NewStore builds the bank from the seed set and merges whatever the KV
// surface holds under the key. Read failures are logged and the bank falls
// back to the seed set.
func NewStore(ctx context.Context, kv storage.KV, opts StoreOptions, logger zerolog.Logger) *Store {
	if opts.Key == "" {
		opts.Key = DefaultStorageKey
	}
	if opts.Seed == nil {
		opts.Seed = DefaultSeed()
	}
	if opts.PersistTimeout <= 0 {
		opts.PersistTimeout = defaultPersistTimeout
	}
	if opts.ExportFilename == "" {
		opts.ExportFilename = DefaultExportFilename
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	s := &Store{
		kv:             kv,
		key:            opts.Key,
		persistTimeout: opts.PersistTimeout,
		exportFilename: opts.ExportFilename,
		metrics:        opts.Metrics,
		logger:         logger.With().Str("component", "question_store").Logger(),
		seedIDs:        make(map[string]struct{}, len(opts.Seed)),
		rng:            opts.Rand,
		listeners:      make(map[int]func(int)),
	}
	for _, q := range opts.Seed {
		s.seedIDs[q.ID] = struct{}{}
		s.questions = append(s.questions, q.clone())
	}
	s.load(ctx)
	s.observeSize()
	return s
}

func (s *Store) load(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, s.persistTimeout)
	defer cancel()

	data, err := s.kv.Get(ctx, s.key)
	if errors.Is(err, storage.ErrNotFound) {
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("read persisted questions")
		s.metrics.PersistenceError("read")
		return
	}
	var stored []Question
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("decode persisted questions")
		s.metrics.PersistenceError("read")
		return
	}
	known := make(map[string]struct{}, len(s.questions)+len(stored))
	for _, q := range s.questions {
		known[q.ID] = struct{}{}
	}
	merged := 0
	for _, q := range stored {
		if _, ok := known[q.ID]; ok {
			continue
		}
		known[q.ID] = struct{}{}
		s.questions = append(s.questions, q.clone())
		merged++
	}
	s.logger.Info().Int("merged", merged).Int("total", len(s.questions)).Msg("question bank loaded")
}

// Questions returns a copy of the whole bank in order.
func (s *Store) Questions() []Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.questions)
}

// UserQuestions returns the persisted subset: everything not in the seed set.
func (s *Store) UserQuestions() []Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userSubsetLocked()
}

// Get looks a question up by id.
func (s *Store) Get(id string) (Question, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexLocked(id); i >= 0 {
		return s.questions[i].clone(), true
	}
	return Question{}, false
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.questions)
}

// IsImporting reports whether an import is running.
func (s *Store) IsImporting() bool {
	return s.importing.Load()
}

// ExportFilename is the download name used for exports.
func (s *Store) ExportFilename() string {
	return s.exportFilename
}

// Add appends a new question with a fresh user id. Input is not validated
// here; callers apply ValidateInput first.
func (s *Store) Add(ctx context.Context, in Input) Question {
	q := Question{
		ID:       UserIDPrefix + uuid.NewString(),
		Question: in.Question,
		Options:  slices.Clone(in.Options),
		Answer:   in.Answer,
	}
	s.mu.Lock()
	s.questions = append(s.questions, q)
	s.persistLocked(ctx)
	total := len(s.questions)
	s.mu.Unlock()

	s.changed(total)
	return q.clone()
}

// Update replaces the question with the same id. It reports false and changes
// nothing when no such question exists.
func (s *Store) Update(ctx context.Context, q Question) bool {
	s.mu.Lock()
	i := s.indexLocked(q.ID)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.questions[i] = q.clone()
	s.persistLocked(ctx)
	total := len(s.questions)
	s.mu.Unlock()

	s.changed(total)
	return true
}

// Delete removes the question with the given id, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return false
	}
	s.questions = slices.Delete(s.questions, i, i+1)
	s.persistLocked(ctx)
	total := len(s.questions)
	s.mu.Unlock()

	s.changed(total)
	return true
}

// Shuffle returns a uniformly random permutation of the bank. When 0 < n <
// len(bank) only the first n entries are returned; n <= 0 returns them all.
func (s *Store) Shuffle(n int) []Question {
	out := s.Questions()

	s.rngMu.Lock()
	for i := len(out) - 1; i > 0; i-- {
		j := s.rng.IntN(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	s.rngMu.Unlock()

	if n > 0 && n < len(out) {
		out = out[:n]
	}
	return out
}

// Subscribe registers fn to be called with the new bank size after every
// mutation. The returned func removes it.
func (s *Store) Subscribe(fn func(total int)) func() {
	s.listenersMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenersMu.Unlock()

	return func() {
		s.listenersMu.Lock()
		delete(s.listeners, id)
		s.listenersMu.Unlock()
	}
}

func (s *Store) changed(total int) {
	s.observeSize()

	s.listenersMu.Lock()
	fns := make([]func(int), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.listenersMu.Unlock()

	for _, fn := range fns {
		fn(total)
	}
}

func (s *Store) observeSize() {
	if s.metrics == nil {
		return
	}
	s.mu.RLock()
	total := len(s.questions)
	user := len(s.userSubsetLocked())
	s.mu.RUnlock()
	s.metrics.SetBankSize(total-user, user)
}

// persistLocked writes the user subset under the store key. The caller holds
// s.mu so writes land in mutation order. Failures are absorbed.
func (s *Store) persistLocked(ctx context.Context) {
	data, err := json.Marshal(s.userSubsetLocked())
	if err != nil {
		s.logger.Error().Err(err).Msg("encode user questions")
		s.metrics.PersistenceError("write")
		return
	}
	// A cancelled request must not lose the write.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.persistTimeout)
	defer cancel()
	if err := s.kv.Set(ctx, s.key, data); err != nil {
		s.logger.Error().Err(err).Str("key", s.key).Msg("persist user questions")
		s.metrics.PersistenceError("write")
	}
}

func (s *Store) userSubsetLocked() []Question {
	out := make([]Question, 0, len(s.questions))
	for _, q := range s.questions {
		if _, seed := s.seedIDs[q.ID]; seed {
			continue
		}
		out = append(out, q.clone())
	}
	return out
}

func (s *Store) indexLocked(id string) int {
	return slices.IndexFunc(s.questions, func(q Question) bool { return q.ID == id })
}

func cloneAll(qs []Question) []Question {
	out := make([]Question, len(qs))
	for i, q := range qs {
		out[i] = q.clone()
	}
	return out
}
