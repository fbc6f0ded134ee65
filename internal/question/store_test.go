package question

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gokatarajesh/quiz-bank/internal/metrics"
	"github.com/gokatarajesh/quiz-bank/internal/storage"
)

// recordingKV wraps a memory store, counting writes and optionally failing.
type recordingKV struct {
	*storage.MemoryStore

	mu     sync.Mutex
	writes int
	getErr error
	setErr error
}

func newRecordingKV() *recordingKV {
	return &recordingKV{MemoryStore: storage.NewMemoryStore()}
}

func (k *recordingKV) Get(ctx context.Context, key string) ([]byte, error) {
	if k.getErr != nil {
		return nil, k.getErr
	}
	return k.MemoryStore.Get(ctx, key)
}

func (k *recordingKV) Set(ctx context.Context, key string, value []byte) error {
	k.mu.Lock()
	k.writes++
	k.mu.Unlock()
	if k.setErr != nil {
		return k.setErr
	}
	return k.MemoryStore.Set(ctx, key, value)
}

func (k *recordingKV) writeCount() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.writes
}

func (k *recordingKV) persisted(t *testing.T) []Question {
	t.Helper()
	data, err := k.MemoryStore.Get(context.Background(), DefaultStorageKey)
	require.NoError(t, err)
	var out []Question
	require.NoError(t, json.Unmarshal(data, &out))
	return out
}

func newTestStore(t *testing.T, kv storage.KV) *Store {
	t.Helper()
	return NewStore(context.Background(), kv, StoreOptions{
		Rand: rand.New(rand.NewPCG(1, 2)),
	}, zerolog.Nop())
}

func sampleInput() Input {
	return Input{
		Question: "Berapa hasil 2 + 2?",
		Options:  []string{"3", "4", "5"},
		Answer:   "4",
	}
}

func TestNewStoreSeedOnly(t *testing.T) {
	kv := newRecordingKV()
	s := newTestStore(t, kv)

	qs := s.Questions()
	require.Len(t, qs, 5)
	for i, q := range qs {
		assert.Equal(t, "q"+string(rune('1'+i)), q.ID)
		assert.True(t, q.HasOption(q.Answer))
	}
	assert.Empty(t, s.UserQuestions())
	assert.Zero(t, kv.writeCount(), "loading must not write")
}

func TestNewStoreMergesPersisted(t *testing.T) {
	kv := newRecordingKV()
	stored := `[
		{"id":"q1","question":"shadow","options":["a"],"answer":"a"},
		{"id":"user-1","question":"Ibu kota Jepang?","options":["Tokyo","Osaka"],"answer":"Tokyo"},
		{"id":"user-1","question":"again","options":["x"],"answer":"x"}
	]`
	require.NoError(t, kv.MemoryStore.Set(context.Background(), DefaultStorageKey, []byte(stored)))

	s := newTestStore(t, kv)

	require.Equal(t, 6, s.Len())
	q1, ok := s.Get("q1")
	require.True(t, ok)
	assert.NotEqual(t, "shadow", q1.Question, "seed entries win over persisted ones")

	user := s.UserQuestions()
	require.Len(t, user, 1)
	assert.Equal(t, "Ibu kota Jepang?", user[0].Question)
}

func TestNewStoreReadFailureFallsBackToSeed(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	t.Run("backend error", func(t *testing.T) {
		kv := newRecordingKV()
		kv.getErr = errors.New("disk on fire")
		s := NewStore(context.Background(), kv, StoreOptions{Metrics: m}, zerolog.Nop())
		assert.Equal(t, 5, s.Len())
	})

	t.Run("corrupt value", func(t *testing.T) {
		kv := newRecordingKV()
		require.NoError(t, kv.MemoryStore.Set(context.Background(), DefaultStorageKey, []byte("{not json")))
		s := NewStore(context.Background(), kv, StoreOptions{Metrics: m}, zerolog.Nop())
		assert.Equal(t, 5, s.Len())
	})

	expected := `
# HELP quiz_bank_persistence_errors_total Absorbed persistence failures by operation.
# TYPE quiz_bank_persistence_errors_total counter
quiz_bank_persistence_errors_total{op="read"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "quiz_bank_persistence_errors_total"))
}

func TestAddThenLookup(t *testing.T) {
	kv := newRecordingKV()
	s := newTestStore(t, kv)

	in := sampleInput()
	q := s.Add(context.Background(), in)

	assert.True(t, strings.HasPrefix(q.ID, UserIDPrefix))
	got, ok := s.Get(q.ID)
	require.True(t, ok)
	assert.Equal(t, in, got.Input())
	assert.True(t, got.HasOption(got.Answer))

	assert.Equal(t, 6, s.Len())
	assert.Equal(t, []Question{q}, kv.persisted(t))
	assert.Equal(t, 1, kv.writeCount())
}

func TestAddGeneratesUniqueIDs(t *testing.T) {
	s := newTestStore(t, newRecordingKV())
	seen := map[string]bool{}
	for range 20 {
		q := s.Add(context.Background(), sampleInput())
		assert.False(t, seen[q.ID])
		seen[q.ID] = true
	}
}

func TestAddDoesNotAliasInput(t *testing.T) {
	s := newTestStore(t, newRecordingKV())
	in := sampleInput()
	q := s.Add(context.Background(), in)
	in.Options[0] = "mutated"

	got, _ := s.Get(q.ID)
	assert.Equal(t, "3", got.Options[0])
}

func TestUpdate(t *testing.T) {
	kv := newRecordingKV()
	s := newTestStore(t, kv)
	q := s.Add(context.Background(), sampleInput())

	q.Question = "Berapa hasil 2 x 2?"
	assert.True(t, s.Update(context.Background(), q))

	got, _ := s.Get(q.ID)
	assert.Equal(t, "Berapa hasil 2 x 2?", got.Question)
	assert.Equal(t, "Berapa hasil 2 x 2?", kv.persisted(t)[0].Question)

	writes := kv.writeCount()
	assert.False(t, s.Update(context.Background(), Question{ID: "missing", Question: "x"}))
	assert.Equal(t, writes, kv.writeCount())
	assert.Equal(t, 6, s.Len())
}

func TestUpdateSeedStaysOutOfPersistence(t *testing.T) {
	kv := newRecordingKV()
	s := newTestStore(t, kv)
	q1, _ := s.Get("q1")
	q1.Question = "edited"
	require.True(t, s.Update(context.Background(), q1))

	got, _ := s.Get("q1")
	assert.Equal(t, "edited", got.Question)
	assert.Empty(t, kv.persisted(t))
}

func TestDelete(t *testing.T) {
	kv := newRecordingKV()
	s := newTestStore(t, kv)
	q := s.Add(context.Background(), sampleInput())

	assert.True(t, s.Delete(context.Background(), q.ID))
	_, ok := s.Get(q.ID)
	assert.False(t, ok)
	assert.Empty(t, kv.persisted(t))

	before := s.Questions()
	writes := kv.writeCount()
	assert.False(t, s.Delete(context.Background(), "never-there"))
	assert.Equal(t, before, s.Questions())
	assert.Equal(t, writes, kv.writeCount())
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	kv := newRecordingKV()
	kv.setErr = errors.New("quota exceeded")
	s := NewStore(context.Background(), kv, StoreOptions{Metrics: m}, zerolog.Nop())

	q := s.Add(context.Background(), sampleInput())

	_, ok := s.Get(q.ID)
	assert.True(t, ok)
	expected := `
# HELP quiz_bank_persistence_errors_total Absorbed persistence failures by operation.
# TYPE quiz_bank_persistence_errors_total counter
quiz_bank_persistence_errors_total{op="write"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "quiz_bank_persistence_errors_total"))
}

func TestPersistSurvivesCancelledContext(t *testing.T) {
	kv := newRecordingKV()
	s := newTestStore(t, kv)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s.Add(ctx, sampleInput())
	assert.Len(t, kv.persisted(t), 1)
}

func TestShuffle(t *testing.T) {
	s := newTestStore(t, newRecordingKV())
	bank := map[string]Question{}
	for _, q := range s.Questions() {
		bank[q.ID] = q
	}

	for _, n := range []int{1, 3, 5} {
		got := s.Shuffle(n)
		require.Len(t, got, n)
		ids := map[string]bool{}
		for _, q := range got {
			assert.False(t, ids[q.ID], "duplicate %s", q.ID)
			ids[q.ID] = true
			assert.Equal(t, bank[q.ID], q)
		}
	}

	for _, n := range []int{0, -1, 6, 50} {
		got := s.Shuffle(n)
		require.Len(t, got, 5)
		assert.ElementsMatch(t, s.Questions(), got)
	}
}

func TestShuffleLeavesBankOrder(t *testing.T) {
	s := newTestStore(t, newRecordingKV())
	before := s.Questions()
	for range 10 {
		got := s.Shuffle(0)
		got[0].Question = "mutated"
	}
	assert.Equal(t, before, s.Questions())
}

func TestShuffleCoversEveryPosition(t *testing.T) {
	s := newTestStore(t, newRecordingKV())
	firsts := map[string]int{}
	for range 500 {
		firsts[s.Shuffle(1)[0].ID]++
	}
	assert.Len(t, firsts, 5)
	for id, n := range firsts {
		assert.Greater(t, n, 50, "question %s drawn first too rarely", id)
	}
}

func TestSubscribeNotifiesOnChange(t *testing.T) {
	s := newTestStore(t, newRecordingKV())
	var totals []int
	unsubscribe := s.Subscribe(func(total int) { totals = append(totals, total) })

	q := s.Add(context.Background(), sampleInput())
	s.Delete(context.Background(), "missing")
	s.Delete(context.Background(), q.ID)
	unsubscribe()
	s.Add(context.Background(), sampleInput())

	assert.Equal(t, []int{6, 5}, totals)
}

func TestBankSizeMetric(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := NewStore(context.Background(), newRecordingKV(), StoreOptions{Metrics: m}, zerolog.Nop())
	s.Add(context.Background(), sampleInput())

	expected := `
# HELP quiz_bank_questions Questions currently in the bank by subset.
# TYPE quiz_bank_questions gauge
quiz_bank_questions{subset="seed"} 5
quiz_bank_questions{subset="user"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "quiz_bank_questions"))
}
