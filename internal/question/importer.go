package question

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
)

// Files saved by some editors start with a byte order mark.
var utf8BOM = []byte("\xef\xbb\xbf")

type importEntry struct {
	Question *string   `json:"question"`
	Options  *[]string `json:"options"`
	Answer   *string   `json:"answer"`
}

// ParseImport decodes an import file: a JSON array whose elements each carry a
// non-empty question, an options array and a non-empty answer. Any id in the
// file is ignored. Errors wrap ErrInvalidFormat.
func ParseImport(data []byte) ([]Input, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFormat, err)
	}
	if raw == nil {
		return nil, fmt.Errorf("%w: expected a JSON array", ErrInvalidFormat)
	}
	out := make([]Input, 0, len(raw))
	for i, elem := range raw {
		var e importEntry
		if err := json.Unmarshal(elem, &e); err != nil {
			return nil, fmt.Errorf("%w: entry %d: %v", ErrInvalidFormat, i, err)
		}
		switch {
		case e.Question == nil || *e.Question == "":
			return nil, fmt.Errorf("%w: entry %d has no question", ErrInvalidFormat, i)
		case e.Options == nil:
			return nil, fmt.Errorf("%w: entry %d has no options", ErrInvalidFormat, i)
		case e.Answer == nil || *e.Answer == "":
			return nil, fmt.Errorf("%w: entry %d has no answer", ErrInvalidFormat, i)
		}
		out = append(out, Input{Question: *e.Question, Options: *e.Options, Answer: *e.Answer})
	}
	return out, nil
}

// Import reads a question file from r and appends every entry that is not
// already in the bank. On any error the bank is left unchanged. Only one
// import may run at a time.
func (s *Store) Import(ctx context.Context, r io.Reader) (ImportResult, error) {
	return s.exclusive(func() (ImportResult, error) {
		data, err := io.ReadAll(contextReader{ctx: ctx, r: r})
		if err != nil {
			return ImportResult{}, fmt.Errorf("%w: %w", ErrImportRead, err)
		}
		inputs, err := ParseImport(data)
		if err != nil {
			return ImportResult{}, err
		}
		res := s.merge(ctx, inputs)
		s.logger.Info().
			Str("size", humanize.Bytes(uint64(len(data)))).
			Int("read", res.Read).
			Int("added", res.Added).
			Int("duplicates", res.Duplicates).
			Msg("questions imported")
		return res, nil
	})
}

// ImportInputs merges already decoded questions, such as a batch fetched from
// a trivia provider, under the same rules as Import.
func (s *Store) ImportInputs(ctx context.Context, source string, inputs []Input) (ImportResult, error) {
	return s.exclusive(func() (ImportResult, error) {
		if err := ctx.Err(); err != nil {
			return ImportResult{}, fmt.Errorf("%w: %w", ErrImportRead, err)
		}
		res := s.merge(ctx, inputs)
		s.logger.Info().
			Str("source", source).
			Int("read", res.Read).
			Int("added", res.Added).
			Int("duplicates", res.Duplicates).
			Msg("questions imported")
		return res, nil
	})
}

func (s *Store) exclusive(run func() (ImportResult, error)) (ImportResult, error) {
	if !s.importing.CompareAndSwap(false, true) {
		return ImportResult{}, ErrImportInProgress
	}
	defer s.importing.Store(false)

	res, err := run()
	s.metrics.ObserveImport(err, res.Added)
	if err != nil {
		s.logger.Warn().Err(err).Msg("import rejected")
		return ImportResult{}, err
	}
	return res, nil
}

// merge appends the inputs that are not yet in the bank and persists once.
func (s *Store) merge(ctx context.Context, inputs []Input) ImportResult {
	res := ImportResult{Read: len(inputs)}
	s.mu.Lock()
	existing := s.questions[:len(s.questions):len(s.questions)]
	for _, in := range inputs {
		if containsContent(existing, in) {
			res.Duplicates++
			continue
		}
		q := Question{
			ID:       ImportedIDPrefix + uuid.NewString(),
			Question: in.Question,
			Options:  slices.Clone(in.Options),
			Answer:   in.Answer,
		}
		res.Questions = append(res.Questions, q.clone())
		s.questions = append(s.questions, q)
	}
	res.Added = len(res.Questions)
	if res.Added > 0 {
		s.persistLocked(ctx)
	}
	total := len(s.questions)
	s.mu.Unlock()

	if res.Added > 0 {
		s.changed(total)
	}
	return res
}

// containsContent checks the bank as it stood before the import; entries
// within one file are not compared with each other.
func containsContent(bank []Question, in Input) bool {
	for _, q := range bank {
		if q.sameContent(in) {
			return true
		}
	}
	return false
}

// contextReader stops reading once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
