package question

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
)

// Export writes the user subset as indented JSON.
func (s *Store) Export(w io.Writer) error {
	data, err := json.MarshalIndent(s.UserQuestions(), "", "  ")
	if err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	n, err := io.Copy(w, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	s.logger.Debug().Str("size", humanize.Bytes(uint64(n))).Msg("questions exported")
	return nil
}
