// Package storage persists the conversation history as a single encoded
// record and recovers from capacity failures by trimming old entries.
package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"github.com/iammorganparry/feel/internal/apperr"
	"github.com/iammorganparry/feel/internal/metrics"
	"github.com/iammorganparry/feel/internal/models"
)

const (
	// HistoryKey is the record the history lives under.
	HistoryKey = "feel_conversations"
	// DefaultKeepCount bounds the history after a cleanup.
	DefaultKeepCount = 50
)

// Stats summarizes the persisted history.
type Stats struct {
	Count         int        `json:"count"`
	Size          int        `json:"size"`
	SizeFormatted string     `json:"sizeFormatted"`
	OldestEntry   *time.Time `json:"oldestEntry"`
	NewestEntry   *time.Time `json:"newestEntry"`
}

// Store reads and writes the history record. Its methods report failure
// through return values and logs; they never panic on bad data.
type Store struct {
	mu      sync.Mutex
	backend Backend
	codec   Codec
	key     string
	log     zerolog.Logger
}

func NewStore(backend Backend, codec Codec, log zerolog.Logger) *Store {
	return &Store{
		backend: backend,
		codec:   codec,
		key:     HistoryKey,
		log:     log.With().Str("component", "storage").Logger(),
	}
}

// SetCodec switches the encoding used by subsequent writes.
func (s *Store) SetCodec(c Codec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codec = c
	s.log.Info().Str("codec", c.Name).Msg("codec changed")
}

// Codec returns the encoding used for writes.
func (s *Store) Codec() Codec {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.codec
}

// Save writes entries. On a quota failure it trims the stored history to
// DefaultKeepCount and retries the write once with plain JSON.
func (s *Store) Save(entries []models.ConversationEntry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(entries)
}

func (s *Store) saveLocked(entries []models.ConversationEntry) bool {
	data, err := marshalEntries(entries)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal history")
		metrics.StorageSavesTotal.WithLabelValues("failed").Inc()
		return false
	}

	err = s.backend.Set(s.key, s.codec.Encode(data))
	if err == nil {
		s.log.Debug().Int("count", len(entries)).Msg("saved history")
		metrics.StorageSavesTotal.WithLabelValues("ok").Inc()
		return true
	}

	s.log.Error().Stack().Err(err).Msg("save history")
	if !IsQuotaExceeded(err) {
		metrics.StorageSavesTotal.WithLabelValues("failed").Inc()
		return false
	}

	s.log.Warn().Msg("storage quota exceeded, attempting cleanup")
	s.cleanupLocked(DefaultKeepCount)

	if err := s.backend.Set(s.key, PlainJSON.Encode(data)); err != nil {
		s.log.Error().Stack().Err(err).Msg("save failed even after cleanup")
		metrics.StorageSavesTotal.WithLabelValues("failed").Inc()
		return false
	}
	metrics.StorageSavesTotal.WithLabelValues("recovered").Inc()
	return true
}

func marshalEntries(entries []models.ConversationEntry) ([]byte, error) {
	if entries == nil {
		entries = []models.ConversationEntry{}
	}
	return json.Marshal(entries)
}

// Load returns the persisted history, newest first. Missing or
// undecodable data yields an empty slice.
func (s *Store) Load() []models.ConversationEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, _ := s.loadLocked()
	return entries
}

func (s *Store) loadLocked() ([]models.ConversationEntry, string) {
	raw, ok, err := s.backend.Get(s.key)
	if err != nil {
		s.log.Error().Err(err).Msg("load history")
		return []models.ConversationEntry{}, ""
	}
	if !ok || raw == "" {
		return []models.ConversationEntry{}, ""
	}

	data, err := detectCodec(raw).Decode(raw)
	if err != nil {
		s.log.Error().Err(err).Msg("decode history")
		return []models.ConversationEntry{}, raw
	}
	var entries []models.ConversationEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.log.Error().Err(err).Msg("unmarshal history")
		return []models.ConversationEntry{}, raw
	}
	if entries == nil {
		entries = []models.ConversationEntry{}
	}
	return entries, raw
}

// Clear removes the persisted history.
func (s *Store) Clear() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.backend.Delete(s.key); err != nil {
		s.log.Error().Err(err).Msg("clear history")
		return false
	}
	s.log.Info().Msg("history cleared")
	return true
}

// Export returns the persisted history as indented JSON.
func (s *Store) Export() (string, error) {
	entries := s.Load()
	out, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal export: %w", err)
	}
	return string(out), nil
}

// Import validates data and, if every entry is well formed, replaces the
// persisted history with it. Invalid input or a failed write leaves the
// stored record as it was; imports skip the quota cleanup Save performs.
func (s *Store) Import(data string) bool {
	entries, err := ParseImport(data)
	if err != nil {
		s.log.Error().Err(err).Msg("import history")
		return false
	}
	encoded, err := marshalEntries(entries)
	if err != nil {
		s.log.Error().Err(err).Msg("marshal import")
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev, hadPrev, err := s.backend.Get(s.key)
	if err != nil {
		s.log.Error().Stack().Err(err).Msg("snapshot history before import")
		return false
	}
	if err := s.backend.Set(s.key, s.codec.Encode(encoded)); err != nil {
		s.log.Error().Stack().Err(err).Int("count", len(entries)).Msg("import history write")
		metrics.StorageSavesTotal.WithLabelValues("failed").Inc()
		s.restoreLocked(prev, hadPrev)
		return false
	}
	s.log.Info().Int("count", len(entries)).Msg("history imported")
	metrics.StorageSavesTotal.WithLabelValues("ok").Inc()
	return true
}

// restoreLocked puts back a record captured before a failed write.
func (s *Store) restoreLocked(prev string, hadPrev bool) {
	var err error
	if hadPrev {
		err = s.backend.Set(s.key, prev)
	} else {
		err = s.backend.Delete(s.key)
	}
	if err != nil {
		s.log.Error().Stack().Err(err).Msg("restore history after failed import")
	}
}

// ParseImport decodes an exported history. The payload must be a JSON
// array whose entries all carry id, timestamp, userMessage and
// geminiResponse.
func ParseImport(data string) ([]models.ConversationEntry, error) {
	var raw []map[string]json.RawMessage
	if err := json.Unmarshal([]byte(data), &raw); err != nil {
		return nil, apperr.Wrap(apperr.ImportValidation, err, "invalid format: expected an array", "")
	}
	for i, entry := range raw {
		if missing := missingImportFields(entry); len(missing) > 0 {
			e := apperr.New(apperr.ImportValidation, fmt.Sprintf("invalid entry at index %d", i), "")
			e.Fields = missing
			return nil, e
		}
	}

	var entries []models.ConversationEntry
	if err := json.Unmarshal([]byte(data), &entries); err != nil {
		return nil, apperr.Wrap(apperr.ImportValidation, err, "invalid entry shape", "")
	}
	if entries == nil {
		entries = []models.ConversationEntry{}
	}
	return entries, nil
}

var requiredImportFields = []string{"id", "timestamp", "userMessage", "geminiResponse"}

func missingImportFields(entry map[string]json.RawMessage) []string {
	var missing []string
	for _, f := range requiredImportFields {
		v, ok := entry[f]
		if !ok || isEmptyJSON(v) {
			missing = append(missing, f)
		}
	}
	return missing
}

func isEmptyJSON(v json.RawMessage) bool {
	switch string(v) {
	case "", "null", `""`, "false", "0":
		return true
	}
	return false
}

// Cleanup keeps the keepCount newest entries and returns how many were
// dropped.
func (s *Store) Cleanup(keepCount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cleanupLocked(keepCount)
}

func (s *Store) cleanupLocked(keepCount int) int {
	if keepCount < 0 {
		keepCount = 0
	}
	entries, _ := s.loadLocked()
	if len(entries) <= keepCount {
		s.log.Debug().Int("count", len(entries)).Msg("no cleanup needed")
		return 0
	}

	kept := entries[:keepCount]
	removed := len(entries) - len(kept)
	// A plain write, not saveLocked: cleanup runs inside quota recovery
	// and must not recurse into it.
	data, err := marshalEntries(kept)
	if err == nil {
		err = s.backend.Set(s.key, s.codec.Encode(data))
	}
	if err != nil {
		s.log.Error().Err(err).Msg("persist cleaned history")
	}
	s.log.Info().Int("removed", removed).Msg("cleaned up old conversations")
	return removed
}

// Stats reports count, approximate size and the time span of the history.
// Size counts two bytes per stored character.
func (s *Store) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, raw := s.loadLocked()
	size := len([]rune(raw)) * 2
	st := Stats{
		Count:         len(entries),
		Size:          size,
		SizeFormatted: humanize.IBytes(uint64(size)),
	}
	if len(entries) > 0 {
		newest := entries[0].Timestamp
		oldest := entries[len(entries)-1].Timestamp
		st.NewestEntry = &newest
		st.OldestEntry = &oldest
	}
	return st
}
