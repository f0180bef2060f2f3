// Package corpus persists every synthesis attempt to SQLite and supports
// similarity retrieval over past entries. The corpus is advisory: reads are
// snapshot-consistent and a lost update never breaks the pipeline.
package corpus

import (
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"specforge/internal/intent"
	"specforge/internal/logging"
)

// ErrWrite wraps storage failures so the orchestrator can recognize them,
// retry once, and keep the watch loop alive.
var ErrWrite = errors.New("corpus write failed")

// Store is the SQLite-backed corpus. A single Store owns the database file;
// the orchestrator serializes writes per spec path, the internal mutex guards
// against concurrent specs sharing the store.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// Entry is one persisted synthesis attempt, keyed by IR signature.
type Entry struct {
	ID           string
	Signature    string
	Code         string
	Tests        string
	Tokens       []string
	SuccessCount int
	FailureCount int
	QualityScore float64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Similarity is populated by QuerySimilar.
	Similarity float64
}

// Stats summarizes the corpus for the CLI and the reporting API.
type Stats struct {
	TotalEntries  int     `json:"total_entries"`
	TotalAttempts int     `json:"total_attempts"`
	PassRate      float64 `json:"pass_rate"`
	AvgQuality    float64 `json:"avg_quality"`
}

// Open creates (or opens) the corpus database at dbPath.
func Open(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create corpus directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open corpus database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Corpus("corpus store opened at %s", dbPath)
	return s, nil
}

// initialize creates the schema.
func (s *Store) initialize() error {
	schema := `
	PRAGMA journal_mode=WAL;
	CREATE TABLE IF NOT EXISTS corpus_entries (
		id TEXT PRIMARY KEY,
		signature TEXT UNIQUE NOT NULL,
		code TEXT NOT NULL,
		tests TEXT NOT NULL,
		tokens TEXT NOT NULL,
		success_count INTEGER NOT NULL DEFAULT 0,
		failure_count INTEGER NOT NULL DEFAULT 0,
		quality_score REAL NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_corpus_signature ON corpus_entries(signature);
	CREATE INDEX IF NOT EXISTS idx_corpus_updated ON corpus_entries(updated_at);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to initialize corpus schema: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SignatureFor derives the 12-hex-char corpus key for an IR.
func SignatureFor(ir intent.IR) string {
	sum := sha256.Sum256([]byte(ir.Signature()))
	return hex.EncodeToString(sum[:])[:12]
}

// Upsert records a synthesis attempt. First sight of a signature inserts a
// fresh entry; repeats bump the outcome counters, refresh code/tests, and
// fold the quality score in. Failures are wrapped in ErrWrite.
func (s *Store) Upsert(ir intent.IR, code, tests string, ok bool, quality float64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sig := SignatureFor(ir)
	tokens := Tokenize(ir)
	now := time.Now().UTC()

	succ, fail := 0, 0
	if ok {
		succ = 1
	} else {
		fail = 1
	}

	_, err := s.db.Exec(`
		INSERT INTO corpus_entries
			(id, signature, code, tests, tokens, success_count, failure_count, quality_score, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(signature) DO UPDATE SET
			code = excluded.code,
			tests = excluded.tests,
			tokens = excluded.tokens,
			success_count = success_count + excluded.success_count,
			failure_count = failure_count + excluded.failure_count,
			quality_score = (quality_score + excluded.quality_score) / 2.0,
			updated_at = excluded.updated_at`,
		uuid.NewString(), sig, code, tests, strings.Join(tokens, " "),
		succ, fail, quality, now, now)
	if err != nil {
		logging.Get(logging.CategoryCorpus).Errorf("upsert failed for %s: %v", sig, err)
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	}

	logging.CorpusDebug("upserted %s (ok=%v, quality=%.2f)", sig, ok, quality)
	return sig, nil
}

// Get returns the entry for a signature, or nil if absent.
func (s *Store) Get(signature string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(`
		SELECT id, signature, code, tests, tokens, success_count, failure_count,
		       quality_score, created_at, updated_at
		FROM corpus_entries WHERE signature = ?`, signature)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus entry: %w", err)
	}
	return e, nil
}

// QuerySimilar ranks corpus entries by Jaccard similarity between the IR's
// token set and each stored entry's, descending; ties break toward the most
// recently updated entry. Entries with zero overlap are dropped.
func (s *Store) QuerySimilar(ir intent.IR, topK int) ([]*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if topK <= 0 {
		topK = 10
	}

	rows, err := s.db.Query(`
		SELECT id, signature, code, tests, tokens, success_count, failure_count,
		       quality_score, created_at, updated_at
		FROM corpus_entries
		ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corpus: %w", err)
	}
	defer rows.Close()

	query := Tokenize(ir)
	var out []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan corpus entry: %w", err)
		}
		e.Similarity = Jaccard(query, e.Tokens)
		if e.Similarity > 0 {
			out = append(out, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate corpus: %w", err)
	}

	// Rows arrive most-recent-first, and the sort below is stable, so equal
	// similarities keep the recency order.
	stableSortBySimilarity(out)
	if len(out) > topK {
		out = out[:topK]
	}
	return out, nil
}

// GetStats aggregates corpus counters.
func (s *Store) GetStats() (Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st Stats
	var succ, fail sql.NullInt64
	var avgQ sql.NullFloat64
	err := s.db.QueryRow(`
		SELECT COUNT(*), SUM(success_count), SUM(failure_count), AVG(quality_score)
		FROM corpus_entries`).Scan(&st.TotalEntries, &succ, &fail, &avgQ)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to read corpus stats: %w", err)
	}

	st.TotalAttempts = int(succ.Int64 + fail.Int64)
	if st.TotalAttempts > 0 {
		st.PassRate = float64(succ.Int64) / float64(st.TotalAttempts)
	}
	st.AvgQuality = avgQ.Float64
	return st, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(r rowScanner) (*Entry, error) {
	var e Entry
	var tokens string
	err := r.Scan(&e.ID, &e.Signature, &e.Code, &e.Tests, &tokens,
		&e.SuccessCount, &e.FailureCount, &e.QualityScore, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if tokens != "" {
		e.Tokens = strings.Fields(tokens)
	}
	return &e, nil
}

// stableSortBySimilarity sorts descending by similarity, preserving input
// order for ties.
func stableSortBySimilarity(entries []*Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Similarity > entries[j].Similarity
	})
}
