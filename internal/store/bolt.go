package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"docrag/internal/domain"
)

var bucketRecords = []byte("records")

// BoltVectorStore persists vector records in BoltDB while serving every
// read from an in-memory store loaded at open time. Writes go to disk
// first; the memory store is only updated after the transaction commits.
type BoltVectorStore struct {
	db  *bbolt.DB
	mem *MemoryVectorStore
}

type storedRecord struct {
	Chunk     domain.Chunk `json:"chunk"`
	Embedding []float32    `json:"embedding"`
}

// OpenBolt opens (or creates) a Bolt-backed store at path.
func OpenBolt(path string, dimension, cacheSize int, cacheTTL time.Duration) (*BoltVectorStore, error) {
	db, err := bbolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketRecords)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create records bucket: %w", err)
	}

	s := &BoltVectorStore{
		db:  db,
		mem: NewMemoryVectorStore(dimension, cacheSize, cacheTTL),
	}
	if err := s.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("load records: %w", err)
	}
	return s, nil
}

func (s *BoltVectorStore) load() error {
	var records []domain.VectorRecord
	err := s.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketRecords).ForEach(func(k, v []byte) error {
			var stored storedRecord
			if err := json.Unmarshal(v, &stored); err != nil {
				return nil // skip corrupted entries
			}
			records = append(records, domain.VectorRecord{
				Chunk:     stored.Chunk,
				Embedding: stored.Embedding,
			})
			return nil
		})
	})
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}
	return s.mem.StoreBatch(records)
}

func (s *BoltVectorStore) Store(record domain.VectorRecord) error {
	return s.StoreBatch([]domain.VectorRecord{record})
}

func (s *BoltVectorStore) StoreBatch(records []domain.VectorRecord) error {
	for _, r := range records {
		if len(r.Embedding) != s.mem.Dimension() {
			return &domain.DimensionMismatchError{Want: s.mem.Dimension(), Got: len(r.Embedding)}
		}
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		for _, r := range records {
			data, err := json.Marshal(storedRecord{Chunk: r.Chunk, Embedding: r.Embedding})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(r.Chunk.ID), data); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("persist records: %w", err)
	}

	return s.mem.StoreBatch(records)
}

func (s *BoltVectorStore) Search(query []float32, topK int, filter *domain.SearchFilter) (domain.SearchResult, error) {
	return s.mem.Search(query, topK, filter)
}

func (s *BoltVectorStore) DeleteDocument(documentID string) error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketRecords)
		c := b.Cursor()
		var doomed [][]byte
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var stored storedRecord
			if err := json.Unmarshal(v, &stored); err != nil {
				continue
			}
			if stored.Chunk.DocumentID == documentID {
				doomed = append(doomed, append([]byte(nil), k...))
			}
		}
		for _, k := range doomed {
			if err := b.Delete(k); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete document records: %w", err)
	}

	return s.mem.DeleteDocument(documentID)
}

func (s *BoltVectorStore) Clear() error {
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketRecords); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketRecords)
		return err
	})
	if err != nil {
		return fmt.Errorf("clear records: %w", err)
	}

	return s.mem.Clear()
}

func (s *BoltVectorStore) Count() int {
	return s.mem.Count()
}

func (s *BoltVectorStore) Dimension() int {
	return s.mem.Dimension()
}

// Embedding returns the stored embedding for a chunk id.
func (s *BoltVectorStore) Embedding(chunkID string) ([]float32, bool) {
	return s.mem.Embedding(chunkID)
}

func (s *BoltVectorStore) Close() error {
	return s.db.Close()
}
