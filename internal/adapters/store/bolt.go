package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/covault-org/covault-cli/internal/domain"
	"github.com/covault-org/covault-cli/internal/domain/models"
	"github.com/covault-org/covault-cli/internal/usecase"
)

var (
	bucketAccounts     = []byte("accounts")
	bucketTransactions = []byte("transactions")
	bucketDeployments  = []byte("deployments")
	bucketSettings     = []byte("settings")

	keySelectedChain = []byte("selectedChain")
)

// BoltStore persists the transaction and deployment lifecycle in a single
// bbolt file. Update methods run their mutate function inside the bolt write
// transaction, which serializes all writers: readers never observe a
// signature set mid-merge, and the revision counter advances exactly once
// per committed mutation.
type BoltStore struct {
	db *bolt.DB
}

// Open creates or opens the database file and ensures the buckets exist.
func Open(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketAccounts, bucketTransactions, bucketDeployments, bucketSettings} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("initialize store: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// Close releases the database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}

func (s *BoltStore) GetAccount(ctx context.Context, chainID uint64, address string) (*models.Account, error) {
	var account models.Account
	err := s.get(bucketAccounts, []byte(models.AccountID(chainID, address)), &account)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *BoltStore) SaveAccount(ctx context.Context, account *models.Account) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		account.Revision++
		return putJSON(tx.Bucket(bucketAccounts), []byte(account.ID()), account)
	})
}

func (s *BoltStore) ListAccounts(ctx context.Context) ([]*models.Account, error) {
	var out []*models.Account
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAccounts).ForEach(func(_, v []byte) error {
			var account models.Account
			if err := json.Unmarshal(v, &account); err != nil {
				return err
			}
			out = append(out, &account)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) GetTransaction(ctx context.Context, safeTxHash string) (*models.PendingTransaction, error) {
	var pending models.PendingTransaction
	if err := s.get(bucketTransactions, txKey(safeTxHash), &pending); err != nil {
		return nil, err
	}
	return &pending, nil
}

func (s *BoltStore) PutTransaction(ctx context.Context, pending *models.PendingTransaction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketTransactions)
		key := txKey(pending.SafeTxHash)
		if bucket.Get(key) != nil {
			return fmt.Errorf("%w: transaction %s", domain.ErrAlreadyExists, pending.SafeTxHash)
		}
		pending.Revision = 1
		return putJSON(bucket, key, pending)
	})
}

func (s *BoltStore) UpdateTransaction(ctx context.Context, safeTxHash string, mutate func(*models.PendingTransaction) error) (*models.PendingTransaction, error) {
	var updated *models.PendingTransaction
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketTransactions)
		key := txKey(safeTxHash)
		raw := bucket.Get(key)
		if raw == nil {
			return fmt.Errorf("%w: transaction %s", domain.ErrNotFound, safeTxHash)
		}
		var pending models.PendingTransaction
		if err := json.Unmarshal(raw, &pending); err != nil {
			return fmt.Errorf("decode transaction %s: %w", safeTxHash, err)
		}
		if err := mutate(&pending); err != nil {
			return err
		}
		pending.Revision++
		if err := putJSON(bucket, key, &pending); err != nil {
			return err
		}
		updated = &pending
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BoltStore) ListTransactions(ctx context.Context, chainID uint64, safeAddress string) ([]*models.PendingTransaction, error) {
	var out []*models.PendingTransaction
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketTransactions).ForEach(func(_, v []byte) error {
			var pending models.PendingTransaction
			if err := json.Unmarshal(v, &pending); err != nil {
				return err
			}
			if pending.ChainID != chainID || !strings.EqualFold(pending.SafeAddress, safeAddress) {
				return nil
			}
			out = append(out, &pending)
			return nil
		})
	})
	return out, err
}

func (s *BoltStore) GetDeployment(ctx context.Context, id string) (*models.DeploymentRecord, error) {
	var record models.DeploymentRecord
	if err := s.get(bucketDeployments, []byte(id), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (s *BoltStore) SaveDeployment(ctx context.Context, record *models.DeploymentRecord) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		record.Revision++
		return putJSON(tx.Bucket(bucketDeployments), []byte(record.ID), record)
	})
}

func (s *BoltStore) UpdateDeployment(ctx context.Context, id string, mutate func(*models.DeploymentRecord) error) (*models.DeploymentRecord, error) {
	var updated *models.DeploymentRecord
	err := s.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(bucketDeployments)
		raw := bucket.Get([]byte(id))
		if raw == nil {
			return fmt.Errorf("%w: deployment %s", domain.ErrNotFound, id)
		}
		var record models.DeploymentRecord
		if err := json.Unmarshal(raw, &record); err != nil {
			return fmt.Errorf("decode deployment %s: %w", id, err)
		}
		if err := mutate(&record); err != nil {
			return err
		}
		record.Revision++
		if err := putJSON(bucket, []byte(id), &record); err != nil {
			return err
		}
		updated = &record
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *BoltStore) DeleteDeployment(ctx context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketDeployments).Delete([]byte(id))
	})
}

func (s *BoltStore) SelectedChain(ctx context.Context) (uint64, error) {
	var chainID uint64
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucketSettings).Get(keySelectedChain)
		if raw == nil {
			return fmt.Errorf("%w: no chain selected", domain.ErrNotFound)
		}
		if len(raw) != 8 {
			return fmt.Errorf("corrupt selected chain entry")
		}
		chainID = binary.BigEndian.Uint64(raw)
		return nil
	})
	return chainID, err
}

func (s *BoltStore) SetSelectedChain(ctx context.Context, chainID uint64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		raw := make([]byte, 8)
		binary.BigEndian.PutUint64(raw, chainID)
		return tx.Bucket(bucketSettings).Put(keySelectedChain, raw)
	})
}

func (s *BoltStore) get(bucket, key []byte, out any) error {
	return s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(bucket).Get(key)
		if raw == nil {
			return fmt.Errorf("%w: %s/%s", domain.ErrNotFound, bucket, key)
		}
		return json.Unmarshal(raw, out)
	})
}

func putJSON(bucket *bolt.Bucket, key []byte, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return bucket.Put(key, raw)
}

func txKey(safeTxHash string) []byte {
	return []byte(strings.ToLower(safeTxHash))
}

var _ usecase.LifecycleStore = (*BoltStore)(nil)
