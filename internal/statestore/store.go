package statestore

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/contract"
	"github.com/BananaOnTheTree/blockchain-charity-platform/internal/logger"
	bolt "go.etcd.io/bbolt"
)

const (
	// DefaultDBPath 默认数据库路径
	DefaultDBPath = "./data/state.db"

	// 存储桶名称
	stateBucket = "state"
	metaBucket  = "meta"

	// 存储键
	snapshotKey    = "factory_snapshot"
	bankKey        = "bank_snapshot"
	savedAtKey     = "saved_at"
	snapshotSeqKey = "snapshot_seq"
)

// Store 状态机快照存储。用 BoltDB 把状态机全量快照落盘，
// 重启时恢复，保证活动、捐款账本和排行榜不因进程重启丢失。
type Store struct {
	db     *bolt.DB
	dbPath string
}

// NewStore 打开快照存储
func NewStore(dbPath string) (*Store, error) {
	if dbPath == "" {
		dbPath = DefaultDBPath
	}

	// 确保目录存在
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("创建数据目录失败: %w", err)
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("打开状态数据库失败: %w", err)
	}

	store := &Store{db: db, dbPath: dbPath}
	if err := store.initBuckets(); err != nil {
		db.Close()
		return nil, fmt.Errorf("初始化存储桶失败: %w", err)
	}

	logger.Info("State store opened at %s", dbPath)
	return store, nil
}

// initBuckets 初始化存储桶
func (s *Store) initBuckets() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, name := range []string{stateBucket, metaBucket} {
			if _, err := tx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
}

// Save 写入一份全量快照
func (s *Store) Save(snap *contract.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("序列化快照失败: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket([]byte(stateBucket)).Put([]byte(snapshotKey), data); err != nil {
			return err
		}
		meta := tx.Bucket([]byte(metaBucket))
		if err := meta.Put([]byte(savedAtKey), []byte(time.Now().Format(time.RFC3339))); err != nil {
			return err
		}
		return meta.Put([]byte(snapshotSeqKey), []byte(fmt.Sprintf("%d", snap.Seq)))
	})
}

// Load 读取最近一份快照，没有历史快照时返回 (nil, nil)
func (s *Store) Load() (*contract.Snapshot, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(stateBucket)).Get([]byte(snapshotKey))
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var snap contract.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("反序列化快照失败: %w", err)
	}
	return &snap, nil
}

// SaveBank 写入账本余额快照，与状态机快照配套落盘
func (s *Store) SaveBank(balances map[string]string) error {
	data, err := json.Marshal(balances)
	if err != nil {
		return fmt.Errorf("序列化账本快照失败: %w", err)
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(stateBucket)).Put([]byte(bankKey), data)
	})
}

// LoadBank 读取账本余额快照，没有历史快照时返回 (nil, nil)
func (s *Store) LoadBank() (map[string]string, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket([]byte(stateBucket)).Get([]byte(bankKey))
		if v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, nil
	}

	var balances map[string]string
	if err := json.Unmarshal(data, &balances); err != nil {
		return nil, fmt.Errorf("反序列化账本快照失败: %w", err)
	}
	return balances, nil
}

// Close 关闭数据库
func (s *Store) Close() error {
	return s.db.Close()
}
