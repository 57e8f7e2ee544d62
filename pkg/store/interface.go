package store

import "errors"

var ErrKeyNotFound = errors.New("key not found")

// Store 代表底层 KV 存储接口 (例如 BadgerDB)。
// 副本层用它为本地状态做检查点与恢复。
type Store interface {
	// Close 关闭存储。
	Close() error

	// View 执行只读事务。
	View(fn func(Tx) error) error

	// Update 执行读写事务。
	Update(fn func(Tx) error) error
}

// Tx 代表一次事务内可用的操作。
type Tx interface {
	// Set 设置键的值。
	Set(key, value []byte) error

	// Get 获取键的值。键不存在时返回 ErrKeyNotFound。
	Get(key []byte) ([]byte, error)

	// Delete 删除键。
	Delete(key []byte) error

	// Keys 返回带有给定前缀的全部键。
	Keys(prefix []byte) ([][]byte, error)
}
