package replica

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/shinyes/yep_lww/pkg/codec"
	"github.com/shinyes/yep_lww/pkg/crdt"
	"github.com/shinyes/yep_lww/pkg/hlc"
	"github.com/shinyes/yep_lww/pkg/store"
)

// 检查点在 KV 存储中的键。身份与状态分开存，
// 重启后即使状态为空也能保住节点 ID。
var (
	keyIdentity = []byte("replica/id")
	keyState    = []byte("replica/state")
)

var ErrNilSnapshot = errors.New("远端快照不能为空")

// Replica 是一个 LWW 集合副本的独占持有者。
// 核心数据结构本身不加锁也不产生时间戳；Replica 补上这两件事：
// 用互斥锁串行化本地操作，用 HLC 时钟为每次写入盖章。
// 配置了 Store 时还负责检查点与恢复。
type Replica struct {
	id    uuid.UUID
	clock *hlc.Clock
	kv    store.Store

	mu  sync.Mutex
	set *crdt.LWWSet[string]
}

// Option 配置 Replica 的构造。
type Option func(*Replica)

// WithStore 让副本通过 kv 做检查点持久化与启动恢复。
func WithStore(kv store.Store) Option {
	return func(r *Replica) {
		r.kv = kv
	}
}

// WithID 指定节点 ID，不指定则生成 UUIDv7。
func WithID(id uuid.UUID) Option {
	return func(r *Replica) {
		r.id = id
	}
}

// New 创建一个副本。配置了存储时会先尝试从检查点恢复。
func New(options ...Option) (*Replica, error) {
	r := &Replica{
		clock: hlc.New(),
		set:   crdt.NewLWWSet[string](),
	}
	for _, option := range options {
		if option != nil {
			option(r)
		}
	}

	if r.kv != nil {
		if err := r.restore(); err != nil {
			return nil, fmt.Errorf("恢复检查点失败: %w", err)
		}
	}

	if r.id == (uuid.UUID{}) {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, err
		}
		r.id = id
		if r.kv != nil {
			if err := r.persistIdentity(); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// ID 返回节点 ID。
func (r *Replica) ID() string {
	return r.id.String()
}

// Add 将元素加入集合，时间戳由本地 HLC 时钟产出。
// 返回盖在这次写入上的时间戳。
func (r *Replica) Add(elem string) int64 {
	ts := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Add(elem, ts)
	return ts
}

// Remove 将元素从集合移除（元素当前不可见时为空操作）。
// 返回盖在这次写入上的时间戳。
func (r *Replica) Remove(elem string) int64 {
	ts := r.clock.Now()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Remove(elem, ts)
	return ts
}

// Lookup 返回元素的可见时间戳。
func (r *Replica) Lookup(elem string) (int64, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.Lookup(elem)
}

// Contains 判断元素当前是否可见。
func (r *Replica) Contains(elem string) bool {
	_, ok := r.Lookup(elem)
	return ok
}

// Elements 返回当前所有可见元素。顺序不保证。
func (r *Replica) Elements() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.set.Elements()
}

// Snapshot 导出本副本完整状态的序列化快照，供传输层发给其他副本。
func (r *Replica) Snapshot() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return codec.EncodeSnapshot(r.ID(), r.set)
}

// ApplyRemote 合并一份远端副本的快照。
// 先让本地时钟吸收远端的最大时间戳，保证合并之后
// 本地的新写入仍然能压过远端已有的写入。
func (r *Replica) ApplyRemote(data []byte) error {
	if len(data) == 0 {
		return ErrNilSnapshot
	}
	snap, err := codec.DecodeSnapshot(data)
	if err != nil {
		return err
	}

	r.clock.Update(snap.MaxTimestamp())

	r.mu.Lock()
	defer r.mu.Unlock()
	r.set.Merge(snap.Set())
	return nil
}

// Checkpoint 将当前状态写入存储。未配置存储时为空操作。
func (r *Replica) Checkpoint() error {
	if r.kv == nil {
		return nil
	}
	data, err := r.Snapshot()
	if err != nil {
		return err
	}
	return r.kv.Update(func(tx store.Tx) error {
		return tx.Set(keyState, data)
	})
}

func (r *Replica) restore() error {
	return r.kv.View(func(tx store.Tx) error {
		if raw, err := tx.Get(keyIdentity); err == nil {
			id, parseErr := uuid.ParseBytes(raw)
			if parseErr != nil {
				return fmt.Errorf("损坏的节点身份: %w", parseErr)
			}
			r.id = id
		} else if !errors.Is(err, store.ErrKeyNotFound) {
			return err
		}

		data, err := tx.Get(keyState)
		if errors.Is(err, store.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		snap, err := codec.DecodeSnapshot(data)
		if err != nil {
			return err
		}
		r.set = snap.Set()
		r.clock.Update(snap.MaxTimestamp())
		return nil
	})
}

func (r *Replica) persistIdentity() error {
	return r.kv.Update(func(tx store.Tx) error {
		return tx.Set(keyIdentity, []byte(r.id.String()))
	})
}
