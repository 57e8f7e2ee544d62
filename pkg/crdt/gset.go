package crdt

import "time"

// GSet 实现带时间戳的只增集合 (Timestamped Grow-only Set)。
// 每个元素映射到它最近一次被接受的添加操作的时间戳。
// 元素一旦加入就永远不会被删除，只有时间戳会向前推进。
//
// 时间戳是不透明的 int64：核心只依赖全序比较，
// 不关心它是 Unix 纳秒还是 hlc 打包的混合时间戳。
type GSet[T comparable] struct {
	entries map[T]int64
}

// NewGSet 创建一个空的 GSet。
func NewGSet[T comparable]() *GSet[T] {
	return &GSet[T]{
		entries: make(map[T]int64),
	}
}

// NewGSetFromEntries 从导出的 (元素 -> 时间戳) 映射重建 GSet。
// 用于传输层反序列化后恢复副本状态。输入会被拷贝，不产生别名。
func NewGSetFromEntries[T comparable](entries map[T]int64) *GSet[T] {
	s := NewGSet[T]()
	for e, ts := range entries {
		s.entries[e] = ts
	}
	return s
}

// Lookup 返回元素已记录的时间戳。
// 如果元素从未被添加过，第二个返回值为 false。无副作用。
func (s *GSet[T]) Lookup(item T) (int64, bool) {
	ts, ok := s.entries[item]
	return ts, ok
}

// Add 记录一次添加操作。
// 只有当元素不存在、或已存储的时间戳严格小于 ts 时才更新。
// 时间戳相等或更旧的添加会被静默忽略（单调性，不是错误）。
func (s *GSet[T]) Add(item T, ts int64) {
	if old, ok := s.entries[item]; ok && old >= ts {
		return
	}
	s.entries[item] = ts
}

// AddNow 使用当前墙上时钟 (Unix 纳秒) 执行 Add。
// 调用方省略时间戳时的默认行为。
func (s *GSet[T]) AddNow(item T) {
	s.Add(item, time.Now().UnixNano())
}

// Compare 判断本集合的键集是否为 other 键集的子集。
// 注意：只比较键的成员关系，故意不比较时间戳的大小——
// 两个键集相同但时间戳不同的集合互为子集。
// 下游的收敛检查依赖这个（较弱的）语义，不要把它"修复"成
// 因果/时间戳感知的比较。
func (s *GSet[T]) Compare(other *GSet[T]) bool {
	for item := range s.entries {
		if _, ok := other.entries[item]; !ok {
			return false
		}
	}
	return true
}

// Merge 将 other 的状态合并进本集合：
// 对 other 中的每个键，取双方时间戳的较大值（本方缺失视为负无穷）。
// 只存在于本方的键保持不变。结果是键集的并集。
// 这是半格的 join 操作：幂等、交换、结合。
func (s *GSet[T]) Merge(other *GSet[T]) {
	for item, ts := range other.entries {
		if old, ok := s.entries[item]; !ok || old < ts {
			s.entries[item] = ts
		}
	}
}

// Len 返回集合中键的数量。
func (s *GSet[T]) Len() int {
	return len(s.entries)
}

// Entries 导出 (元素 -> 时间戳) 映射的拷贝。
// 供序列化/传输层枚举完整状态；修改返回值不影响集合本身。
func (s *GSet[T]) Entries() map[T]int64 {
	out := make(map[T]int64, len(s.entries))
	for e, ts := range s.entries {
		out[e] = ts
	}
	return out
}
