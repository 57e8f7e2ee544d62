package crdt

import "time"

// LWWSet 实现最后写入胜出的元素集合 (LWW-Element-Set)。
// 它由两个 GSet 组成：addLog 记录每个元素最近的添加时间，
// removeLog 记录最近的移除时间（墓碑）。
// 元素是否存在不单独存储，而是在每次查询时由两个日志现场推导，
// 避免出现与日志漂移的额外状态不变量。
//
// 并发模型：结构本身不加锁。多个 goroutine 并发读写同一副本时，
// 由调用方提供外部同步；Merge 的参数在调用期间必须是稳定的快照。
type LWWSet[T comparable] struct {
	addLog    *GSet[T]
	removeLog *GSet[T]
}

// NewLWWSet 创建一个空的 LWWSet（两个日志均为空）。
func NewLWWSet[T comparable]() *LWWSet[T] {
	return &LWWSet[T]{
		addLog:    NewGSet[T](),
		removeLog: NewGSet[T](),
	}
}

// NewLWWSetFromEntries 从导出的添加/移除日志重建 LWWSet。
// 与 NewGSetFromEntries 配套，供传输层反序列化远端副本状态。
func NewLWWSetFromEntries[T comparable](adds, removes map[T]int64) *LWWSet[T] {
	return &LWWSet[T]{
		addLog:    NewGSetFromEntries(adds),
		removeLog: NewGSetFromEntries(removes),
	}
}

// Lookup 推导元素的可见性。
// 规则：从未添加 -> 不存在；添加过且从未移除 -> 返回添加时间；
// 两者都有 -> 仅当添加时间严格大于移除时间才存在。
// 时间戳相等时移除胜出（偏向移除的决胜策略）。
func (s *LWWSet[T]) Lookup(item T) (int64, bool) {
	addTs, added := s.addLog.Lookup(item)
	if !added {
		return 0, false
	}
	removeTs, removed := s.removeLog.Lookup(item)
	if !removed || addTs > removeTs {
		return addTs, true
	}
	return 0, false
}

// Contains 判断元素当前是否可见。
func (s *LWWSet[T]) Contains(item T) bool {
	_, ok := s.Lookup(item)
	return ok
}

// Elements 返回当前所有可见元素。顺序不保证。
func (s *LWWSet[T]) Elements() []T {
	out := make([]T, 0, s.addLog.Len())
	for item := range s.addLog.entries {
		if s.Contains(item) {
			out = append(out, item)
		}
	}
	return out
}

// Add 记录一次添加，委托给 addLog（受其单调性规则约束）。
// 无论元素当前可见与否都可以安全调用。
func (s *LWWSet[T]) Add(item T, ts int64) {
	s.addLog.Add(item, ts)
}

// AddNow 使用当前墙上时钟 (Unix 纳秒) 执行 Add。
func (s *LWWSet[T]) AddNow(item T) {
	s.Add(item, time.Now().UnixNano())
}

// Remove 记录一次移除。
// 如果元素当前不可见（从未添加或已被移除），这是一次静默空操作：
// 不为从未观察到的元素落墓碑，把 removeLog 的增长限制在
// 真正存活过的元素上。否则委托给 removeLog。
func (s *LWWSet[T]) Remove(item T, ts int64) {
	if !s.Contains(item) {
		return
	}
	s.removeLog.Add(item, ts)
}

// RemoveNow 使用当前墙上时钟 (Unix 纳秒) 执行 Remove。
func (s *LWWSet[T]) RemoveNow(item T) {
	s.Remove(item, time.Now().UnixNano())
}

// Compare 判断本副本的两个日志的键集是否分别为 other 对应日志的子集。
// 与 GSet.Compare 一样只看键的成员关系，不看时间戳，
// 只适合作为"对方是否至少见过同样这些键"的粗粒度检查，
// 不是可见性状态的正确性判据。
func (s *LWWSet[T]) Compare(other *LWWSet[T]) bool {
	return s.addLog.Compare(other.addLog) && s.removeLog.Compare(other.removeLog)
}

// Merge 将 other 合并进本副本：添加日志与添加日志合并，
// 移除日志与移除日志合并，彼此独立。
// 由于底层合并是半格 join，而 Lookup 是两个日志的纯函数，
// 任意一批副本状态以任意顺序、任意分组合并都收敛到同一可见集合。
func (s *LWWSet[T]) Merge(other *LWWSet[T]) {
	s.addLog.Merge(other.addLog)
	s.removeLog.Merge(other.removeLog)
}

// AddEntries 导出添加日志的 (元素 -> 时间戳) 拷贝。
func (s *LWWSet[T]) AddEntries() map[T]int64 {
	return s.addLog.Entries()
}

// RemoveEntries 导出移除日志的 (元素 -> 时间戳) 拷贝。
func (s *LWWSet[T]) RemoveEntries() map[T]int64 {
	return s.removeLog.Entries()
}
