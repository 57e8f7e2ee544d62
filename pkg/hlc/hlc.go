package hlc

import (
	"sync"
	"time"
)

// Clock 是混合逻辑时钟 (Hybrid Logical Clock)，
// 作为 LWW 集合的默认时间戳来源。
// 它产出的时间戳打包为 int64：
//   - 高 48 位：物理时间 (毫秒)，从 Unix Epoch 开始。
//   - 低 16 位：逻辑计数器。
//
// Now 保证严格单调递增；Update 吸收远端时间戳，
// 使本地后续产出的时间戳一定大于任何已见过的远端值。
// 这样合并之后本地的新写入不会被"过去"的远端写入压住。
type Clock struct {
	mu     sync.Mutex
	latest int64 // 已产出/已见过的最大打包时间戳
}

const logicalMask = 0xFFFF

// New 创建一个新的 HLC 时钟。
func New() *Clock {
	return &Clock{}
}

func pack(phys, logical int64) int64 {
	// 逻辑计数溢出 16 位时向物理部分进位
	if logical > logicalMask {
		phys++
		logical = 0
	}
	return (phys << 16) | logical
}

func unpack(ts int64) (phys, logical int64) {
	return ts >> 16, ts & logicalMask
}

// Now 返回一个严格大于此前所有返回值的时间戳，并推进内部状态。
func (c *Clock) Now() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	phys := time.Now().UnixMilli()
	oldPhys, oldLogical := unpack(c.latest)

	if phys > oldPhys {
		c.latest = pack(phys, 0)
	} else {
		// 物理时间未推进（或倒退）：递增逻辑计数
		c.latest = pack(oldPhys, oldLogical+1)
	}
	return c.latest
}

// Update 用接收到的远端时间戳更新本地时钟。
// 在合并远端副本状态时对其中的每个时间戳调用。
func (c *Clock) Update(remote int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if remote > c.latest {
		c.latest = remote
	}
}

// Physical 返回时间戳的物理部分 (Unix 毫秒)。
func Physical(ts int64) int64 {
	phys, _ := unpack(ts)
	return phys
}

// Logical 返回时间戳的逻辑部分。
func Logical(ts int64) int64 {
	_, logical := unpack(ts)
	return logical
}

// Compare 比较两个打包的时间戳: a > b 返回 1, a < b 返回 -1, 相等返回 0。
// 打包格式保持了字典序，直接比较 int64 即可。
func Compare(a, b int64) int {
	switch {
	case a > b:
		return 1
	case a < b:
		return -1
	default:
		return 0
	}
}
