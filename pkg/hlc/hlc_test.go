package hlc

import (
	"testing"
	"time"
)

func TestClock_Monotonicity(t *testing.T) {
	clock := New()

	prev := clock.Now()
	for i := 0; i < 1000; i++ {
		ts := clock.Now()
		if ts <= prev {
			t.Fatalf("时钟非严格单调递增: prev=%d, ts=%d", prev, ts)
		}
		prev = ts
	}
}

func TestClock_PackedOrderMatchesParts(t *testing.T) {
	clock := New()
	t1 := clock.Now()
	t2 := clock.Now()

	p1, l1 := Physical(t1), Logical(t1)
	p2, l2 := Physical(t2), Logical(t2)

	if p2 < p1 {
		t.Error("物理时间倒退")
	}
	if p2 == p1 && l2 <= l1 {
		t.Error("同一毫秒内逻辑计数未递增")
	}
	if Compare(t2, t1) != 1 {
		t.Errorf("Compare(t2, t1) 预期 1, 实际得到 %d", Compare(t2, t1))
	}
	if Compare(t1, t1) != 0 {
		t.Error("Compare 自比较应为 0")
	}
}

func TestClock_UpdateAbsorbsFuture(t *testing.T) {
	clock := New()

	// 模拟收到来自未来一小时的远端时间戳
	futurePhys := time.Now().Add(time.Hour).UnixMilli()
	remote := futurePhys << 16

	clock.Update(remote)

	now := clock.Now()
	if now <= remote {
		t.Errorf("Update 后 Now 应严格大于远端时间戳: now=%d, remote=%d", now, remote)
	}
	if Physical(now) < futurePhys {
		t.Errorf("时钟未追上远端物理时间: %d < %d", Physical(now), futurePhys)
	}
}

func TestClock_UpdateIgnoresPast(t *testing.T) {
	clock := New()
	t1 := clock.Now()

	clock.Update(t1 - 1000)

	t2 := clock.Now()
	if t2 <= t1 {
		t.Error("吸收过去的时间戳不应使时钟倒退")
	}
}

func TestClock_Causality(t *testing.T) {
	clockA := New()
	tsA := clockA.Now()

	// 节点 B 收到来自 A 的消息后产出的时间戳必须大于 tsA
	clockB := New()
	clockB.Update(tsA)
	tsB := clockB.Now()

	if tsB <= tsA {
		t.Errorf("违反因果关系: tsB (%d) <= tsA (%d)", tsB, tsA)
	}
}

func TestPack_LogicalOverflowCarries(t *testing.T) {
	ts := pack(100, logicalMask+1)
	if Physical(ts) != 101 || Logical(ts) != 0 {
		t.Errorf("逻辑计数溢出应向物理部分进位, 实际得到 phys=%d logical=%d", Physical(ts), Logical(ts))
	}
}
