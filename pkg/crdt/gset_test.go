package crdt

import (
	"testing"
	"time"
)

func TestGSet_GrowOnlySequence(t *testing.T) {
	s := NewGSet[int]()

	t0 := int64(100)
	t1 := int64(200)

	s.Add(1, t0)
	s.Add(2, t0)
	s.Add(2, t1) // 更新的时间戳，应该推进
	s.Add(3, t1)
	s.Add(3, t0) // 过期的时间戳，应该被忽略

	if ts, ok := s.Lookup(1); !ok || ts != t0 {
		t.Errorf("预期 lookup(1)=%d, 实际得到 (%d, %v)", t0, ts, ok)
	}
	if ts, ok := s.Lookup(2); !ok || ts != t1 {
		t.Errorf("预期 lookup(2)=%d, 实际得到 (%d, %v)", t1, ts, ok)
	}
	if ts, ok := s.Lookup(3); !ok || ts != t1 {
		t.Errorf("预期 lookup(3)=%d, 实际得到 (%d, %v)", t1, ts, ok)
	}
	if _, ok := s.Lookup(4); ok {
		t.Error("预期 lookup(4) 不存在")
	}
	if s.Len() != 3 {
		t.Errorf("预期 3 个键, 实际得到 %d", s.Len())
	}
}

func TestGSet_AddMonotonicity(t *testing.T) {
	t1 := int64(100)
	t2 := int64(200)

	// 两种应用顺序都应停在 t2
	a := NewGSet[string]()
	a.Add("x", t1)
	a.Add("x", t2)
	if ts, _ := a.Lookup("x"); ts != t2 {
		t.Errorf("正序: 预期 %d, 实际得到 %d", t2, ts)
	}

	b := NewGSet[string]()
	b.Add("x", t2)
	b.Add("x", t1)
	if ts, _ := b.Lookup("x"); ts != t2 {
		t.Errorf("逆序: 预期 %d, 实际得到 %d", t2, ts)
	}

	// 时间戳相等时保留已有值（平局不更新）
	c := NewGSet[string]()
	c.Add("x", t1)
	c.Add("x", t1)
	if ts, _ := c.Lookup("x"); ts != t1 {
		t.Errorf("平局: 预期 %d, 实际得到 %d", t1, ts)
	}
}

func TestGSet_AddNow(t *testing.T) {
	s := NewGSet[string]()
	before := time.Now().UnixNano()
	s.AddNow("x")
	after := time.Now().UnixNano()

	ts, ok := s.Lookup("x")
	if !ok {
		t.Fatal("AddNow 后元素应该存在")
	}
	if ts < before || ts > after {
		t.Errorf("墙上时钟时间戳 %d 不在 [%d, %d] 区间内", ts, before, after)
	}
}

func TestGSet_MergeTakesMax(t *testing.T) {
	a := NewGSet[string]()
	a.Add("only-a", 10)
	a.Add("both", 50)

	b := NewGSet[string]()
	b.Add("only-b", 20)
	b.Add("both", 30)

	a.Merge(b)

	if ts, ok := a.Lookup("only-a"); !ok || ts != 10 {
		t.Errorf("本方独有的键应保持不变, 实际得到 (%d, %v)", ts, ok)
	}
	if ts, ok := a.Lookup("only-b"); !ok || ts != 20 {
		t.Errorf("对方独有的键应被并入, 实际得到 (%d, %v)", ts, ok)
	}
	if ts, ok := a.Lookup("both"); !ok || ts != 50 {
		t.Errorf("共有键应取较大时间戳 50, 实际得到 (%d, %v)", ts, ok)
	}
}

func TestGSet_MergeSemilattice(t *testing.T) {
	build := func(pairs map[string]int64) *GSet[string] {
		s := NewGSet[string]()
		for k, ts := range pairs {
			s.Add(k, ts)
		}
		return s
	}
	equal := func(x, y *GSet[string]) bool {
		if x.Len() != y.Len() {
			return false
		}
		for k, ts := range x.Entries() {
			if other, ok := y.Lookup(k); !ok || other != ts {
				return false
			}
		}
		return true
	}

	stateA := map[string]int64{"a": 1, "b": 5}
	stateB := map[string]int64{"b": 3, "c": 7}
	stateC := map[string]int64{"a": 9, "c": 2}

	// 幂等: merge(S, S) == S
	s := build(stateA)
	s.Merge(build(stateA))
	if !equal(s, build(stateA)) {
		t.Error("merge(S, S) 应保持 S 不变")
	}

	// 交换: merge(A, B) == merge(B, A)
	ab := build(stateA)
	ab.Merge(build(stateB))
	ba := build(stateB)
	ba.Merge(build(stateA))
	if !equal(ab, ba) {
		t.Error("merge 应满足交换律")
	}

	// 结合: merge(merge(A, B), C) == merge(A, merge(B, C))
	left := build(stateA)
	left.Merge(build(stateB))
	left.Merge(build(stateC))
	bc := build(stateB)
	bc.Merge(build(stateC))
	right := build(stateA)
	right.Merge(bc)
	if !equal(left, right) {
		t.Error("merge 应满足结合律")
	}
}

func TestGSet_CompareKeyMembershipOnly(t *testing.T) {
	// 相同的键、不同的时间戳：双向都应视为子集。
	// 这是刻意保留的语义，Compare 不做因果/时间戳比较。
	a := NewGSet[string]()
	a.Add("x", 1)
	a.Add("y", 2)

	b := NewGSet[string]()
	b.Add("x", 100)
	b.Add("y", 200)

	if !a.Compare(b) {
		t.Error("键集相同但时间戳不同: a 应是 b 的子集")
	}
	if !b.Compare(a) {
		t.Error("键集相同但时间戳不同: b 应是 a 的子集")
	}

	// 真子集与非子集
	b.Add("z", 300)
	if !a.Compare(b) {
		t.Error("a 的键集是 b 的真子集, 应返回 true")
	}
	if b.Compare(a) {
		t.Error("b 多出键 z, 不应是 a 的子集")
	}

	// 空集是任何集合的子集；自比较恒为真
	empty := NewGSet[string]()
	if !empty.Compare(a) || !empty.Compare(empty) {
		t.Error("空集应是任何集合（含自身）的子集")
	}
	if !a.Compare(a) {
		t.Error("自比较应返回 true")
	}
}

func TestGSet_EntriesIsCopy(t *testing.T) {
	s := NewGSet[string]()
	s.Add("x", 10)

	out := s.Entries()
	out["x"] = 999
	out["injected"] = 1

	if ts, _ := s.Lookup("x"); ts != 10 {
		t.Errorf("修改导出的映射不应影响集合, 实际得到 %d", ts)
	}
	if _, ok := s.Lookup("injected"); ok {
		t.Error("导出的映射不应与内部状态产生别名")
	}
}

func TestGSet_FromEntriesRoundTrip(t *testing.T) {
	s := NewGSet[int]()
	s.Add(1, 10)
	s.Add(2, 20)

	rebuilt := NewGSetFromEntries(s.Entries())
	if rebuilt.Len() != 2 {
		t.Fatalf("重建后预期 2 个键, 实际得到 %d", rebuilt.Len())
	}
	if ts, _ := rebuilt.Lookup(1); ts != 10 {
		t.Errorf("重建后 lookup(1) 预期 10, 实际得到 %d", ts)
	}
	if ts, _ := rebuilt.Lookup(2); ts != 20 {
		t.Errorf("重建后 lookup(2) 预期 20, 实际得到 %d", ts)
	}
}
