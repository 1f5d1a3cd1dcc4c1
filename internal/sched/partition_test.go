package sched

import (
	"fmt"
	"sort"
	"testing"
)

func TestPartitionerRejectsBadLaneCount(t *testing.T) {
	t.Parallel()

	for _, lanes := range []int{0, -1} {
		if _, err := NewPartitioner(lanes); err == nil {
			t.Fatalf("expected error for %d lanes", lanes)
		}
	}
}

func TestPartitionerGroupsByHost(t *testing.T) {
	t.Parallel()

	p, err := NewPartitioner(5)
	if err != nil {
		t.Fatalf("NewPartitioner() error = %v", err)
	}

	var items []WorkItem
	hosts := []string{"a.example.com", "b.example.org", "c.example.net"}
	for i := 0; i < 60; i++ {
		items = append(items, WorkItem{
			DispatchKey: uint32(i * 7919 % 65536),
			HostKey:     hosts[i%len(hosts)],
			URLKey:      fmt.Sprintf("key-%d", i),
		})
	}

	lanes := p.Split(items)
	if len(lanes) != 5 {
		t.Fatalf("Split() produced %d lanes, want 5", len(lanes))
	}

	seen := make(map[string]int)
	total := 0
	for lane, group := range lanes {
		for _, item := range group {
			total++
			if prev, ok := seen[item.HostKey]; ok && prev != lane {
				t.Fatalf("host %s appeared in lanes %d and %d", item.HostKey, prev, lane)
			}
			seen[item.HostKey] = lane
			if got := p.Lane(item.HostKey); got != lane {
				t.Fatalf("Lane(%s) = %d, but item placed in lane %d", item.HostKey, got, lane)
			}
		}
	}
	if total != len(items) {
		t.Fatalf("Split() dropped items: %d of %d placed", total, len(items))
	}
}

func TestPartitionerDeterminism(t *testing.T) {
	t.Parallel()

	p, err := NewPartitioner(7)
	if err != nil {
		t.Fatalf("NewPartitioner() error = %v", err)
	}
	q, err := NewPartitioner(7)
	if err != nil {
		t.Fatalf("NewPartitioner() error = %v", err)
	}

	for i := 0; i < 100; i++ {
		host := fmt.Sprintf("host-%d.example.com", i)
		if p.Lane(host) != q.Lane(host) {
			t.Fatalf("lane assignment for %s differs between identical partitioners", host)
		}
		if p.Lane(host) != p.Lane(host) {
			t.Fatalf("lane assignment for %s is not stable", host)
		}
	}
}

func TestSplitOrdersByDispatchKey(t *testing.T) {
	t.Parallel()

	p, err := NewPartitioner(1)
	if err != nil {
		t.Fatalf("NewPartitioner() error = %v", err)
	}

	items := []WorkItem{
		{DispatchKey: 300, HostKey: "a.test", URLKey: "k1"},
		{DispatchKey: 100, HostKey: "b.test", URLKey: "k2"},
		{DispatchKey: 200, HostKey: "a.test", URLKey: "k3"},
	}
	original := append([]WorkItem(nil), items...)

	lanes := p.Split(items)
	lane := lanes[0]
	if !sort.SliceIsSorted(lane, func(i, j int) bool {
		return lane[i].DispatchKey < lane[j].DispatchKey
	}) {
		t.Fatalf("lane not ordered by dispatch key: %+v", lane)
	}

	// Split must not mutate the caller's slice.
	for i := range items {
		if items[i].URLKey != original[i].URLKey {
			t.Fatal("Split() reordered the input slice")
		}
	}
}
