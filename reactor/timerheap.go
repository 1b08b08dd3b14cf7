// File: reactor/timerheap.go
// Author: momentics <momentics@gmail.com>
//
// Deadline min-heap over handles. Only the dispatch goroutine touches it.

package reactor

import "container/heap"

type timerHeap []*Handle

func (th timerHeap) Len() int { return len(th) }

func (th timerHeap) Less(i, j int) bool {
	return th[i].deadline.Before(th[j].deadline)
}

func (th timerHeap) Swap(i, j int) {
	th[i], th[j] = th[j], th[i]
	th[i].heapIdx = i
	th[j].heapIdx = j
}

func (th *timerHeap) Push(x any) {
	h := x.(*Handle)
	h.heapIdx = len(*th)
	*th = append(*th, h)
}

func (th *timerHeap) Pop() any {
	old := *th
	n := len(old)
	h := old[n-1]
	old[n-1] = nil
	h.heapIdx = -1
	*th = old[:n-1]
	return h
}

// schedule inserts or repositions h by its current deadline.
func (th *timerHeap) schedule(h *Handle) {
	if h.heapIdx >= 0 {
		heap.Fix(th, h.heapIdx)
		return
	}
	heap.Push(th, h)
}

// unschedule removes h if it is queued.
func (th *timerHeap) unschedule(h *Handle) {
	if h.heapIdx < 0 {
		return
	}
	heap.Remove(th, h.heapIdx)
}

// peek returns the handle with the earliest deadline, or nil.
func (th timerHeap) peek() *Handle {
	if len(th) == 0 {
		return nil
	}
	return th[0]
}
