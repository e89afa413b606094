// Copyright 2025 The GoGPU Authors
// SPDX-License-Identifier: MIT

//go:build windows

// Package d3d11, timer.go: a submission.GPUTimer backed by a ring of three
// ID3D11Query objects, grounded directly on gpu_timers.h's D3D11GpuTimer
// (timestamp-disjoint query bracketing a start/end timestamp pair). D3D11
// is the only bridge that implements submission.TimerProvider: pimax-openxr
// is the only original_source runtime with a gpu_timers.h, and it only
// ever instantiates D3D11GpuTimer, never a Vulkan or D3D12 equivalent.
package d3d11

import (
	"unsafe"

	"github.com/vrshim/openxr-runtime/internal/submission"
)

const (
	queryTimestamp         = 2
	queryTimestampDisjoint = 3
)

type d3d11QueryDesc struct {
	Query     uint32
	MiscFlags uint32
}

type d3d11QueryDataTimestampDisjoint struct {
	Frequency uint64
	Disjoint  int32
	_         int32 // struct padding to 8-byte align Frequency on repeat reads
}

// gpuTimer implements submission.GPUTimer over one disjoint query plus a
// start/end timestamp pair, exactly gpu_timers.h's three-query shape.
type gpuTimer struct {
	context  unsafe.Pointer
	disjoint unsafe.Pointer
	start    unsafe.Pointer
	end      unsafe.Pointer
	valid    bool
}

func newGPUTimer(device, context unsafe.Pointer) (*gpuTimer, error) {
	disjoint, err := createQuery(device, queryTimestampDisjoint)
	if err != nil {
		return nil, err
	}
	start, err := createQuery(device, queryTimestamp)
	if err != nil {
		return nil, err
	}
	end, err := createQuery(device, queryTimestamp)
	if err != nil {
		return nil, err
	}
	return &gpuTimer{context: context, disjoint: disjoint, start: start, end: end}, nil
}

func createQuery(device unsafe.Pointer, kind uint32) (unsafe.Pointer, error) {
	desc := d3d11QueryDesc{Query: kind}
	var query unsafe.Pointer
	if _, err := comCall(device, slotCreateQuery,
		uintptr(unsafe.Pointer(&desc)), uintptr(unsafe.Pointer(&query))); err != nil {
		return nil, err
	}
	return query, nil
}

// Start implements submission.GPUTimer.
func (t *gpuTimer) Start() {
	_, _ = comCall(t.context, slotCtxBegin, uintptr(t.disjoint))
	_, _ = comCall(t.context, slotCtxEnd, uintptr(t.start))
}

// Stop implements submission.GPUTimer.
func (t *gpuTimer) Stop() {
	_, _ = comCall(t.context, slotCtxEnd, uintptr(t.end))
	_, _ = comCall(t.context, slotCtxEnd, uintptr(t.disjoint))
	t.valid = true
}

// QueryMicroseconds implements submission.GPUTimer. A non-zero result
// requires all three queries to have resolved and the disjoint flag to be
// clear; otherwise it reports 0, matching gpu_timers.h's query()'s
// "still pending" behavior rather than blocking on GetData.
func (t *gpuTimer) QueryMicroseconds(reset bool) uint64 {
	if !t.valid {
		return 0
	}
	var startTime, endTime uint64
	var disjointData d3d11QueryDataTimestampDisjoint

	okStart := getData(t.context, t.start, unsafe.Pointer(&startTime), 8)
	okEnd := getData(t.context, t.end, unsafe.Pointer(&endTime), 8)
	okDisjoint := getData(t.context, t.disjoint, unsafe.Pointer(&disjointData), 16)

	if reset {
		t.valid = false
	}
	if !okStart || !okEnd || !okDisjoint || disjointData.Disjoint != 0 || disjointData.Frequency == 0 {
		return 0
	}
	return (endTime - startTime) * 1_000_000 / disjointData.Frequency
}

// getData wraps ID3D11DeviceContext::GetData, returning true only for
// S_OK (0): S_FALSE (1, "not ready yet") and any error are both reported
// as not-ready, matching gpu_timers.h checking `== S_OK` rather than
// SUCCEEDED().
func getData(context, query unsafe.Pointer, out unsafe.Pointer, size uintptr) bool {
	ret, _ := comCall(context, slotCtxGetData, uintptr(query), uintptr(out), size, 0)
	return ret == 0
}

// CreateGPUTimer implements submission.TimerProvider.
func (p *provider) CreateGPUTimer(deviceHandle any) (submission.GPUTimer, error) {
	device, _ := deviceHandle.(unsafe.Pointer)
	if device == nil {
		return nil, nil
	}
	return newGPUTimer(device, p.state.context)
}
