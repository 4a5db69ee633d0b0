package voxel

import (
	"fmt"
	"runtime"
)

// partitionJob is one worker's contiguous, disjoint linear-index range of
// the chunk grid, handed directly to the goroutine that generates it.
type partitionJob struct {
	worker int
	start  int
	end    int
}

// partitionResult is one worker's local output before it is merged into the
// object: the chunks of its partition, plus its own voxel payload with data
// offsets local to that payload (the coordinator applies base offsets during
// the merge, once the final arena layout is known).
type partitionResult struct {
	chunks []Chunk
	voxels []Voxel
}

// workerReport is what a worker sends back on the bounded count channel once
// it has finished generating its partition locally: how many voxels it
// produced, or the panic value it recovered if generation faulted.
type workerReport struct {
	worker     int
	voxelCount int
	panicValue any
}

// GenerateInParallel is the concurrent counterpart of Generate (C5). It
// partitions the chunk grid into workerCount contiguous ranges and runs one
// worker goroutine per partition; each goroutine receives its partition as
// an argument rather than from a job channel. Workers own their own
// Arena-backed scratch and never
// touch the object's voxel arena directly. Each worker first reports its
// produced voxel count on a bounded channel back to the coordinator; once
// every worker has reported, the coordinator resizes the final voxel vector
// exactly once and dispatches disjoint mutable slices back to each worker
// through its own one-shot reply channel. Workers copy their local voxels
// into the assigned slice and exit, so there is zero contention on the
// final voxel vector throughout generation. If any worker panics, that
// panic is recovered at the worker boundary, every other worker is still
// allowed to finish (so no goroutine leaks), and the panic is re-raised on
// the calling goroutine once all workers have joined; no partial object is
// ever published.
func GenerateInParallel(g Generator, logger Logger, workerCount int) *Object {
	o := newObjectShell(g, logger)
	total := len(o.chunks)
	if total == 0 {
		o.analyze()
		o.ComputeAllDerivedState()
		return o
	}

	workerCount = clampWorkerCount(workerCount, total)
	partitionSize := (total + workerCount - 1) / workerCount

	jobs := make([]partitionJob, workerCount)
	for w := 0; w < workerCount; w++ {
		start := w * partitionSize
		end := start + partitionSize
		if end > total {
			end = total
		}
		jobs[w] = partitionJob{worker: w, start: start, end: end}
	}

	locals := make([]partitionResult, workerCount)
	reportCh := make(chan workerReport, workerCount)
	sliceChs := make([]chan []Voxel, workerCount)
	doneCh := make(chan int, workerCount)
	for w := range sliceChs {
		sliceChs[w] = make(chan []Voxel, 1)
	}

	for _, job := range jobs {
		go runPartitionWorker(g, o.chunkCounts, job, locals, reportCh, sliceChs[job.worker], doneCh)
	}

	reports := make([]workerReport, workerCount)
	var firstPanic any
	for i := 0; i < workerCount; i++ {
		r := <-reportCh
		reports[r.worker] = r
		if r.panicValue != nil && firstPanic == nil {
			firstPanic = r.panicValue
		}
	}

	if firstPanic != nil {
		// Every worker has already reported, so every worker that did not
		// panic is parked waiting on its reply channel; unblock them with a
		// nil slice so none leak, then join before propagating the fault.
		for w := 0; w < workerCount; w++ {
			if reports[w].panicValue == nil {
				sliceChs[w] <- nil
				<-doneCh
			}
		}
		o.logger.Warnf("voxel: parallel generation aborted, a worker panicked")
		panic(fmt.Sprintf("voxel: worker failed during parallel generation: %v", firstPanic))
	}

	base := 0
	voxelBase := make([]int, workerCount)
	for w := 0; w < workerCount; w++ {
		voxelBase[w] = base
		base += reports[w].voxelCount
	}

	o.voxels = make([]Voxel, base)
	for w := 0; w < workerCount; w++ {
		n := reports[w].voxelCount
		if n == 0 {
			sliceChs[w] <- nil
			continue
		}
		sliceChs[w] <- o.voxels[voxelBase[w] : voxelBase[w]+n]
	}
	for range jobs {
		<-doneCh
	}

	for w := 0; w < workerCount; w++ {
		chunkOffset := voxelBase[w] / ChunkVoxelCount
		for i, c := range locals[w].chunks {
			linear := jobs[w].start + i
			if c.IsNonUniform() {
				c.setDataOffset(c.DataOffset() + chunkOffset)
			}
			o.chunks[linear] = c
		}
	}

	o.logger.Debugf("voxel: parallel generation merged %d workers, %d stored voxels", workerCount, len(o.voxels))

	o.analyze()
	o.ComputeAllDerivedState()
	return o
}

// clampWorkerCount bounds the requested worker count to [1, total], defaulting
// to GOMAXPROCS when the caller does not specify one.
func clampWorkerCount(workerCount, total int) int {
	if workerCount <= 0 {
		workerCount = runtime.GOMAXPROCS(0)
	}
	if workerCount > total {
		workerCount = total
	}
	if workerCount < 1 {
		workerCount = 1
	}
	return workerCount
}

// runPartitionWorker is one worker goroutine: generate the partition locally
// into arena-backed scratch, report the produced voxel count, wait for the
// coordinator's disjoint reply slice, copy in, and signal completion. A
// generator panic is recovered here so the coordinator always receives
// exactly one report per worker.
func runPartitionWorker(g Generator, chunkCounts [3]int, job partitionJob, locals []partitionResult, reportCh chan<- workerReport, sliceCh <-chan []Voxel, doneCh chan<- int) {
	panicked := func() (panicked bool) {
		defer func() {
			if r := recover(); r != nil {
				reportCh <- workerReport{worker: job.worker, panicValue: r}
				panicked = true
			}
		}()
		result := generatePartition(g, chunkCounts, job.start, job.end)
		locals[job.worker] = result
		reportCh <- workerReport{worker: job.worker, voxelCount: len(result.voxels)}
		return false
	}()
	if panicked {
		return
	}

	dst := <-sliceCh
	if len(dst) > 0 {
		copy(dst, locals[job.worker].voxels)
	}
	doneCh <- job.worker
}

// generatePartition runs the serial generation loop (see
// Object.generateChunksSerial) over one contiguous linear-index range, using
// a worker-local Arena so no scratch is ever shared across workers.
func generatePartition(g Generator, chunkCounts [3]int, start, end int) partitionResult {
	if start >= end {
		return partitionResult{}
	}
	arena := NewArena(g.TotalBufferSize())
	buffers := g.CreateBuffersIn(arena)
	scratch := make([]Voxel, ChunkVoxelCount)

	chunks := make([]Chunk, end-start)
	var voxels []Voxel

	for linear := start; linear < end; linear++ {
		ci, cj, ck := ChunkIndicesFromLinear(linear, chunkCounts)
		origin := ChunkOrigin(ci, cj, ck)
		g.GenerateChunk(buffers, scratch, origin)
		chunk := FromVoxels(scratch)
		if chunk.IsNonUniform() {
			localOffset := len(voxels) / ChunkVoxelCount
			chunk.setDataOffset(localOffset)
			voxels = append(voxels, scratch...)
		}
		chunks[linear-start] = chunk
	}
	return partitionResult{chunks: chunks, voxels: voxels}
}
