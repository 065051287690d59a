package playout

// audioRing retains the most recently scheduled audio sample blocks. The
// device may read a scheduled block asynchronously after the schedule call
// returns, so blocks must stay alive until the device is guaranteed to be
// done with them; a capacity of buffer depth + 1 gives that headroom.
// Pushing into a full ring silently evicts the oldest block.
type audioRing struct {
	blocks [][]int32
	next   int
	filled int
}

func newAudioRing(capacity int) *audioRing {
	return &audioRing{blocks: make([][]int32, capacity)}
}

// push copies samples into the ring and returns the retained copy. The
// returned slice is what gets handed to the device.
func (r *audioRing) push(samples []int32) []int32 {
	block := make([]int32, len(samples))
	copy(block, samples)
	r.blocks[r.next] = block
	r.next = (r.next + 1) % len(r.blocks)
	if r.filled < len(r.blocks) {
		r.filled++
	}
	return block
}

func (r *audioRing) size() int     { return r.filled }
func (r *audioRing) capacity() int { return len(r.blocks) }

// oldest returns the least recently pushed block still retained, or nil
// when the ring is empty.
func (r *audioRing) oldest() []int32 {
	if r.filled == 0 {
		return nil
	}
	if r.filled < len(r.blocks) {
		return r.blocks[0]
	}
	return r.blocks[r.next]
}
