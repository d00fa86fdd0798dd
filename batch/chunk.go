package batch

// CreateBatches splits items into contiguous chunks of at most size items.
// Every batch except the last has exactly size items; concatenating the
// batches reproduces the input order. A non-positive size yields a single
// batch holding everything.
func CreateBatches[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = len(items)
	}

	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}
