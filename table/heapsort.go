package table

// HeapSort orders rows ascending by column col in place. It is not stable.
// Rows shorter than col+1 are treated as holding a null in that column.
func HeapSort(rows []Row, col int) {
	n := len(rows)
	for i := n/2 - 1; i >= 0; i-- {
		siftDown(rows, col, i, n)
	}
	for end := n - 1; end > 0; end-- {
		rows[0], rows[end] = rows[end], rows[0]
		siftDown(rows, col, 0, end)
	}
}

// siftDown restores the max-heap property for the subtree rooted at i,
// considering only the first n rows.
func siftDown(rows []Row, col, i, n int) {
	for {
		largest := i
		left, right := 2*i+1, 2*i+2
		if left < n && Compare(rows[left].At(col), rows[largest].At(col)) > 0 {
			largest = left
		}
		if right < n && Compare(rows[right].At(col), rows[largest].At(col)) > 0 {
			largest = right
		}
		if largest == i {
			return
		}
		rows[i], rows[largest] = rows[largest], rows[i]
		i = largest
	}
}
