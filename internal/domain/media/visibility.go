package media

import "sort"

// VisibleOn returns the items shown on page: active assets assigned to that
// page, ascending by DisplayOrder. Equal orders keep their input order.
func VisibleOn[T Record, P RecordPtr[T]](page Page, items []T) []T {
	out := make([]T, 0, len(items))
	for i := range items {
		base := P(&items[i]).Base()
		if base.IsActive && base.PageAssignment == page {
			out = append(out, items[i])
		}
	}
	SortByDisplayOrder[T, P](out)
	return out
}

// SortByDisplayOrder stably sorts items ascending by DisplayOrder.
func SortByDisplayOrder[T Record, P RecordPtr[T]](items []T) {
	sort.SliceStable(items, func(i, j int) bool {
		return P(&items[i]).Base().DisplayOrder < P(&items[j]).Base().DisplayOrder
	})
}
