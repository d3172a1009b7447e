package filter

import "github.com/s0up4200/libgate/model"

// Apply returns the books f keeps, in their original order.
// A nil filter keeps everything.
func Apply(f Filter, books []model.BookRecord) []model.BookRecord {
	if f == nil {
		return books
	}
	kept := make([]model.BookRecord, 0, len(books))
	for _, b := range books {
		if f.Evaluate(b) {
			kept = append(kept, b)
		}
	}
	return kept
}
