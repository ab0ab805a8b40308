package domain

// Two policies govern imperfect input and are kept apart on purpose:
//
//   - Shape: a data line whose width differs from the header is dropped
//     without a log entry. See AcceptRowShape.
//   - Degrade: a missing or empty optional field never fails a row; callers
//     fall back or omit. See OptionalField.

// AcceptRowShape reports whether a data line may become a Row under the
// active header.
func AcceptRowShape(header, cells []string) bool {
	return len(cells) == len(header)
}

// OptionalField returns the value of name, or "" when the column is absent
// or empty. Both cases are treated the same by every consumer.
func OptionalField(r Row, name string) string {
	v, _ := r.Get(name)
	return v
}
