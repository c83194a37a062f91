package review

import "errors"

// ErrRecordNotFound covers both a missing record and a record that already
// left the pending state; callers treat the two identically.
var ErrRecordNotFound = errors.New("review record not found")
