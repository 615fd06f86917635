package report

import "errors"

// ErrUnknownField reports a field name outside Fields.
var ErrUnknownField = errors.New("unknown report field")
