package integrity

import "errors"

// ErrOwnershipMismatch は求人が指定された雇用主に属していない場合に返却されます。
var ErrOwnershipMismatch = errors.New("integrity: job does not belong to employer")
