package db

import "errors"

// ErrDuplicateUser is returned when an insert or update would reuse an
// existing nickname or email. It wraps gorm.ErrDuplicatedKey.
var ErrDuplicateUser = errors.New("user nickname or email already exists")
