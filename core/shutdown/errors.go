package shutdown

import "errors"

var ErrAlreadyDraining = errors.New("shutdown: drain already started")
