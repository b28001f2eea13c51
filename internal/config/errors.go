package config

import "errors"

// ErrConfiguration marks a configuration that must stop the process before it
// starts serving traffic.
var ErrConfiguration = errors.New("invalid configuration")
