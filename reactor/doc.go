// Copyright (c) 2025
// Author: momentics <momentics@gmail.com>

// Package reactor provides the readiness facility used by the pump: per-fd,
// per-direction sources that can be suspended and resumed independently and
// whose callbacks run on a caller supplied executor. Linux uses epoll; other
// platforms report api.ErrNotSupported.
package reactor
