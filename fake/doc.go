// Package fake provides in-memory collaborators for testing hioload-pump
// components: a scripted engine, socket and dialer, a recording readiness
// facility and a manually drained executor.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package fake
