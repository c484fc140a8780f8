// File: protocol/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

// Package protocol provides a small newline-framed engine implementing
// api.Engine. Peers greet with "HELLO <name>", exchange text lines and say
// "BYE" before closing. It is what cmd/lpump speaks and what the pump's
// integration tests drive.
package protocol
