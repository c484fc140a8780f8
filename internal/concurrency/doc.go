// File: internal/concurrency/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Concurrency primitives for hioload-pump. SerialQueue is the single-writer
// execution context every connection runs on.
package concurrency
