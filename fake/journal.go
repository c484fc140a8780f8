// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package fake

import "fmt"

// Journal records lifecycle calls across fakes so tests can assert order.
type Journal struct {
	Entries []string
}

// Add appends a formatted entry. A nil Journal ignores the call.
func (j *Journal) Add(format string, args ...any) {
	if j == nil {
		return
	}
	j.Entries = append(j.Entries, fmt.Sprintf(format, args...))
}
