package stdlib

import (
	"bufio"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/wudi/soc/registry"
	"github.com/wudi/soc/values"
)

// registerIO wires the io group: a single blocking line-read
// from process stdin. The underlying *bufio.Reader is shared across
// calls (not reconstructed per call) so buffered-ahead bytes from one
// `input()` aren't dropped before the next.
func registerIO(reg *registry.Registry) {
	var once sync.Once
	var stdin *bufio.Reader
	reader := func() *bufio.Reader {
		once.Do(func() { stdin = bufio.NewReader(os.Stdin) })
		return stdin
	}

	reg.Register("input", 0, func(ctx registry.CallContext, args []*values.Value) (*values.Value, error) {
		line, err := reader().ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, values.ThrowKind("RuntimeError", "input: "+err.Error())
		}
		return values.NewString(strings.TrimRight(line, "\r\n")), nil
	})
}
