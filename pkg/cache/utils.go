package cache

import (
	"fmt"
	"strings"
)

// GenerateKeyWithParams joins prefix and params with ':', e.g.
// forecast:<file>:<days>.
func GenerateKeyWithParams(prefix string, params ...interface{}) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, p := range params {
		b.WriteByte(':')
		fmt.Fprint(&b, p)
	}
	return b.String()
}
