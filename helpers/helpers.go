package helpers

import (
	// Go Internal Packages
	"encoding/json"
	"fmt"
	"strconv"
)

// PrintStruct prints a given struct in pretty format with indent
func PrintStruct(v any) {
	res, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(res))
}

// FormatAmount renders an XAF amount with thousands separators for
// terminal output: 15000 -> "15 000 XAF".
func FormatAmount(amount int64) string {
	s := strconv.FormatInt(amount, 10)
	var out []byte
	for i, c := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, c)
	}
	return string(out) + " XAF"
}
