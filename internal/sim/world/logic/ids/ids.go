package ids

import (
	"fmt"
	"strconv"
	"strings"
)

func LandID(n uint64) string { return fmt.Sprintf("LAND_%d", n) }

func ParseLandNum(id string) (uint64, bool) {
	i := strings.LastIndexByte(id, '_')
	if i < 0 || i+1 >= len(id) {
		return 0, false
	}
	n, err := strconv.ParseUint(id[i+1:], 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}
