package tree

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// ParseMode разбирает права доступа в восьмеричной записи: 644, 0644, 0o644.
func ParseMode(s string) (os.FileMode, error) {
	ss := strings.TrimSpace(s)
	ss = strings.TrimPrefix(strings.TrimPrefix(ss, "0o"), "0O")
	if ss == "" {
		return 0, fmt.Errorf("пустые права доступа")
	}
	u, err := strconv.ParseUint(ss, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("права %q: ожидается восьмеричное число", s)
	}
	if u > 0o777 {
		return 0, fmt.Errorf("права %q вне диапазона 0..777", s)
	}
	return os.FileMode(u), nil
}
