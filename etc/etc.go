package etc

import (
	"fmt"

	"github.com/google/uuid"
)

func NewFreshID() string {
	return uuid.NewString()
}

// FormatDuration renders a second count the way the bot replies show it.
func FormatDuration(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	return fmt.Sprintf("%d seconds", seconds)
}
