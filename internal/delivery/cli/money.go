package cli

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/Dmitrij-bot/vinabook/internal/resource"
)

var vnPrinter = message.NewPrinter(language.Vietnamese)

// formatVND renders p with Vietnamese digit grouping, e.g. 68.000 ₫.
func formatVND(p resource.Price) string {
	return vnPrinter.Sprintf("%d ₫", int64(p))
}
