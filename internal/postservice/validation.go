package postservice

import (
	"regexp"

	"github.com/haiminhng/penwright/internal/common"
)

var scriptTagRX = regexp.MustCompile(`(?i)<\s*script[^>]*>(.*?)<\s*/\s*script\s*>`)

func sanitizeContent(content string) string {
	return scriptTagRX.ReplaceAllString(content, "")
}

func validateTitle(v *common.Validator, title string) {
	v.Check(title != "", "title", "must be provided")
	v.Check(v.CheckStringLength(title, 3, 150), "title", "must be between 3 and 150 characters long")
}

func validateSubtitle(v *common.Validator, subtitle string) {
	v.Check(subtitle != "", "subtitle", "must be provided")
	v.Check(v.CheckStringLength(subtitle, 3, 200), "subtitle", "must be between 3 and 200 characters long")
}

func validateContent(v *common.Validator, content string) {
	v.Check(content != "", "content", "must be provided")
}

func validateCategoryName(v *common.Validator, name string) {
	v.Check(name != "", "category", "must be provided")
	v.Check(v.CheckStringLength(name, 2, 50), "category", "must be between 2 and 50 characters long")
}

func validateInt(v *common.Validator, num int, name string) {
	v.Check(num > 0, name, "must be greater than zero")
}
