package catalog

import (
	"fmt"
	"regexp"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"bookshelf/internal/models"
)

var nonDigits = regexp.MustCompile(`[^0-9]`)

// FormatISBN normalizes an ISBN-13 into its standard hyphenated form,
// e.g. 978-4-79817-723-6. Anything that does not clean up to 13 digits is
// reported as invalid rather than shown raw.
func FormatISBN(isbn string) string {
	if isbn == "" {
		return "N/A"
	}

	cleaned := nonDigits.ReplaceAllString(isbn, "")
	if len(cleaned) != 13 {
		return "N/A (invalid ISBN)"
	}

	return fmt.Sprintf("%s-%s-%s-%s-%s",
		cleaned[0:3],   // prefix, 978 or 979
		cleaned[3:4],   // registration group
		cleaned[4:9],   // registrant
		cleaned[9:12],  // publication
		cleaned[12:13], // check digit
	)
}

// DisplayTitle assembles the full display title: edition, dashed subtitle
// and the label classification suffix when present.
func DisplayTitle(book models.Book) string {
	title := book.Title
	if book.Edition != "" {
		title += " " + book.Edition
	}
	if book.SubTitle != "" {
		title += "  ―" + book.SubTitle
	}
	if book.ClassificationCode != "" {
		title += fmt.Sprintf(" (%s %s)", book.LabelName, book.ClassificationCode)
	}
	return title
}

var pricePrinter = message.NewPrinter(language.Japanese)

// FormatPrice renders a list price in yen with digit grouping, or a dash
// when no price is recorded.
func FormatPrice(price int) string {
	if price == 0 {
		return "-"
	}
	return pricePrinter.Sprintf("¥%d", price)
}
