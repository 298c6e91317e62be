package email

import "fmt"

const (
	subjectQuoteAcceptedFmt  = "Your quote for %q was accepted"
	subjectReviewReceivedFmt = "New review for %q"
)

func subjectFor(format, jobTitle string) string {
	return fmt.Sprintf(format, jobTitle)
}
