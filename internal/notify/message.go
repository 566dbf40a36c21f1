// Package notify renders verdict notifications. Delivery lives in the ses
// and noop subpackages.
package notify

import (
	"fmt"
	"html"
	"strings"

	"housingreview/internal/domain"
)

// Message is a rendered verdict e-mail.
type Message struct {
	Subject string
	HTML    string
	Text    string
}

var statusLabels = map[domain.VerdictStatus]string{
	domain.VerdictEligible:    "적격",
	domain.VerdictConditional: "보완 필요",
	domain.VerdictExcluded:    "제외",
}

// StatusLabel returns the Korean label of a verdict status.
func StatusLabel(s domain.VerdictStatus) string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return string(s)
}

// ReviewURL links to the review page of the web frontend.
func ReviewURL(frontendURL string, review *domain.Review) string {
	return fmt.Sprintf("%s/reviews/%s", strings.TrimRight(frontendURL, "/"), review.ID)
}

// BuildVerdictMessage renders the notification for a finished review.
func BuildVerdictMessage(review *domain.Review, verdict *domain.Verdict, frontendURL string) Message {
	label := StatusLabel(verdict.Status)
	link := ReviewURL(frontendURL, review)
	subject := fmt.Sprintf("[매입심사] 신청번호 %s 심사 결과: %s", review.ApplicationNo, label)

	var text strings.Builder
	fmt.Fprintf(&text, "신청번호 %s 의 서류 심사가 완료되었습니다.\n\n결과: %s\n", review.ApplicationNo, label)
	if len(verdict.Supplementary) > 0 {
		text.WriteString("\n보완 서류:\n")
		for _, s := range verdict.Supplementary {
			fmt.Fprintf(&text, "- %s (%s)\n", s.Name, s.Reason)
		}
	}
	if verdict.Status == domain.VerdictExcluded {
		text.WriteString("\n제외 사유:\n")
		for _, r := range verdict.Results {
			if r.Status == domain.RuleStatusExcluded {
				fmt.Fprintf(&text, "- [%s] %s\n", r.RuleID, strings.Join(r.Messages, "; "))
			}
		}
	}
	fmt.Fprintf(&text, "\n상세 결과: %s\n", link)

	var items strings.Builder
	for _, s := range verdict.Supplementary {
		fmt.Fprintf(&items, "    <li><strong>%s</strong> %s</li>\n",
			html.EscapeString(s.Name), html.EscapeString(s.Reason))
	}
	supplementBlock := ""
	if items.Len() > 0 {
		supplementBlock = "  <p>보완 서류:</p>\n  <ul>\n" + items.String() + "  </ul>\n"
	}

	body := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">서류 심사 결과: %s</h2>
  <p>신청번호 %s 의 서류 심사가 완료되었습니다.</p>
%s  <p style="text-align: center; margin: 30px 0;">
    <a href="%s" style="background-color: #4F46E5; color: white; padding: 12px 24px; text-decoration: none; border-radius: 6px; display: inline-block;">상세 결과 보기</a>
  </p>
</body>
</html>`, html.EscapeString(label), html.EscapeString(review.ApplicationNo), supplementBlock, html.EscapeString(link))

	return Message{Subject: subject, HTML: body, Text: text.String()}
}
