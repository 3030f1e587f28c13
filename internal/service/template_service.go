// internal/service/template_service.go
package service

import (
	"fmt"
	"strings"
)

const (
	ConfirmationSubject  = "Thank you for backing {campaign_title}"
	ConfirmationTemplate = `Hi {first_name},

Thank you for your pledge of {amount} to {campaign_title}.
Reward: {reward_title}

We will keep you posted with updates as the campaign progresses.`
)

// RenderTemplate replaces {key} placeholders. Empty values render as "N/A".
func RenderTemplate(template string, data map[string]string) string {
	result := template
	for k, v := range data {
		if strings.TrimSpace(v) == "" {
			v = "N/A"
		}
		result = strings.ReplaceAll(result, "{"+k+"}", v)
	}
	return result
}

// FormatAmount renders minor units as "25.00 USD".
func FormatAmount(amount int64, currency string) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return strings.TrimSpace(fmt.Sprintf("%s%d.%02d %s", sign, amount/100, amount%100, strings.ToUpper(currency)))
}
