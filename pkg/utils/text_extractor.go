package utils

import (
	"regexp"
	"strings"
)

var (
	emojiRe         = regexp.MustCompile(`[🔥👍⭐️📱📲💯🎁🎄🎀]+`)
	trailingParenRe = regexp.MustCompile(`\s*\([^)]*\)\s*$`)

	modelKeywords = []string{"iphone", "ipad", "macbook", "apple watch", "airpods"}

	modelPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(iPhone\s+\d+\s+(?:Pro|Pro Max|Plus|mini)?\s*\d+Gb\s+\w+)`),
		regexp.MustCompile(`(?i)(iPad\s+(?:Pro|Air|mini)?\s*\d+(?:th Gen)?\s+\d+Gb)`),
		regexp.MustCompile(`(?i)(MacBook\s+(?:Pro|Air)\s+\d+(?:\.\d+)?(?:\s+inch)?)`),
		regexp.MustCompile(`(?i)(Apple\s+Watch\s+Series\s+\w+(?:\s+\d+mm)?)`),
		regexp.MustCompile(`(?i)(AirPods\s+(?:Pro|Max)?(?:\s+\d+)?)`),
	}

	pricePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)Цена:?\s*(\d+[\s.,]?\d*)\s*(?:руб|р|₽|RUB)`),
		regexp.MustCompile(`(?i)(\d+[\s.,]?\d*)\s*(?:руб|р|₽|RUB)`),
		regexp.MustCompile(`(?i)стоимость:?\s*(\d+[\s.,]?\d*)\s*(?:руб|р|₽|RUB)`),
	}
)

// ExtractModelAndPrice pulls a product model name and a price out of
// free-form post text. The first line is treated as a title when it
// mentions a known product family; otherwise known model patterns are
// searched across the whole text. Either result may be empty.
func ExtractModelAndPrice(text string) (modelName, price string) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) > 0 {
		firstLine := strings.TrimSpace(emojiRe.ReplaceAllString(lines[0], ""))
		lower := strings.ToLower(firstLine)
		for _, keyword := range modelKeywords {
			if strings.Contains(lower, keyword) {
				modelName = strings.TrimSpace(trailingParenRe.ReplaceAllString(firstLine, ""))
				break
			}
		}
	}

	if modelName == "" {
		for _, pattern := range modelPatterns {
			if m := pattern.FindStringSubmatch(text); m != nil {
				modelName = strings.TrimSpace(m[1])
				break
			}
		}
	}

	for _, pattern := range pricePatterns {
		if m := pattern.FindStringSubmatch(text); m != nil {
			price = strings.ReplaceAll(m[1], " ", "")
			price = strings.ReplaceAll(price, ",", ".")
			price += "₽"
			break
		}
	}

	return modelName, price
}
