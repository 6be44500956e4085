package moderation

import "regexp"

// Таблица запрещённых ссылок: инвайты WhatsApp, инвайты Telegram и
// известные сокращатели URL. Денилист, а не полноценный парсер.
var forbiddenLinkPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://chat\.whatsapp\.com/\S+`),
	regexp.MustCompile(`(?i)(https?://)?t\.me/\+?\S+`),
	regexp.MustCompile(`(?i)https?://(bit\.ly|tinyurl\.com|goo\.gl|t\.co|rebrand\.ly)/\S+`),
}

// IsForbidden сообщает, содержит ли текст ссылку из запрещённого списка.
func IsForbidden(text string) bool {
	if text == "" {
		return false
	}
	for _, pattern := range forbiddenLinkPatterns {
		if pattern.MatchString(text) {
			return true
		}
	}
	return false
}
