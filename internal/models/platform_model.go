package models

const (
	PlatformVK        = "vk"
	PlatformTelegram  = "telegram"
	PlatformInstagram = "instagram"
)

// Platforms returns the known platforms in publication order.
func Platforms() []string {
	return []string{PlatformVK, PlatformTelegram, PlatformInstagram}
}

// IsValidPlatform reports whether the identifier names a known platform.
func IsValidPlatform(platform string) bool {
	switch platform {
	case PlatformVK, PlatformTelegram, PlatformInstagram:
		return true
	}
	return false
}
