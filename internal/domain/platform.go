package domain

// Platform represents the ingestion platform a signal arrived from.
type Platform string

const (
	PlatformTelegram  Platform = "TELEGRAM"
	PlatformTwitter   Platform = "TWITTER"
	PlatformWebsite   Platform = "WEBSITE"
	PlatformWebsocket Platform = "WEBSOCKET"
	PlatformManual    Platform = "MANUAL"
)

// String returns the string representation of Platform.
func (p Platform) String() string {
	return string(p)
}

// IsValid checks if the platform is a known value.
func (p Platform) IsValid() bool {
	switch p {
	case PlatformTelegram, PlatformTwitter, PlatformWebsite, PlatformWebsocket, PlatformManual:
		return true
	}
	return false
}
