package model

// Message is a rendered notification ready for delivery through one transport.
type Message struct {
	Title       string
	Body        string
	Attachments []string // Local file paths of downloaded assets
}
