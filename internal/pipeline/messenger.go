package pipeline

// Messenger is the outbound messaging surface for one job's chat. The
// pipeline doesn't care which protocol sits behind it — it only needs
// replies, an editable status message, and voice-clip delivery.
type Messenger interface {
	// Recording signals "recording audio" activity to the chat.
	// Best-effort: failures are ignored by the implementation.
	Recording()

	// Reply sends a plain text message to the chat.
	Reply(text string) error

	// Announce creates an editable status message for a multi-segment job.
	Announce(text string) (Status, error)

	// SendVoice delivers the final encoded clip at path as a voice message.
	SendVoice(path string) error
}

// Status is an editable status message owned by one in-flight job.
type Status interface {
	// Edit replaces the message text.
	Edit(text string) error

	// Delete removes the message.
	Delete() error
}
