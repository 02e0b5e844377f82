package gmail

// Message represents a simplified Gmail message.
type Message struct {
	ID       string
	ThreadID string
	From     string
	To       string
	Subject  string
	Date     string
	Snippet  string
	Body     string
	Labels   []string
}

// ListResult holds a page-merged listing of messages.
type ListResult struct {
	Messages []*Message
	// Total is the store's estimate of matching messages, which may
	// exceed len(Messages).
	Total   int64
	HasMore bool
}

// OutgoingMessage represents an email to be sent.
type OutgoingMessage struct {
	To      []string
	Cc      []string
	Bcc     []string
	Subject string
	Body    string
}
