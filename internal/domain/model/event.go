package model

// Event is an inbound update already classified by the transport adapter.
// The set of implementations is closed: Command, ContentMessage, ProtocolReply, ButtonPress.
type Event interface {
	// Chat is the chat the event originated in, used to report failures.
	Chat() int64
	// From is the account that triggered the event.
	From() Sender
	isEvent()
}

// Command is a "/name arg..." message. Text keeps the message as typed and
// RepliedToID is set when the command was sent as a reply.
type Command struct {
	Name        string
	Args        []string
	Text        string
	Sender      Sender
	ChatID      int64
	MessageID   int
	RepliedToID int
}

// ContentMessage is any non-command message that is not a reply.
type ContentMessage struct {
	Sender    Sender
	ChatID    int64
	MessageID int
	Content   Content
}

// ProtocolReply is a message sent as a Telegram reply to RepliedToID.
type ProtocolReply struct {
	Sender      Sender
	ChatID      int64
	MessageID   int
	RepliedToID int
	Content     Content
}

// ButtonPress is an inline-keyboard callback pressed under AnchorMessageID.
type ButtonPress struct {
	CallbackID      string
	Data            string
	Presser         Sender
	ChatID          int64
	AnchorMessageID int
}

func (e Command) Chat() int64        { return e.ChatID }
func (e ContentMessage) Chat() int64 { return e.ChatID }
func (e ProtocolReply) Chat() int64  { return e.ChatID }
func (e ButtonPress) Chat() int64    { return e.ChatID }

func (e Command) From() Sender        { return e.Sender }
func (e ContentMessage) From() Sender { return e.Sender }
func (e ProtocolReply) From() Sender  { return e.Sender }
func (e ButtonPress) From() Sender    { return e.Presser }

func (Command) isEvent()        {}
func (ContentMessage) isEvent() {}
func (ProtocolReply) isEvent()  {}
func (ButtonPress) isEvent()    {}

// EventType names the event for logs and metrics.
func EventType(e Event) string {
	switch e.(type) {
	case Command:
		return "command"
	case ContentMessage:
		return "content"
	case ProtocolReply:
		return "reply"
	case ButtonPress:
		return "button"
	}
	return "unknown"
}
