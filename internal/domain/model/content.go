package model

// ContentKind enumerates the message kinds the relay knows how to carry.
// The list is flat on purpose: every kind maps to exactly one send call.
type ContentKind string

const (
	KindText        ContentKind = "text"
	KindPhoto       ContentKind = "photo"
	KindDocument    ContentKind = "document"
	KindVideo       ContentKind = "video"
	KindVoice       ContentKind = "voice"
	KindAudio       ContentKind = "audio"
	KindSticker     ContentKind = "sticker"
	KindUnsupported ContentKind = "unsupported"
)

// Kinds lists every supported kind, unsupported last.
var Kinds = []ContentKind{
	KindText, KindPhoto, KindDocument, KindVideo, KindVoice, KindAudio, KindSticker, KindUnsupported,
}

// Content is the payload of a message. Which fields are meaningful depends on Kind:
// Text for text, FileID (+Caption) for media, FileName for documents, Title for audio.
type Content struct {
	Kind     ContentKind
	Text     string
	FileID   string
	Caption  string
	FileName string
	Title    string
}

// HasFile reports whether the kind is delivered by file reference.
func (k ContentKind) HasFile() bool {
	switch k {
	case KindPhoto, KindDocument, KindVideo, KindVoice, KindAudio, KindSticker:
		return true
	}
	return false
}

// AcceptsCaption reports whether Telegram lets the kind carry a caption and a keyboard.
func (k ContentKind) AcceptsCaption() bool {
	return k.HasFile() && k != KindSticker
}

func (k ContentKind) String() string { return string(k) }
