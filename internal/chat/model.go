package chat

import "workshopflow/internal/user"

// Message is one entry of the support thread. Field names match the stored blob.
type Message struct {
	ID         string    `json:"id"`
	Text       string    `json:"text"`
	Sender     string    `json:"sender"`
	SenderRole user.Role `json:"senderRole"`
	Timestamp  string    `json:"timestamp"`
	Date       string    `json:"date"`
}

const (
	timestampLayout = "15:04"
	dateLayout      = "1/2/2006"
)

// DisplayName resolves the sender label at send time.
func DisplayName(role user.Role, fullName string) string {
	if role == user.RoleAdmin {
		return "Admin"
	}
	if fullName != "" {
		return fullName
	}
	return "Student"
}

// SendMessageRequest is the body of POST /api/chat/messages
type SendMessageRequest struct {
	Text string `json:"text"`
}

// WidgetResponse is the chat widget as the caller sees it.
type WidgetResponse struct {
	Open     bool      `json:"open"`
	Messages []Message `json:"messages"`
}
