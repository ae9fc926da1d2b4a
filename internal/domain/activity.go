package domain

// Bot Framework wire types for the /api/messages webhook and the outbound
// connector calls. Only the fields Share Now reads or writes are modeled.

// Activity is a single Bot Framework activity
type Activity struct {
	Type           string                   `json:"type"`
	ID             string                   `json:"id,omitempty"`
	ServiceURL     string                   `json:"serviceUrl,omitempty"`
	ChannelID      string                   `json:"channelId,omitempty"`
	Text           string                   `json:"text,omitempty"`
	From           *ChannelAccount          `json:"from,omitempty"`
	Recipient      *ChannelAccount          `json:"recipient,omitempty"`
	Conversation   *ConversationInfo        `json:"conversation,omitempty"`
	MembersAdded   []ChannelAccount         `json:"membersAdded,omitempty"`
	MembersRemoved []ChannelAccount         `json:"membersRemoved,omitempty"`
	ChannelData    *TeamsChannelData        `json:"channelData,omitempty"`
	Attachments    []Attachment             `json:"attachments,omitempty"`
	Name           string                   `json:"name,omitempty"`
	Value          *MessagingExtensionValue `json:"value,omitempty"`
}

// Activity type constants
const (
	ActivityTypeMessage            = "message"
	ActivityTypeConversationUpdate = "conversationUpdate"
	ActivityTypeInvoke             = "invoke"
)

// InvokeNameMessagingExtensionQuery is the invoke name for messaging
// extension search queries
const InvokeNameMessagingExtensionQuery = "composeExtension/query"

// ChannelAccount identifies a user or bot on a channel
type ChannelAccount struct {
	ID          string `json:"id"`
	Name        string `json:"name,omitempty"`
	AadObjectID string `json:"aadObjectId,omitempty"`
}

// ConversationInfo identifies the conversation an activity belongs to
type ConversationInfo struct {
	ID               string `json:"id"`
	ConversationType string `json:"conversationType,omitempty"`
	TenantID         string `json:"tenantId,omitempty"`
}

// TeamsChannelData carries Teams-specific context on an activity
type TeamsChannelData struct {
	Team      *TeamInfo   `json:"team,omitempty"`
	Tenant    *TenantInfo `json:"tenant,omitempty"`
	EventType string      `json:"eventType,omitempty"`
}

// TeamInfo identifies the team an activity originates from
type TeamInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// TenantInfo identifies the Azure AD tenant
type TenantInfo struct {
	ID string `json:"id"`
}

// Attachment wraps card content on an activity
type Attachment struct {
	ContentType string      `json:"contentType"`
	Content     interface{} `json:"content"`
	Preview     *Attachment `json:"preview,omitempty"`
}

// AdaptiveCardContentType is the attachment content type for Adaptive Cards
const AdaptiveCardContentType = "application/vnd.microsoft.card.adaptive"

// ThumbnailCardContentType is the attachment content type for thumbnail cards
const ThumbnailCardContentType = "application/vnd.microsoft.card.thumbnail"

// MessagingExtensionValue is the invoke payload of a compose extension query
type MessagingExtensionValue struct {
	CommandID    string                          `json:"commandId,omitempty"`
	Parameters   []MessagingExtensionParameter   `json:"parameters,omitempty"`
	QueryOptions *MessagingExtensionQueryOptions `json:"queryOptions,omitempty"`
}

// MessagingExtensionParameter is a single query parameter
type MessagingExtensionParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// MessagingExtensionQueryOptions carries paging hints from the Teams client
type MessagingExtensionQueryOptions struct {
	Skip  int `json:"skip"`
	Count int `json:"count"`
}

// MessagingExtensionResponse is the invoke response envelope
type MessagingExtensionResponse struct {
	ComposeExtension *MessagingExtensionResult `json:"composeExtension"`
}

// MessagingExtensionResult holds the attachments returned for a query
type MessagingExtensionResult struct {
	Type             string       `json:"type"`
	AttachmentLayout string       `json:"attachmentLayout,omitempty"`
	Attachments      []Attachment `json:"attachments"`
}

// AdaptiveCard is a minimal Adaptive Card document
type AdaptiveCard struct {
	Schema  string        `json:"$schema"`
	Type    string        `json:"type"`
	Version string        `json:"version"`
	Body    []interface{} `json:"body"`
	Actions []interface{} `json:"actions,omitempty"`
}

// AdaptiveCardSchema is the published card schema URL
const AdaptiveCardSchema = "http://adaptivecards.io/schemas/adaptive-card.json"

// AdaptiveCardVersion is the card version Share Now emits
const AdaptiveCardVersion = "1.2"

// TextBlock is an Adaptive Card text element
type TextBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Size     string `json:"size,omitempty"`
	Weight   string `json:"weight,omitempty"`
	Wrap     bool   `json:"wrap,omitempty"`
	IsSubtle bool   `json:"isSubtle,omitempty"`
	Spacing  string `json:"spacing,omitempty"`
}

// OpenURLAction is an Adaptive Card open-URL action
type OpenURLAction struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	URL   string `json:"url"`
}

// ThumbnailCard is a legacy hero-style card used for message previews
type ThumbnailCard struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
	Text     string `json:"text,omitempty"`
}
