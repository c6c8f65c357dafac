// ABOUTME: Subset of the Bot Framework Activity schema the gateway handles
// ABOUTME: Tagged by Type; everything beyond message/conversationUpdate is passed through as opaque

package activity

// Activity types the dispatcher distinguishes. Anything else is acknowledged
// and ignored.
const (
	TypeMessage            = "message"
	TypeConversationUpdate = "conversationUpdate"
)

// Account identifies a conversation participant (user or bot).
type Account struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Conversation carries the opaque conversation identifier assigned by the
// channel.
type Conversation struct {
	ID string `json:"id"`
}

// Tenant is the Azure AD tenant a Teams user belongs to.
type Tenant struct {
	ID string `json:"id,omitempty"`
}

// TeamsUser carries the Teams-specific identity fields found in channelData.
type TeamsUser struct {
	UserPrincipalName string `json:"userPrincipalName,omitempty"`
	TenantID          string `json:"tenantId,omitempty"`
}

// ChannelData is the Teams-specific payload attached to inbound activities.
type ChannelData struct {
	Tenant    Tenant    `json:"tenant,omitempty"`
	TeamsUser TeamsUser `json:"teamsUser,omitempty"`
}

// Activity is one event in a Bot Framework conversation: a user message, a
// roster change, or something the gateway does not act on.
type Activity struct {
	Type         string       `json:"type"`
	ID           string       `json:"id,omitempty"`
	Text         string       `json:"text,omitempty"`
	From         Account      `json:"from,omitempty"`
	Recipient    Account      `json:"recipient,omitempty"`
	Conversation Conversation `json:"conversation,omitempty"`
	ServiceURL   string       `json:"serviceUrl,omitempty"`
	ChannelData  ChannelData  `json:"channelData,omitempty"`
	MembersAdded []Account    `json:"membersAdded,omitempty"`
}

// NewMessage builds an outbound message activity from the given bot identity.
func NewMessage(text string, from Account) *Activity {
	return &Activity{
		Type: TypeMessage,
		Text: text,
		From: from,
	}
}

// MemberAdded reports whether the account with the given ID appears in the
// activity's added-members list.
func (a *Activity) MemberAdded(accountID string) bool {
	for _, m := range a.MembersAdded {
		if m.ID == accountID {
			return true
		}
	}
	return false
}

// TenantID returns the tenant identifier from channelData, preferring the
// conversation-level tenant over the Teams user record.
func (a *Activity) TenantID() string {
	if a.ChannelData.Tenant.ID != "" {
		return a.ChannelData.Tenant.ID
	}
	return a.ChannelData.TeamsUser.TenantID
}
