package dto

// TwilioInboundMessage is the form payload Twilio posts on an inbound
// WhatsApp message. Field names follow Twilio's parameter casing.
type TwilioInboundMessage struct {
	MessageSID  string `json:"MessageSid" form:"MessageSid"`
	AccountSID  string `json:"AccountSid" form:"AccountSid"`
	From        string `json:"From" form:"From"`
	To          string `json:"To" form:"To"`
	Body        string `json:"Body" form:"Body"`
	ProfileName string `json:"ProfileName" form:"ProfileName"`
	NumMedia    string `json:"NumMedia" form:"NumMedia"`
}

// WebhookIntakeResponse reports the ticket created from an inbound message
type WebhookIntakeResponse struct {
	Message  string `json:"message"`
	TicketID uint   `json:"ticket_id"`
}
