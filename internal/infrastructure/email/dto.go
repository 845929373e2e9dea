package email

type EmailRequest struct {
	To      []string // Recipients
	Cc      []string // Carbon copy (optional)
	Bcc     []string // Blind carbon copy (optional)
	Subject string
	Body    string // HTML or plain text
	IsHTML  bool
}

// RefundNotificationData describes a refund that reached a final status.
type RefundNotificationData struct {
	Email       string
	Username    string
	RefundID    string
	OrderNumber string
	Status      string // Complete or Denied
	Amount      string // fixed two decimals
	Currency    string
}
