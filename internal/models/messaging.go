package models

// SMSRequest is the payload for single SMS and WhatsApp sends.
type SMSRequest struct {
	To      string `json:"to" validate:"required,min=10,max=20"`
	Message string `json:"message" validate:"required,min=1,max=1600"`
}

// BulkRecipient pairs a phone number with the student name substituted into
// the message template.
type BulkRecipient struct {
	Phone       string `json:"phone" validate:"required,min=10,max=20"`
	StudentName string `json:"student_name"`
}

// BulkSMSRequest is the payload for batched sends. The message may contain the
// {{ogrenci_adi}} placeholder, replaced per recipient.
type BulkSMSRequest struct {
	Recipients []BulkRecipient `json:"recipients" validate:"required,min=1,max=100,dive"`
	Message    string          `json:"message" validate:"required,min=1,max=1000"`
	Channel    string          `json:"channel" validate:"required,oneof=sms whatsapp"`
}

// EmailRequest is the payload for transactional email sends. The message may
// contain the {{ogrenci_adi}} placeholder, replaced with StudentName.
type EmailRequest struct {
	To          string `json:"to" validate:"required,email"`
	Subject     string `json:"subject" validate:"omitempty,max=200"`
	Message     string `json:"message" validate:"required,min=1,max=10000"`
	StudentName string `json:"student_name"`
}

// SendResult reports one dispatch outcome within a bulk batch.
type SendResult struct {
	Phone     string `json:"phone"`
	Success   bool   `json:"success"`
	MessageID string `json:"message_id,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BulkSummary aggregates a bulk dispatch. Partial failure is reported here,
// not as a request-level error.
type BulkSummary struct {
	Total      int          `json:"total"`
	Successful int          `json:"successful"`
	Failed     int          `json:"failed"`
	Results    []SendResult `json:"results"`
}
