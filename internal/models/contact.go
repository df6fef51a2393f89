package models

// ContactMessage stores a contact form submission before it is relayed
// to the owner's inbox, so a failed relay can be recovered from the
// admin list.
type ContactMessage struct {
	Base
	Name      string `json:"name"    gorm:"size:128;not null"`
	Email     string `json:"email"   gorm:"size:191;not null"`
	Subject   string `json:"subject" gorm:"size:256"`
	Message   string `json:"message" gorm:"type:text;not null"`
	IPAddress string `json:"-"       gorm:"size:64"`
	UserAgent string `json:"-"       gorm:"size:512"`
	Relayed   bool   `json:"relayed" gorm:"default:false"`
}

func (ContactMessage) TableName() string { return "contact_messages" }
