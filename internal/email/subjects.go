package email

const (
	subjectLeadNotificationFmt = "%s (%s) - EdgeKidLead"
	titleLeadNotification      = "New Model Application Received"
	footerApplicationForm      = "Sent from TinyTalent Application Form"
)
