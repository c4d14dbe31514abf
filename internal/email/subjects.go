package email

const subjectLeadAssigned = "New lead assigned to you"
