package application

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	agentDomain "github.com/AzielCF/az-agent/agents/domain"
	apptDomain "github.com/AzielCF/az-agent/appointments/domain"
	leadDomain "github.com/AzielCF/az-agent/leads/domain"
	"github.com/AzielCF/az-agent/notifications/domain"
	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const whenLayout = "Monday, January 2, 2006 at 15:04 MST"

type leadEmailData struct {
	AgentName    string
	Name         string
	Email        string
	Phone        string
	Company      string
	Source       string
	CustomFields []leadDomain.CustomFieldValue
}

type appointmentEmailData struct {
	AgentName   string
	Name        string
	When        string
	Relative    string
	Duration    int
	MeetingType string
	MeetingLink string
}

func render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func leadCapturedEmail(to string, agent *agentDomain.Agent, lead *leadDomain.Lead) (domain.Email, error) {
	data := leadEmailData{
		AgentName:    agent.Name,
		Name:         lead.ContactInfo.Name,
		Email:        lead.ContactInfo.Email,
		Phone:        lead.ContactInfo.Phone,
		Company:      lead.ContactInfo.Company,
		Source:       lead.Source,
		CustomFields: lead.CustomFields,
	}
	html, err := render("lead_captured.html", data)
	if err != nil {
		return domain.Email{}, err
	}
	return domain.Email{
		To:      to,
		Subject: fmt.Sprintf("New Lead Captured - %s", agent.Name),
		HTML:    html,
		Text:    fmt.Sprintf("New lead for %s: %s <%s>", agent.Name, data.Name, data.Email),
	}, nil
}

func appointmentData(agent *agentDomain.Agent, lead *leadDomain.Lead, appt *apptDomain.Appointment, now time.Time) appointmentEmailData {
	local := appt.ScheduledTime.In(agent.AppointmentConfig.Location())
	return appointmentEmailData{
		AgentName:   agent.Name,
		Name:        lead.ContactInfo.Name,
		When:        local.Format(whenLayout),
		Relative:    humanize.RelTime(appt.ScheduledTime, now, "ago", "from now"),
		Duration:    appt.Duration,
		MeetingType: string(appt.MeetingType),
		MeetingLink: appt.MeetingLink,
	}
}

func confirmationEmail(agent *agentDomain.Agent, lead *leadDomain.Lead, appt *apptDomain.Appointment, now time.Time) (domain.Email, error) {
	data := appointmentData(agent, lead, appt, now)
	html, err := render("appointment_confirmation.html", data)
	if err != nil {
		return domain.Email{}, err
	}
	return domain.Email{
		To:      lead.ContactInfo.Email,
		Subject: fmt.Sprintf("Appointment Confirmation - %s", agent.Name),
		HTML:    html,
		Text:    fmt.Sprintf("Your appointment with %s is confirmed for %s (%d minutes).", agent.Name, data.When, data.Duration),
	}, nil
}

func reminderEmail(agent *agentDomain.Agent, lead *leadDomain.Lead, appt *apptDomain.Appointment, now time.Time) (domain.Email, error) {
	data := appointmentData(agent, lead, appt, now)
	html, err := render("appointment_reminder.html", data)
	if err != nil {
		return domain.Email{}, err
	}
	return domain.Email{
		To:      lead.ContactInfo.Email,
		Subject: fmt.Sprintf("Appointment Reminder - %s", agent.Name),
		HTML:    html,
		Text:    fmt.Sprintf("Reminder: your appointment with %s starts %s, on %s.", agent.Name, data.Relative, data.When),
	}, nil
}
