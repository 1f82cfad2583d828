package validations

import (
	"context"
	"fmt"
	"strconv"

	domainAgent "github.com/AzielCF/az-agent/agents/domain"
	domainLead "github.com/AzielCF/az-agent/leads/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// ValidateLead checks the lead itself plus the capture rules configured on its agent.
func ValidateLead(ctx context.Context, lead *domainLead.Lead, agent *domainAgent.Agent) error {
	contact := &lead.ContactInfo
	err := validation.ValidateStructWithContext(ctx, contact,
		validation.Field(&contact.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&contact.Email, validation.Required, is.EmailFormat),
		validation.Field(&contact.Phone, validation.Length(0, 40)),
	)
	if err != nil {
		return pkgError.ValidationError(fmt.Sprintf("contactInfo: %s", err.Error()))
	}

	if err := validation.Validate(lead.Status, validation.By(func(v any) error {
		if s, _ := v.(domainLead.Status); !s.Valid() {
			return fmt.Errorf("unknown status %q", s)
		}
		return nil
	})); err != nil {
		return pkgError.ValidationError(err.Error())
	}

	if agent != nil && agent.LeadCapture.Enabled {
		if err := validateCaptureRules(lead, agent.LeadCapture); err != nil {
			return pkgError.ValidationError(err.Error())
		}
	}

	return nil
}

func validateCaptureRules(lead *domainLead.Lead, cfg domainAgent.LeadCaptureConfig) error {
	for _, f := range cfg.RequiredFields {
		var value string
		switch f {
		case domainAgent.LeadFieldPhone:
			value = lead.ContactInfo.Phone
		case domainAgent.LeadFieldCompany:
			value = lead.ContactInfo.Company
		default:
			continue
		}
		if value == "" {
			return fmt.Errorf("%s is required", f)
		}
	}

	values := make(map[string]string, len(lead.CustomFields))
	for _, cf := range lead.CustomFields {
		values[cf.Name] = cf.Value
	}
	for _, def := range cfg.CustomFields {
		value, ok := values[def.Name]
		if !ok || value == "" {
			if def.Required {
				return fmt.Errorf("custom field %s is required", def.Name)
			}
			continue
		}
		if err := validateCustomValue(def, value); err != nil {
			return fmt.Errorf("custom field %s: %w", def.Name, err)
		}
	}
	return nil
}

func validateCustomValue(def domainAgent.CustomFieldDef, value string) error {
	switch def.Type {
	case domainAgent.CustomFieldNumber:
		if _, err := strconv.ParseFloat(value, 64); err != nil {
			return fmt.Errorf("must be a number")
		}
	case domainAgent.CustomFieldEmail:
		return validation.Validate(value, is.EmailFormat)
	case domainAgent.CustomFieldSelect:
		for _, opt := range def.Options {
			if opt == value {
				return nil
			}
		}
		return fmt.Errorf("must be one of the configured options")
	}
	return nil
}

// ValidateConversationEntry requires a message and a known sender.
func ValidateConversationEntry(entry domainLead.ConversationEntry) error {
	err := validation.ValidateStruct(&entry,
		validation.Field(&entry.Message, validation.Required),
		validation.Field(&entry.Sender, validation.Required,
			validation.In(domainLead.SenderUser, domainLead.SenderAgent)),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}
	return nil
}
