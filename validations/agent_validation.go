package validations

import (
	"context"
	"fmt"

	domainAgent "github.com/AzielCF/az-agent/agents/domain"
	pkgError "github.com/AzielCF/az-agent/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var validWeekdays = map[string]bool{
	domainAgent.Monday: true, domainAgent.Tuesday: true, domainAgent.Wednesday: true,
	domainAgent.Thursday: true, domainAgent.Friday: true, domainAgent.Saturday: true, domainAgent.Sunday: true,
}

func ValidateAgent(ctx context.Context, agent *domainAgent.Agent) error {
	err := validation.ValidateStructWithContext(ctx, agent,
		validation.Field(&agent.Name, validation.Required, validation.Length(1, 120)),
		validation.Field(&agent.Language, validation.Required,
			validation.In(domainAgent.LanguageHebrew, domainAgent.LanguageEnglish, domainAgent.LanguageArabic)),
		validation.Field(&agent.Avatar, validation.By(validateAvatar)),
		validation.Field(&agent.LeadCapture, validation.By(validateLeadCapture)),
		validation.Field(&agent.AppointmentConfig, validation.By(validateAppointmentConfig)),
		validation.Field(&agent.WidgetConfig, validation.By(validateWidget)),
	)

	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	return nil
}

func validateAvatar(value any) error {
	avatar, _ := value.(domainAgent.Avatar)
	return validation.Validate(avatar.Type,
		validation.In(domainAgent.AvatarGallery, domainAgent.AvatarCustom, domainAgent.AvatarGenerated))
}

func validateLeadCapture(value any) error {
	cfg, _ := value.(domainAgent.LeadCaptureConfig)
	for _, f := range cfg.RequiredFields {
		if !f.Valid() {
			return fmt.Errorf("unknown required field %q", f)
		}
	}
	for _, cf := range cfg.CustomFields {
		if cf.Name == "" {
			return fmt.Errorf("custom field name is required")
		}
		if err := validation.Validate(cf.Type, validation.In(
			domainAgent.CustomFieldText, domainAgent.CustomFieldNumber, domainAgent.CustomFieldEmail,
			domainAgent.CustomFieldPhone, domainAgent.CustomFieldSelect)); err != nil {
			return fmt.Errorf("custom field %s: %w", cf.Name, err)
		}
	}
	return nil
}

func validateAppointmentConfig(value any) error {
	cfg, _ := value.(domainAgent.AppointmentConfig)
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be greater than 0")
	}
	for day, hours := range cfg.WorkingHours {
		if !validWeekdays[day] {
			return fmt.Errorf("unknown weekday %q", day)
		}
		if !hours.Enabled {
			continue
		}
		start, end, err := hours.Window()
		if err != nil {
			return fmt.Errorf("%s: %w", day, err)
		}
		if start >= end {
			return fmt.Errorf("%s: start must be before end", day)
		}
	}
	return nil
}

func validateWidget(value any) error {
	cfg, _ := value.(domainAgent.WidgetConfig)
	if err := validation.Validate(cfg.Position, validation.In(
		domainAgent.PositionBottomRight, domainAgent.PositionBottomLeft,
		domainAgent.PositionTopRight, domainAgent.PositionTopLeft)); err != nil {
		return fmt.Errorf("position: %w", err)
	}
	if err := validation.Validate(cfg.Size, validation.In(
		domainAgent.SizeSmall, domainAgent.SizeMedium, domainAgent.SizeLarge)); err != nil {
		return fmt.Errorf("size: %w", err)
	}
	return nil
}
