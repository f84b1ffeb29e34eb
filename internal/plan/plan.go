// Package plan maps billing plans to their fixed entitlement templates.
package plan

import (
	"fmt"

	"biolink/internal/model"
)

type Plan string

const (
	Free    Plan = "free"
	Starter Plan = "starter"
	Pro     Plan = "pro"
)

type Period string

const (
	Monthly Period = "monthly"
	Yearly  Period = "yearly"
)

// Valid reports whether p is one of the known plans.
func (p Plan) Valid() bool {
	switch p {
	case Free, Starter, Pro:
		return true
	}
	return false
}

// Template returns the complete flag set for p. Unknown plans get the free template.
func Template(p Plan) model.FeatureFlags {
	switch p {
	case Starter:
		return model.FeatureFlags{
			CanUseCustomDomain:       false,
			CanRemoveBranding:        true,
			CanUseGradients:          true,
			CanUseBackgroundImage:    true,
			CanUseVideoHeader:        false,
			CanUseCustomFonts:        true,
			CanUseButtonStyles:       true,
			CanUseSections:           true,
			CanUseSocialIcons:        true,
			CanFeatureLinks:          true,
			CanUseThumbnails:         true,
			CanUseLinkCovers:         false,
			CanUseLinkDescriptions:   true,
			CanScheduleRedirect:      false,
			CanCollectSubscribers:    true,
			CanExportSubscribers:     false,
			CanUseLeadGate:           false,
			CanViewAnalytics:         true,
			CanViewAdvancedAnalytics: false,
			PrioritySupport:          false,
			MaxLinks:                 50,
		}
	case Pro:
		return model.FeatureFlags{
			CanUseCustomDomain:       true,
			CanRemoveBranding:        true,
			CanUseGradients:          true,
			CanUseBackgroundImage:    true,
			CanUseVideoHeader:        true,
			CanUseCustomFonts:        true,
			CanUseButtonStyles:       true,
			CanUseSections:           true,
			CanUseSocialIcons:        true,
			CanFeatureLinks:          true,
			CanUseThumbnails:         true,
			CanUseLinkCovers:         true,
			CanUseLinkDescriptions:   true,
			CanScheduleRedirect:      true,
			CanCollectSubscribers:    true,
			CanExportSubscribers:     true,
			CanUseLeadGate:           true,
			CanViewAnalytics:         true,
			CanViewAdvancedAnalytics: true,
			PrioritySupport:          true,
			MaxLinks:                 1000,
		}
	default:
		return model.FeatureFlags{
			CanUseSocialIcons:      true,
			CanUseLinkDescriptions: true,
			CanViewAnalytics:       true,
			MaxLinks:               5,
		}
	}
}

// For returns p's template bound to userID.
func For(p Plan, userID string) model.FeatureFlags {
	f := Template(p)
	f.UserID = userID
	return f
}

// Default is the flag set used wherever a user has no flags row.
func Default(userID string) model.FeatureFlags {
	return For(Free, userID)
}

// Prices maps provider price ids to plans and back.
type Prices struct {
	StarterMonthly string
	StarterYearly  string
	ProMonthly     string
	ProYearly      string
}

// PriceFor returns the price id for a paid plan and period.
func (pr Prices) PriceFor(p Plan, period Period) (string, error) {
	var id string
	switch {
	case p == Starter && period == Monthly:
		id = pr.StarterMonthly
	case p == Starter && period == Yearly:
		id = pr.StarterYearly
	case p == Pro && period == Monthly:
		id = pr.ProMonthly
	case p == Pro && period == Yearly:
		id = pr.ProYearly
	default:
		return "", fmt.Errorf("no price for plan %q period %q", p, period)
	}
	if id == "" {
		return "", fmt.Errorf("price for plan %q period %q is not configured", p, period)
	}
	return id, nil
}

// PlanForPrice resolves the plan a purchased price belongs to.
func (pr Prices) PlanForPrice(priceID string) (Plan, error) {
	if priceID == "" {
		return "", fmt.Errorf("empty price id")
	}
	switch priceID {
	case pr.StarterMonthly, pr.StarterYearly:
		return Starter, nil
	case pr.ProMonthly, pr.ProYearly:
		return Pro, nil
	}
	return "", fmt.Errorf("unknown price id %q", priceID)
}
