package service

import (
	"fmt"

	"biolink/internal/model"
	"biolink/internal/pipeline"
)

// Upsell messages returned when a plan does not grant a capability.
const (
	MsgSections        = "Link sections are available on Starter and Pro plans."
	MsgSocialIcons     = "Social icons are not available on your plan."
	MsgDescriptions    = "Link descriptions are not available on your plan."
	MsgThumbnails      = "Link thumbnails are available on Starter and Pro plans."
	MsgCovers          = "Link cover images are available on the Pro plan."
	MsgFeatured        = "Featured links are available on Starter and Pro plans."
	MsgLeadGate        = "Email-gated links are available on the Pro plan."
	MsgGradients       = "Gradients are available on Starter and Pro plans."
	MsgBackgroundImage = "Background images are available on Starter and Pro plans."
	MsgVideoHeader     = "Video headers are available on the Pro plan."
	MsgCustomFonts     = "Custom fonts are available on Starter and Pro plans."
	MsgButtonStyles    = "Button styles are available on Starter and Pro plans."
	MsgBranding        = "Removing branding is available on Starter and Pro plans."
	MsgRedirect        = "Scheduled redirects are available on the Pro plan."
	MsgSubscribers     = "Subscriber collection is available on Starter and Pro plans."
	MsgExport          = "Subscriber export is available on the Pro plan."
	MsgCustomDomain    = "Custom domains are available on the Pro plan."
)

func linkLimitMessage(max int) string {
	return fmt.Sprintf("Your plan allows up to %d links. Upgrade to add more.", max)
}

// linkGates checks the optional link fields a request sets against f.
// Clearing a field or switching it off is always allowed.
func linkGates(f model.FeatureFlags, description, thumbnail, cover, sectionID *string, featured, requiresEmail *bool) error {
	checks := []struct {
		set     bool
		allowed bool
		msg     string
	}{
		{nonEmpty(description), f.CanUseLinkDescriptions, MsgDescriptions},
		{nonEmpty(thumbnail), f.CanUseThumbnails, MsgThumbnails},
		{nonEmpty(cover), f.CanUseLinkCovers, MsgCovers},
		{nonEmpty(sectionID), f.CanUseSections, MsgSections},
		{isTrue(featured), f.CanFeatureLinks, MsgFeatured},
		{isTrue(requiresEmail), f.CanUseLeadGate, MsgLeadGate},
	}
	for _, c := range checks {
		if c.set {
			if err := pipeline.Require(c.allowed, c.msg); err != nil {
				return err
			}
		}
	}
	return nil
}

func nonEmpty(s *string) bool { return s != nil && *s != "" }

func isTrue(b *bool) bool { return b != nil && *b }
