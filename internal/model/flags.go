package model

// FeatureFlags are the capabilities a user's plan grants. A row always
// mirrors one plan template exactly.
type FeatureFlags struct {
	UserID                   string `db:"user_id" json:"user_id"`
	CanUseCustomDomain       bool   `db:"can_use_custom_domain" json:"can_use_custom_domain"`
	CanRemoveBranding        bool   `db:"can_remove_branding" json:"can_remove_branding"`
	CanUseGradients          bool   `db:"can_use_gradients" json:"can_use_gradients"`
	CanUseBackgroundImage    bool   `db:"can_use_background_image" json:"can_use_background_image"`
	CanUseVideoHeader        bool   `db:"can_use_video_header" json:"can_use_video_header"`
	CanUseCustomFonts        bool   `db:"can_use_custom_fonts" json:"can_use_custom_fonts"`
	CanUseButtonStyles       bool   `db:"can_use_button_styles" json:"can_use_button_styles"`
	CanUseSections           bool   `db:"can_use_sections" json:"can_use_sections"`
	CanUseSocialIcons        bool   `db:"can_use_social_icons" json:"can_use_social_icons"`
	CanFeatureLinks          bool   `db:"can_feature_links" json:"can_feature_links"`
	CanUseThumbnails         bool   `db:"can_use_thumbnails" json:"can_use_thumbnails"`
	CanUseLinkCovers         bool   `db:"can_use_link_covers" json:"can_use_link_covers"`
	CanUseLinkDescriptions   bool   `db:"can_use_link_descriptions" json:"can_use_link_descriptions"`
	CanScheduleRedirect      bool   `db:"can_schedule_redirect" json:"can_schedule_redirect"`
	CanCollectSubscribers    bool   `db:"can_collect_subscribers" json:"can_collect_subscribers"`
	CanExportSubscribers     bool   `db:"can_export_subscribers" json:"can_export_subscribers"`
	CanUseLeadGate           bool   `db:"can_use_lead_gate" json:"can_use_lead_gate"`
	CanViewAnalytics         bool   `db:"can_view_analytics" json:"can_view_analytics"`
	CanViewAdvancedAnalytics bool   `db:"can_view_advanced_analytics" json:"can_view_advanced_analytics"`
	PrioritySupport          bool   `db:"priority_support" json:"priority_support"`
	MaxLinks                 int    `db:"max_links" json:"max_links"`
}
