package render

import (
	"biolink/internal/model"
)

type LinkView struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Description   string `json:"description,omitempty"`
	ThumbnailURL  string `json:"thumbnail_url,omitempty"`
	CoverURL      string `json:"cover_url,omitempty"`
	Featured      bool   `json:"featured"`
	RequiresEmail bool   `json:"requires_email"`
}

type SectionView struct {
	ID    string     `json:"id"`
	Title string     `json:"title"`
	Links []LinkView `json:"links"`
}

type Theme struct {
	BackgroundType     string `json:"background_type"`
	BackgroundColor    string `json:"background_color"`
	GradientFrom       string `json:"gradient_from,omitempty"`
	GradientTo         string `json:"gradient_to,omitempty"`
	BackgroundImageURL string `json:"background_image_url,omitempty"`
	TextColor          string `json:"text_color"`
	FontFamily         string `json:"font_family"`
	ButtonStyle        string `json:"button_style"`
	ButtonColor        string `json:"button_color"`
	ButtonTextColor    string `json:"button_text_color"`
}

type SubscribePrompt struct {
	ProfileID string `json:"profile_id"`
	Title     string `json:"title"`
	Button    string `json:"button"`
}

// Page is the view model of a public page.
type Page struct {
	ProfileID      string             `json:"profile_id"`
	Username       string             `json:"username"`
	DisplayName    string             `json:"display_name"`
	Bio            string             `json:"bio"`
	AvatarURL      string             `json:"avatar_url"`
	Theme          Theme              `json:"theme"`
	HeaderVideoURL string             `json:"header_video_url,omitempty"`
	Socials        []model.SocialLink `json:"socials"`
	Unsectioned    []LinkView         `json:"unsectioned"`
	Sections       []SectionView      `json:"sections"`
	Subscribe      *SubscribePrompt   `json:"subscribe,omitempty"`
	ShowBranding   bool               `json:"show_branding"`
	AppURL         string             `json:"app_url"`
}

// Build applies entitlement gating and section partitioning to a bundle.
func Build(p model.Profile, b Bundle, appURL string) *Page {
	f, s := b.Flags, b.Settings

	page := &Page{
		ProfileID:    p.ID,
		Username:     p.Username,
		DisplayName:  p.DisplayName,
		Bio:          p.Bio,
		AvatarURL:    p.AvatarURL,
		Theme:        theme(f, s),
		Socials:      []model.SocialLink{},
		ShowBranding: !(f.CanRemoveBranding && s.HideBranding),
		AppURL:       appURL,
	}
	if page.DisplayName == "" {
		page.DisplayName = p.Username
	}

	if f.CanUseSocialIcons && s.ShowSocialIcons {
		page.Socials = append(page.Socials, b.Socials...)
	}
	if f.CanUseVideoHeader && s.HeaderVideoURL != "" {
		page.HeaderVideoURL = s.HeaderVideoURL
	}
	if f.CanCollectSubscribers && s.ShowSubscriberForm {
		page.Subscribe = &SubscribePrompt{ProfileID: p.ID, Title: s.SubscriberTitle, Button: s.SubscriberButton}
	}

	page.Unsectioned, page.Sections = partition(b.Links, b.Sections, f)
	return page
}

// partition splits links into unsectioned and per-section groups. Sections
// keep their order and empty ones are dropped. Without the sections
// capability every link is unsectioned.
func partition(links []model.Link, sections []model.LinkSection, f model.FeatureFlags) ([]LinkView, []SectionView) {
	unsectioned := []LinkView{}
	grouped := make(map[string][]LinkView, len(sections))
	known := make(map[string]bool, len(sections))
	for _, s := range sections {
		known[s.ID] = true
	}

	for _, l := range links {
		v := linkView(l, f)
		if f.CanUseSections && l.SectionID != nil && known[*l.SectionID] {
			grouped[*l.SectionID] = append(grouped[*l.SectionID], v)
			continue
		}
		unsectioned = append(unsectioned, v)
	}

	out := []SectionView{}
	for _, s := range sections {
		if len(grouped[s.ID]) == 0 {
			continue
		}
		out = append(out, SectionView{ID: s.ID, Title: s.Title, Links: grouped[s.ID]})
	}
	return unsectioned, out
}

func linkView(l model.Link, f model.FeatureFlags) LinkView {
	v := LinkView{ID: l.ID, Title: l.Title, URL: l.URL}
	if f.CanUseLinkDescriptions {
		v.Description = l.Description
	}
	if f.CanUseThumbnails {
		v.ThumbnailURL = l.ThumbnailURL
	}
	if f.CanUseLinkCovers {
		v.CoverURL = l.CoverURL
	}
	v.Featured = f.CanFeatureLinks && l.IsFeatured
	v.RequiresEmail = f.CanUseLeadGate && l.RequiresEmail
	return v
}

// theme falls back to the default look for every paid option the flags no longer grant.
func theme(f model.FeatureFlags, s model.PageSettings) Theme {
	def := model.DefaultSettings("")
	t := Theme{
		BackgroundType:  model.BackgroundSolid,
		BackgroundColor: orDefault(s.BackgroundColor, def.BackgroundColor),
		TextColor:       orDefault(s.TextColor, def.TextColor),
		FontFamily:      def.FontFamily,
		ButtonStyle:     def.ButtonStyle,
		ButtonColor:     orDefault(s.ButtonColor, def.ButtonColor),
		ButtonTextColor: orDefault(s.ButtonTextColor, def.ButtonTextColor),
	}

	switch {
	case s.BackgroundType == model.BackgroundGradient && f.CanUseGradients:
		t.BackgroundType = model.BackgroundGradient
		t.GradientFrom = orDefault(s.GradientFrom, t.BackgroundColor)
		t.GradientTo = orDefault(s.GradientTo, t.BackgroundColor)
	case s.BackgroundType == model.BackgroundImage && f.CanUseBackgroundImage && s.BackgroundImageURL != "":
		t.BackgroundType = model.BackgroundImage
		t.BackgroundImageURL = s.BackgroundImageURL
	}
	if f.CanUseCustomFonts && s.FontFamily != "" {
		t.FontFamily = s.FontFamily
	}
	if f.CanUseButtonStyles && s.ButtonStyle != "" {
		t.ButtonStyle = s.ButtonStyle
	}
	return t
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
