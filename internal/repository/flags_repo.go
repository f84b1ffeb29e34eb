package repository

import (
	"context"
	"fmt"
	"strings"

	"biolink/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
)

type FlagsRepository interface {
	// GetFlags returns nil, nil when the user has no flags row.
	GetFlags(ctx context.Context, userID string) (*model.FeatureFlags, error)
	// Replace overwrites every flag column with f.
	Replace(ctx context.Context, f model.FeatureFlags) error
}

type flagsRepo struct {
	pool *pgxpool.Pool
}

func NewFlagsRepo(pool *pgxpool.Pool) FlagsRepository {
	return &flagsRepo{pool: pool}
}

var flagColumns = []string{
	"can_use_custom_domain",
	"can_remove_branding",
	"can_use_gradients",
	"can_use_background_image",
	"can_use_video_header",
	"can_use_custom_fonts",
	"can_use_button_styles",
	"can_use_sections",
	"can_use_social_icons",
	"can_feature_links",
	"can_use_thumbnails",
	"can_use_link_covers",
	"can_use_link_descriptions",
	"can_schedule_redirect",
	"can_collect_subscribers",
	"can_export_subscribers",
	"can_use_lead_gate",
	"can_view_analytics",
	"can_view_advanced_analytics",
	"priority_support",
	"max_links",
}

// flagFields returns pointers to f's fields in flagColumns order.
func flagFields(f *model.FeatureFlags) []any {
	return []any{
		&f.CanUseCustomDomain,
		&f.CanRemoveBranding,
		&f.CanUseGradients,
		&f.CanUseBackgroundImage,
		&f.CanUseVideoHeader,
		&f.CanUseCustomFonts,
		&f.CanUseButtonStyles,
		&f.CanUseSections,
		&f.CanUseSocialIcons,
		&f.CanFeatureLinks,
		&f.CanUseThumbnails,
		&f.CanUseLinkCovers,
		&f.CanUseLinkDescriptions,
		&f.CanScheduleRedirect,
		&f.CanCollectSubscribers,
		&f.CanExportSubscribers,
		&f.CanUseLeadGate,
		&f.CanViewAnalytics,
		&f.CanViewAdvancedAnalytics,
		&f.PrioritySupport,
		&f.MaxLinks,
	}
}

var (
	selectFlagsSQL  = `SELECT user_id, ` + strings.Join(flagColumns, ", ") + ` FROM feature_flags WHERE user_id = $1`
	replaceFlagsSQL = buildReplaceFlagsSQL()
)

func buildReplaceFlagsSQL() string {
	placeholders := make([]string, len(flagColumns))
	updates := make([]string, len(flagColumns))
	for i, col := range flagColumns {
		placeholders[i] = fmt.Sprintf("$%d", i+2)
		updates[i] = col + " = EXCLUDED." + col
	}
	return `INSERT INTO feature_flags (user_id, ` + strings.Join(flagColumns, ", ") + `)
		VALUES ($1, ` + strings.Join(placeholders, ", ") + `)
		ON CONFLICT (user_id) DO UPDATE SET ` + strings.Join(updates, ", ") + `, updated_at = NOW()`
}

func (r *flagsRepo) GetFlags(ctx context.Context, userID string) (*model.FeatureFlags, error) {
	var f model.FeatureFlags
	dest := append([]any{&f.UserID}, flagFields(&f)...)
	if err := r.pool.QueryRow(ctx, selectFlagsSQL, userID).Scan(dest...); err != nil {
		if IsNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("getting flags for user %s: %w", userID, err)
	}
	return &f, nil
}

func (r *flagsRepo) Replace(ctx context.Context, f model.FeatureFlags) error {
	return replaceFlags(ctx, r.pool, f)
}

func replaceFlags(ctx context.Context, db dbtx, f model.FeatureFlags) error {
	args := []any{f.UserID}
	for _, p := range flagFields(&f) {
		switch v := p.(type) {
		case *bool:
			args = append(args, *v)
		case *int:
			args = append(args, *v)
		}
	}
	if _, err := db.Exec(ctx, replaceFlagsSQL, args...); err != nil {
		return fmt.Errorf("replacing flags for user %s: %w", f.UserID, err)
	}
	return nil
}
