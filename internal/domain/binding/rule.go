package binding

import (
	"fmt"

	"github.com/okian/recapdeck/internal/domain/extract"
	"github.com/okian/recapdeck/internal/domain/format"
)

// Token selects how placeholders inside a run are substituted.
type Token string

const (
	// TokenHash replaces every "#" of a run containing "#".
	TokenHash Token = "hash"
	// TokenSentinelK replaces a sentinel number followed by "K", dropping the K.
	TokenSentinelK Token = "sentinel_k"
	// TokenIncrease fills "#%" with a percentage and bare "#" with the main value.
	TokenIncrease Token = "increase"
)

// Mode selects token substitution or whole-paragraph replacement.
type Mode string

const (
	ModeToken   Mode = "token"
	ModeReplace Mode = "replace"
)

// IncreaseMarker identifies the percentage runs of an increase rule.
const IncreaseMarker = "% increase"

// Input metric keys set by the caller rather than extracted from a dataset.
const (
	InputHeadline   = "input.headline"
	InputClient     = "input.client"
	InputReportDate = "input.report_date"
)

// Rule maps a region and phrase to a metric and a formatter.
type Rule struct {
	Name       string   `koanf:"name" json:"name"`
	Page       int      `koanf:"page" json:"page"`
	Region     string   `koanf:"region" json:"region"`
	Phrase     string   `koanf:"phrase" json:"phrase"`
	StartsWith bool     `koanf:"starts_with" json:"starts_with,omitempty"`
	Require    []string `koanf:"require" json:"require,omitempty"`
	Exclude    []string `koanf:"exclude" json:"exclude,omitempty"`
	Metric     string   `koanf:"metric" json:"metric"`
	Format     string   `koanf:"format" json:"format,omitempty"`
	Token      Token    `koanf:"token" json:"token,omitempty"`
	Sentinel   string   `koanf:"sentinel" json:"sentinel,omitempty"`
	MainMetric string   `koanf:"main_metric" json:"main_metric,omitempty"`
	MainFormat string   `koanf:"main_format" json:"main_format,omitempty"`
	Mode       Mode     `koanf:"mode" json:"mode,omitempty"`
}

// ImageRule places an uploaded image into a named picture shape.
type ImageRule struct {
	Name   string `koanf:"name" json:"name"`
	Page   int    `koanf:"page" json:"page"`
	Region string `koanf:"region" json:"region"`
	Key    string `koanf:"key" json:"key"`
}

// Validate checks that r can be executed.
func (r Rule) Validate() error {
	if r.Region == "" {
		return fmt.Errorf("%w: %s: region is required", ErrInvalidRule, r.Name)
	}
	if r.Metric == "" {
		return fmt.Errorf("%w: %s: metric is required", ErrInvalidRule, r.Name)
	}
	if r.Page < 0 {
		return fmt.Errorf("%w: %s: page must not be negative", ErrInvalidRule, r.Name)
	}
	switch r.Mode {
	case "", ModeToken, ModeReplace:
	default:
		return fmt.Errorf("%w: %s: unknown mode %q", ErrInvalidRule, r.Name, r.Mode)
	}
	switch r.Token {
	case "", TokenHash, TokenSentinelK, TokenIncrease:
	default:
		return fmt.Errorf("%w: %s: unknown token %q", ErrInvalidRule, r.Name, r.Token)
	}
	for _, f := range []string{r.Format, r.MainFormat} {
		if _, err := format.Lookup(f); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrInvalidRule, r.Name, err)
		}
	}
	return nil
}

// Validate checks that r can be executed.
func (r ImageRule) Validate() error {
	if r.Region == "" || r.Key == "" {
		return fmt.Errorf("%w: %s: region and key are required", ErrInvalidRule, r.Name)
	}
	return nil
}

// Recap slide layout of the standard template.
const (
	CoverPage    = 0
	OverviewPage = 3

	ProposedRegion = "TextBox 2"
	OverviewRegion = "TextBox 15"
	HeadlineRegion = "Title 1"
	CoverPicture   = "Picture 1"
)

// DefaultRules returns the rule table of the standard recap template. The
// order matters: within a region a paragraph is claimed by the first rule
// that matches it.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "proposed_influencers", Page: OverviewPage, Region: ProposedRegion, Phrase: "Proposed Influencers", Metric: extract.ProposedInfluencers},
		{Name: "proposed_engagements", Page: OverviewPage, Region: ProposedRegion, Phrase: "Proposed Engagements", Metric: extract.ProposedEngagements},
		{Name: "proposed_impressions", Page: OverviewPage, Region: ProposedRegion, Phrase: "Proposed Impressions", Metric: extract.ProposedImpressions},

		{Name: "social_posts", Page: OverviewPage, Region: OverviewRegion, Phrase: "Social Posts & Stories", Metric: extract.SocialPosts},
		{Name: "engagement_rate", Page: OverviewPage, Region: OverviewRegion, Phrase: "Engagement Rate", Metric: extract.ProgramER, Format: format.RateTruncate},
		{Name: "engagements", Page: OverviewPage, Region: OverviewRegion, Phrase: "Engagements", Exclude: []string{IncreaseMarker}, Metric: extract.TotalEngagements},
		{
			Name: "engagements_increase", Page: OverviewPage, Region: OverviewRegion, Phrase: "Engagements",
			Require: []string{IncreaseMarker}, Token: TokenIncrease,
			Metric: extract.EngagementsIncrease, Format: format.Percent, MainMetric: extract.TotalEngagements,
		},
		{
			Name: "impressions", Page: OverviewPage, Region: OverviewRegion, Phrase: "Impressions", StartsWith: true,
			Require: []string{"#"}, Exclude: []string{IncreaseMarker}, Metric: extract.ProposedImpressions,
		},
		{
			Name: "impressions_increase", Page: OverviewPage, Region: OverviewRegion, Phrase: "Impressions",
			Require: []string{IncreaseMarker}, Token: TokenIncrease,
			Metric: extract.ImpressionsIncrease, Format: format.Percent, MainMetric: extract.ProposedImpressions,
		},

		{Name: "headline", Page: CoverPage, Region: HeadlineRegion, Metric: InputHeadline, Mode: ModeReplace},
	}
}

// DefaultImageRules returns the picture slots of the standard template.
func DefaultImageRules() []ImageRule {
	return []ImageRule{
		{Name: "cover_image", Page: CoverPage, Region: CoverPicture, Key: "cover"},
	}
}
