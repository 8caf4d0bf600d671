package extract

// Metric keys produced by the default vocabulary.
const (
	ProposedImpressions = "proposed.impressions"
	ProposedEngagements = "proposed.engagements"
	ProposedInfluencers = "proposed.influencers"

	SocialPosts      = "organic.social_posts"
	TotalEngagements = "organic.total_engagements"
	TotalImpressions = "organic.total_impressions"
	TotalLikes       = "organic.total_likes"
	TotalComments    = "organic.total_comments"
	TotalShares      = "organic.total_shares"
	TotalSaves       = "organic.total_saves"
	OrganicViews     = "organic.views"
	OrganicReach     = "organic.reach"
	Paid             = "organic.paid"

	ProgramER = "program.er"

	CPE       = "paid.cpe"
	CPC       = "paid.cpc"
	CTR       = "paid.ctr"
	CPM       = "paid.cpm"
	ThruPlays = "paid.thruplays"

	VideoQ25  = "video.q25"
	VideoQ50  = "video.q50"
	VideoQ75  = "video.q75"
	VideoQ100 = "video.q100"

	C2CTransfers = "c2c.transfers"
	C2CValue     = "c2c.value"
	Diversity    = "diversity"

	EngagementsIncrease = "increase.engagements"
	ImpressionsIncrease = "increase.impressions"
)

// Column aliases the vocabulary resolves through the alias map.
const (
	AliasOrganicLabel  = "organic_label"
	AliasOrganicValue  = "organic_value"
	AliasIncreaseValue = "increase_value"
)

// ProposedAnchor heads the three-row proposed metrics block.
const ProposedAnchor = "Proposed Metrics"

// DefaultAliases maps aliases to the column ids of the standard export.
func DefaultAliases() map[string]string {
	return map[string]string{
		AliasOrganicLabel:  "Organic & Total",
		AliasOrganicValue:  "Unnamed: 11",
		AliasIncreaseValue: "Unnamed: 15",
	}
}

// Lookup selects the locator operation a Spec uses.
type Lookup int

const (
	// ByRow scans the LabelColumn alias and reads the ValueColumn alias.
	ByRow Lookup = iota
	// ByPosition scans column LabelIndex and reads column ValueIndex.
	ByPosition
	// Adjacent takes the cell right of the first occurrence of a label.
	Adjacent
	// Fixed reads Row of the ValueColumn alias.
	Fixed
	// AdjacentBelow is Adjacent confined to the column of an Anchors entry,
	// at or below it. Anchors are tried in order.
	AdjacentBelow
)

// Spec describes how one metric is found. Labels are tried in order and the
// first hit wins.
type Spec struct {
	Key         string
	Lookup      Lookup
	Labels      []string
	LabelColumn string
	ValueColumn string
	LabelIndex  int
	ValueIndex  int
	Row         int
	Anchors     []string
	// Format is applied at extraction time; empty keeps the raw cell.
	Format string
}

// ProposedLabels maps block row labels to metric keys.
var ProposedLabels = []struct {
	Label string
	Key   string
}{
	{"Impressions", ProposedImpressions},
	{"Engagements", ProposedEngagements},
	{"Influencers", ProposedInfluencers},
}

func organic(key string, labels ...string) Spec {
	return Spec{Key: key, Lookup: ByRow, Labels: labels, LabelColumn: AliasOrganicLabel, ValueColumn: AliasOrganicValue}
}

// PaidAnchors head the paid media block that holds the video quartiles.
var PaidAnchors = []string{"ThruPlays", "CPE", "CPC", "CTR", "CPM"}

func quartile(key, label string) Spec {
	return Spec{Key: key, Lookup: AdjacentBelow, Labels: []string{label}, Anchors: PaidAnchors}
}

func adjacent(key, label string) Spec {
	return Spec{Key: key, Lookup: Adjacent, Labels: []string{label}}
}

// DefaultVocabulary returns the metric table of the standard recap export.
func DefaultVocabulary() []Spec {
	return []Spec{
		organic(SocialPosts, "Total Number of Posts With Stories"),
		organic(TotalEngagements, "Total Engagements"),
		organic(TotalImpressions, "Total Impressions", "Total"),
		organic(TotalLikes, "Total Likes"),
		organic(TotalComments, "Total Comments"),
		organic(TotalShares, "Total Shares"),
		organic(TotalSaves, "Total Saves"),
		organic(OrganicViews, "Organic (Views)"),
		organic(OrganicReach, "Organic (Reach)"),
		organic(Paid, "Paid"),
		{Key: ProgramER, Lookup: ByPosition, Labels: []string{"Program ER"}, LabelIndex: 0, ValueIndex: 1},
		adjacent(CPE, "CPE"),
		adjacent(CPC, "CPC"),
		adjacent(CTR, "CTR"),
		adjacent(CPM, "CPM"),
		adjacent(ThruPlays, "ThruPlays"),
		quartile(VideoQ25, "0.25"),
		quartile(VideoQ50, "0.5"),
		quartile(VideoQ75, "0.75"),
		quartile(VideoQ100, "1"),
		adjacent(C2CTransfers, "C2C Transfers"),
		adjacent(C2CValue, "C2C Value"),
		adjacent(Diversity, "Diversity"),
		{Key: EngagementsIncrease, Lookup: Fixed, ValueColumn: AliasIncreaseValue, Row: 5},
		{Key: ImpressionsIncrease, Lookup: Fixed, ValueColumn: AliasIncreaseValue, Row: 4},
	}
}
