// Package binding applies a MetricSet to the editable regions of a deck
// through a declarative rule table.
package binding

import (
	"context"
	"fmt"

	"github.com/okian/recapdeck/internal/domain/format"
	"github.com/okian/recapdeck/internal/domain/model"
	"github.com/okian/recapdeck/pkg/logger"
)

// Run is a text fragment with uniform formatting.
type Run interface {
	Text() string
	SetText(string)
}

// Paragraph is an ordered list of runs. Text includes non-editable
// fragments such as fields.
type Paragraph interface {
	Text() string
	Runs() []Run
}

// Region is a named text shape on a page.
type Region interface {
	Name() string
	Paragraphs() []Paragraph
}

// Picture is a named image shape on a page.
type Picture interface {
	Replace(data []byte) error
}

// Deck exposes the regions and pictures of a document by page and name.
type Deck interface {
	Region(page int, name string) (Region, bool)
	Picture(page int, name string) (Picture, bool)
}

// Binder executes rule tables. It keeps no state between calls.
type Binder struct {
	log logger.Logger
}

// Option configures a Binder.
type Option func(*Binder)

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(b *Binder) {
		if l != nil {
			b.log = l
		}
	}
}

// New returns a Binder.
func New(opts ...Option) *Binder {
	b := &Binder{log: logger.Nop()}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

type claim struct {
	page      int
	region    string
	paragraph int
}

// Bind applies rules in order and returns one result per rule. A paragraph
// is claimed by the first rule of its region that matches it. Template
// mismatches are reported, not returned; the only error is a cancelled
// context.
func (b *Binder) Bind(ctx context.Context, deck Deck, rules []Rule, set *model.MetricSet) ([]model.FieldResult, error) {
	claimed := make(map[claim]bool)
	results := make([]model.FieldResult, 0, len(rules))
	for _, rule := range rules {
		if err := ctx.Err(); err != nil {
			return results, fmt.Errorf("bind %s: %w", rule.Name, err)
		}
		res := b.apply(ctx, deck, rule, set, claimed)
		if res.Status == model.FieldTemplateMiss {
			b.log.Warn(ctx, "template field not found",
				logger.String("rule", rule.Name),
				logger.Int("page", rule.Page),
				logger.String("region", rule.Region),
				logger.String("phrase", rule.Phrase))
		}
		results = append(results, res)
	}
	return results, nil
}

func (b *Binder) apply(ctx context.Context, deck Deck, rule Rule, set *model.MetricSet, claimed map[claim]bool) model.FieldResult {
	value := format.Apply(rule.Format, set.Value(rule.Metric))
	res := model.FieldResult{
		Rule:   rule.Name,
		Page:   rule.Page,
		Region: rule.Region,
		Metric: rule.Metric,
		Value:  value,
		Status: model.FieldTemplateMiss,
	}
	region, ok := deck.Region(rule.Page, rule.Region)
	if !ok {
		return res
	}
	main := ""
	if rule.MainMetric != "" {
		main = format.Apply(rule.MainFormat, set.Value(rule.MainMetric))
	}

	matched := false
	for i, para := range region.Paragraphs() {
		key := claim{page: rule.Page, region: rule.Region, paragraph: i}
		if claimed[key] || !rule.Matches(para.Text()) {
			continue
		}
		claimed[key] = true
		if rule.Mode == ModeReplace {
			// The first paragraph with runs takes the value; later matching
			// paragraphs are blanked so the region reads as the value alone.
			if matched {
				res.Runs += blankParagraph(para, value)
				continue
			}
			if len(para.Runs()) > 0 {
				matched = true
			}
			res.Runs += replaceParagraph(para, value)
			continue
		}
		for _, run := range para.Runs() {
			if text, ok := Substitute(rule.Token, rule.Sentinel, run.Text(), value, main); ok {
				run.SetText(text)
				res.Runs++
				matched = true
			}
		}
		b.log.Debug(ctx, "paragraph bound", logger.String("rule", rule.Name), logger.Int("paragraph", i))
	}

	switch {
	case !matched:
	case value == "" && main == "":
		res.Status = model.FieldBlank
	default:
		res.Status = model.FieldFilled
	}
	return res
}

// replaceParagraph writes value into the first run and blanks the rest. An
// empty value leaves the template text in place.
func replaceParagraph(para Paragraph, value string) int {
	runs := para.Runs()
	if len(runs) == 0 || value == "" {
		return 0
	}
	runs[0].SetText(value)
	for _, r := range runs[1:] {
		r.SetText("")
	}
	return len(runs)
}

// blankParagraph empties every run of para. An empty value leaves the
// template text in place, matching replaceParagraph.
func blankParagraph(para Paragraph, value string) int {
	if value == "" {
		return 0
	}
	runs := para.Runs()
	for _, r := range runs {
		r.SetText("")
	}
	return len(runs)
}

// BindImages replaces pictures with uploaded images keyed by ImageRule.Key.
// A missing upload keeps the template's placeholder graphic.
func (b *Binder) BindImages(ctx context.Context, deck Deck, rules []ImageRule, images map[string][]byte) ([]model.FieldResult, []model.Note) {
	var (
		results []model.FieldResult
		notes   []model.Note
	)
	for _, rule := range rules {
		res := model.FieldResult{Rule: rule.Name, Page: rule.Page, Region: rule.Region, Metric: rule.Key, Status: model.FieldTemplateMiss}
		pic, ok := deck.Picture(rule.Page, rule.Region)
		data, uploaded := images[rule.Key]
		switch {
		case !ok:
			b.log.Warn(ctx, "template picture not found", logger.String("rule", rule.Name), logger.String("region", rule.Region))
		case !uploaded || len(data) == 0:
			res.Status = model.FieldBlank
		default:
			if err := pic.Replace(data); err != nil {
				b.log.Warn(ctx, "image not placed", logger.String("rule", rule.Name), logger.Error(err))
				notes = append(notes, model.Note{Kind: model.NoteImageMissing, Detail: fmt.Sprintf("%s: %v", rule.Key, err)})
				res.Status = model.FieldBlank
				break
			}
			res.Status = model.FieldFilled
			res.Runs = 1
		}
		results = append(results, res)
	}
	return results, notes
}
