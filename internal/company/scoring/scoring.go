// Package scoring folds source signals into an authenticity score, risk
// classification, flags, and an inferred company type.
//
// This is pure domain logic - no I/O, no clocks, no side effects. The same
// inputs always produce bit-for-bit identical output, which the aggregator
// relies on for cache coherence and the tests rely on for determinism.
package scoring

import (
	"strings"

	"github.com/DEMONNN69/knowyourcompany/internal/company"
	strutil "github.com/DEMONNN69/knowyourcompany/pkg/platform/strings"
)

const (
	baselineScore    = 50.0
	sentimentWeight  = 25.0
	ratingWeight     = 25.0
	lowVolumePenalty = 0.9
	lowVolumeCutoff  = 3
	scoreFloor       = 0.0
	scoreCeiling     = 100.0
	riskLowThreshold = 75.0
	riskMedThreshold = 50.0
)

// Flag identifiers. Additive; they feed risk classification but never the
// numeric score.
const (
	FlagNoExternalSignals   = "no_external_signals"
	FlagLimitedSignals      = "limited_signals"
	FlagNoLinkedInPage      = "no_linkedin_page"
	FlagNoGlassdoorPresence = "no_glassdoor_presence"
	FlagNoWebsiteProvided   = "no_website_provided"
	FlagCourseAsInternship  = "course_marketed_as_internship"
)

// criticalFlags force high risk regardless of the numeric score.
var criticalFlags = map[string]struct{}{
	FlagCourseAsInternship: {},
}

// Keyword tables for snippet sentiment when a signal carries no explicit label.
var negativeKeywords = []string{
	"scam", "fraud", "fake", "unpaid", "no stipend",
	"certificate only", "pay to", "waste of time", "regret",
	"never hire", "avoid", "terrible", "worst", "ripoff",
	"deceptive", "misleading", "false promises",
}

var positiveKeywords = []string{
	"good learning", "helpful", "supportive", "got stipend",
	"valuable", "recommended", "genuine", "legit", "trustworthy",
	"professional", "excellent", "great experience", "worth it",
}

// Company type indicators, checked in priority order; first match wins.
var companyTypeKeywords = []struct {
	companyType company.CompanyType
	keywords    []string
}{
	{company.TypeTraining, []string{"training", "course", "bootcamp", "academy", "institute", "coaching"}},
	{company.TypeEdTech, []string{"edtech", "online learning", "e-learning", "digital learning", "skill"}},
	{company.TypeStaffing, []string{"recruitment", "staffing", "manpower", "placement agency", "placement"}},
	{company.TypeITServices, []string{"it services", "software development", "consulting", "tech solutions"}},
}

// Platforms whose numeric ratings count toward the rating contribution.
var ratingPlatforms = map[company.Source]struct{}{
	company.SourceGlassdoor:   {},
	company.SourceAmbitionBox: {},
}

// Meta carries the request context the rules need beyond the signals.
type Meta struct {
	Name     string
	Website  string
	Category string
}

// Result is the scoring outcome. Score is nil when no evidence was available.
type Result struct {
	Score       *float64
	Risk        company.Risk
	CompanyType *company.CompanyType
	Flags       []string
}

// Score applies the fixed rule set to the given signals.
//
// Order of operations: baseline, sentiment contribution, rating contribution,
// volume adjustment, flags, risk. The order is part of the contract - the
// volume penalty multiplies the already-adjusted score.
func Score(signals []company.Signal, meta Meta) Result {
	if len(signals) == 0 {
		// No evidence at all: the score is absent rather than a sentinel
		// number, and risk cannot be classified.
		flags := []string{FlagNoExternalSignals}
		if meta.Website == "" {
			flags = append(flags, FlagNoWebsiteProvided)
		}
		return Result{
			Score: nil,
			Risk:  company.RiskUnknown,
			Flags: strutil.DedupeAndTrim(flags),
		}
	}

	score := baselineScore
	score += sentimentContribution(signals)
	score += ratingContribution(signals)

	if len(signals) < lowVolumeCutoff {
		score *= lowVolumePenalty
	}

	companyType := inferCompanyType(signals, meta)
	flags := collectFlags(signals, meta, companyType)
	risk := classifyRisk(score, flags)

	score = clamp(score, scoreFloor, scoreCeiling)
	return Result{
		Score:       &score,
		Risk:        risk,
		CompanyType: companyType,
		Flags:       flags,
	}
}

// sentimentContribution is (positive - negative) / classified * weight, and 0
// when no signal could be classified.
func sentimentContribution(signals []company.Signal) float64 {
	var positive, negative, classified int
	for _, sig := range signals {
		tally, ok := classifySignal(sig)
		if !ok {
			continue
		}
		classified++
		switch {
		case tally > 0:
			positive++
		case tally < 0:
			negative++
		}
	}
	if classified == 0 {
		return 0
	}
	return float64(positive-negative) / float64(classified) * sentimentWeight
}

// classifySignal maps a signal to a sentiment tally. Signals with an explicit
// label use it; otherwise the snippet keyword tables decide. Signals with
// neither are unclassified and excluded from the denominator.
func classifySignal(sig company.Signal) (int, bool) {
	switch sig.Sentiment {
	case company.SentimentPositive:
		return 1, true
	case company.SentimentNegative:
		return -1, true
	case company.SentimentMixed, company.SentimentNeutral:
		return 0, true
	}

	if sig.Snippet == "" {
		return 0, false
	}
	text := strings.ToLower(sig.Snippet)
	var pos, neg int
	for _, kw := range positiveKeywords {
		if strings.Contains(text, kw) {
			pos++
		}
	}
	for _, kw := range negativeKeywords {
		if strings.Contains(text, kw) {
			neg++
		}
	}
	switch {
	case pos > neg:
		return 1, true
	case neg > pos:
		return -1, true
	default:
		return 0, true
	}
}

// ratingContribution averages ratings from review platforms and normalizes the
// 0-5 scale onto the rating weight. 0 when no ratings are present.
func ratingContribution(signals []company.Signal) float64 {
	var sum float64
	var count int
	for _, sig := range signals {
		if sig.Rating == nil {
			continue
		}
		if _, ok := ratingPlatforms[sig.Source]; !ok {
			continue
		}
		sum += *sig.Rating
		count++
	}
	if count == 0 {
		return 0
	}
	return (sum / float64(count)) / 5.0 * ratingWeight
}

func collectFlags(signals []company.Signal, meta Meta, companyType *company.CompanyType) []string {
	var flags []string

	if len(signals) < lowVolumeCutoff {
		flags = append(flags, FlagLimitedSignals)
	}

	present := make(map[company.Source]struct{}, len(signals))
	for _, sig := range signals {
		present[sig.Source] = struct{}{}
	}
	if _, ok := present[company.SourceLinkedIn]; !ok {
		flags = append(flags, FlagNoLinkedInPage)
	}
	if _, ok := present[company.SourceGlassdoor]; !ok {
		flags = append(flags, FlagNoGlassdoorPresence)
	}
	if meta.Website == "" {
		flags = append(flags, FlagNoWebsiteProvided)
	}

	if hasCourseAsInternshipPattern(signals, companyType) {
		flags = append(flags, FlagCourseAsInternship)
	}

	return strutil.DedupeAndTrim(flags)
}

// hasCourseAsInternshipPattern matches the known bait pattern for training and
// edtech outfits: the same snippet advertising a course and an internship or
// placement.
func hasCourseAsInternshipPattern(signals []company.Signal, companyType *company.CompanyType) bool {
	if companyType == nil {
		return false
	}
	if *companyType != company.TypeTraining && *companyType != company.TypeEdTech {
		return false
	}
	for _, sig := range signals {
		if sig.Snippet == "" {
			continue
		}
		text := strings.ToLower(sig.Snippet)
		mentionsCourse := strings.Contains(text, "course") || strings.Contains(text, "training")
		mentionsPlacement := strings.Contains(text, "internship") || strings.Contains(text, "placement")
		if mentionsCourse && mentionsPlacement {
			return true
		}
	}
	return false
}

func classifyRisk(score float64, flags []string) company.Risk {
	for _, flag := range flags {
		if _, critical := criticalFlags[flag]; critical {
			return company.RiskHigh
		}
	}

	switch {
	case score >= riskLowThreshold:
		return company.RiskLow
	case score >= riskMedThreshold:
		return company.RiskMedium
	default:
		// Everything below the medium band is high risk once evidence
		// exists; the zero-evidence case returns before this point.
		return company.RiskHigh
	}
}

// inferCompanyType evaluates the keyword tables over the name, category hint,
// and snippets. First match in priority order wins; nil when nothing matches.
func inferCompanyType(signals []company.Signal, meta Meta) *company.CompanyType {
	var b strings.Builder
	b.WriteString(meta.Name)
	b.WriteByte(' ')
	b.WriteString(meta.Category)
	for _, sig := range signals {
		if sig.Snippet != "" {
			b.WriteByte(' ')
			b.WriteString(sig.Snippet)
		}
	}
	combined := strings.ToLower(b.String())

	for _, entry := range companyTypeKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(combined, kw) {
				t := entry.companyType
				return &t
			}
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
