// Package evidence implements the Evidence Extractor (spec.md §4.8):
// turning combined titles/snippets/content from ranked results into a
// structured Facts record via bilingual regex pattern matching.
//
// original_source/backend/ai/evidence/{extractor,patterns}.py are
// import-and-docstring stubs with no extraction algorithm, so the
// patterns here are authored directly from spec.md's field list,
// cross-checked against querygen.go's bilingual regex/mapping style
// for Hindi/English parity.
package evidence

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/dssahayak/search/internal/dssearch/model"
)

const serviceFee = 20.0

var lastDatePattern = regexp.MustCompile(`(?i)(last date|अंतिम तिथि|closing date)\s*[:\-]?\s*([0-9]{1,2}[\/\-\.][0-9]{1,2}[\/\-\.][0-9]{2,4})`)
var startDatePattern = regexp.MustCompile(`(?i)(start date|start|शुरू|आरंभ तिथि)\s*[:\-]?\s*([0-9]{1,2}[\/\-\.][0-9]{1,2}[\/\-\.][0-9]{2,4})`)
var examDatePattern = regexp.MustCompile(`(?i)(exam date|परीक्षा तिथि|test date)\s*[:\-]?\s*([0-9]{1,2}[\/\-\.][0-9]{1,2}[\/\-\.][0-9]{2,4})`)

var genericDatePattern = regexp.MustCompile(`[0-9]{1,2}[\/\-\.][0-9]{1,2}[\/\-\.][0-9]{2,4}`)

var govtFeePattern = regexp.MustCompile(`(?i)(application fee|आवेदन शुल्क|registration fee)\s*[:\-]?\s*(?:rs\.?|₹|रु\.?)?\s*([0-9,]+)`)

var categoryFeePatterns = map[string]*regexp.Regexp{
	"general": regexp.MustCompile(`(?i)(general|unreserved)\s*[:\-]?\s*(?:rs\.?|₹)?\s*([0-9,]+)`),
	"obc":     regexp.MustCompile(`(?i)obc\s*[:\-]?\s*(?:rs\.?|₹)?\s*([0-9,]+)`),
	"sc_st":   regexp.MustCompile(`(?i)(sc\s*/?\s*st|sc-st)\s*[:\-]?\s*(?:rs\.?|₹)?\s*([0-9,]+)`),
	"ews":     regexp.MustCompile(`(?i)ews\s*[:\-]?\s*(?:rs\.?|₹)?\s*([0-9,]+)`),
	"female":  regexp.MustCompile(`(?i)(female|महिला)\s*[:\-]?\s*(?:rs\.?|₹)?\s*([0-9,]+)`),
	"pwd":     regexp.MustCompile(`(?i)(pwd|divyang|दिव्यांग)\s*[:\-]?\s*(?:rs\.?|₹)?\s*([0-9,]+)`),
}

var ageLimitPattern = regexp.MustCompile(`(?i)age\s*(?:limit)?\s*[:\-]?\s*([0-9]{1,2})\s*(?:to|-|–|से)\s*([0-9]{1,2})\s*(?:years|वर्ष|साल)?`)

var vacancyPattern = regexp.MustCompile(`(?i)(total posts|vacancies|vacancy|रिक्तियां|पद)\s*[:\-]?\s*([0-9,]+)`)

var documentKeywords = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`(?i)aadhaar|आधार`), "Aadhaar Card"},
	{regexp.MustCompile(`(?i)pan\s*card|पैन कार्ड`), "PAN Card"},
	{regexp.MustCompile(`(?i)10th|tenth|दसवीं`), "10th Certificate"},
	{regexp.MustCompile(`(?i)12th|twelfth|बारहवीं`), "12th Certificate"},
	{regexp.MustCompile(`(?i)graduation|degree|स्नातक`), "Graduation Certificate"},
	{regexp.MustCompile(`(?i)domicile|निवास`), "Domicile Certificate"},
	{regexp.MustCompile(`(?i)caste certificate|जाति प्रमाण`), "Caste Certificate"},
	{regexp.MustCompile(`(?i)photo|फोटो`), "Passport Photo"},
	{regexp.MustCompile(`(?i)signature|हस्ताक्षर`), "Signature"},
}

var eligibilityKeywords = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`(?i)graduate|graduation|स्नातक`), "Graduate"},
	{regexp.MustCompile(`(?i)10\+2|12th pass|बारहवीं पास`), "12th Pass"},
	{regexp.MustCompile(`(?i)10th pass|दसवीं पास`), "10th Pass"},
	{regexp.MustCompile(`(?i)diploma|डिप्लोमा`), "Diploma"},
	{regexp.MustCompile(`(?i)post\s*graduate|स्नातकोत्तर`), "Post Graduate"},
	{regexp.MustCompile(`(?i)indian citizen|भारतीय नागरिक`), "Indian Citizen"},
}

var qualificationKeywords = []struct {
	pattern *regexp.Regexp
	label   string
}{
	{regexp.MustCompile(`(?i)b\.?tech|बी\.?टेक`), "B.Tech"},
	{regexp.MustCompile(`(?i)b\.?sc|बी\.?एससी`), "B.Sc"},
	{regexp.MustCompile(`(?i)b\.?a\b|बी\.?ए\b`), "B.A"},
	{regexp.MustCompile(`(?i)m\.?tech|एम\.?टेक`), "M.Tech"},
	{regexp.MustCompile(`(?i)mba|एमबीए`), "MBA"},
	{regexp.MustCompile(`(?i)iti\b|आईटीआई`), "ITI"},
}

var stateNamePattern = regexp.MustCompile(`(?i)(bihar|बिहार|uttar pradesh|उत्तर प्रदेश|madhya pradesh|मध्य प्रदेश|rajasthan|राजस्थान|maharashtra|महाराष्ट्र|gujarat|गुजरात|delhi|दिल्ली|haryana|हरियाणा|punjab|पंजाब|jharkhand|झारखंड|chhattisgarh|छत्तीसगढ़|odisha|ओडिशा|west bengal|पश्चिम बंगाल|tamil nadu|तमिलनाडु|karnataka|कर्नाटक|kerala|केरल|telangana|तेलंगाना|andhra pradesh|आंध्र प्रदेश|assam|असम)`)

var departmentPattern = regexp.MustCompile(`(?i)(ministry of [a-z ]+|department of [a-z ]+|railway board|ssc|upsc|ibps|rrb|[a-z]{2,6}\s*board)`)

var pdfLinkPattern = regexp.MustCompile(`(?i)\.pdf(?:\?.*)?$`)

// Extractor builds Facts records from combined result text.
type Extractor struct{}

// New returns an Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract builds a Facts seed from the top-ranked results, pairing
// title/snippet text mining with any links the results already carry.
// queryType comes from the Query Generator's classification.
func (e *Extractor) Extract(results []model.RankedResult, queryType model.QueryType) *model.Facts {
	if len(results) == 0 {
		return nil
	}

	var combined strings.Builder
	var links, pdfLinks []string
	var sourceURL string
	var sourceTrust float64

	for i, r := range results {
		if i >= 2 {
			break
		}
		combined.WriteString(r.Title)
		combined.WriteString(" ")
		combined.WriteString(r.Snippet)
		combined.WriteString(" ")
		combined.WriteString(r.Content)
		combined.WriteString(" ")
		for _, link := range r.Links {
			links = append(links, link)
			if pdfLinkPattern.MatchString(link) {
				pdfLinks = append(pdfLinks, link)
			}
		}
		if i == 0 {
			sourceURL = r.URL
			sourceTrust = r.Scores.Trust
		}
	}
	text := combined.String()

	facts := &model.Facts{
		Type:        queryType,
		Title:       results[0].Title,
		State:       detectState(text),
		Department:  detectDepartment(text),
		LastDate:    firstMatch(lastDatePattern, text),
		StartDate:   firstMatch(startDatePattern, text),
		ExamDate:    firstMatch(examDatePattern, text),
		Eligibility: matchLabels(eligibilityKeywords, text),
		AgeLimit:    extractAgeLimit(text),
		Qualifications: matchLabels(qualificationKeywords, text),
		Vacancies:   extractVacancies(text),
		Documents:   matchLabels(documentKeywords, text),
		Fees:        extractFees(text),
		Links:       links,
		PDFLinks:    pdfLinks,
		SourceURL:   sourceURL,
		SourceTrust: sourceTrust,
	}
	if facts.LastDate == "" {
		if m := genericDatePattern.FindString(text); m != "" {
			facts.LastDate = m
		}
	}

	facts.Confidence = confidence(facts)
	return facts
}

func firstMatch(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) >= 3 {
		return m[2]
	}
	return ""
}

func matchLabels(table []struct {
	pattern *regexp.Regexp
	label   string
}, text string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, entry := range table {
		if entry.pattern.MatchString(text) {
			if _, ok := seen[entry.label]; ok {
				continue
			}
			seen[entry.label] = struct{}{}
			out = append(out, entry.label)
		}
	}
	return out
}

func detectState(text string) string {
	m := stateNamePattern.FindString(text)
	return m
}

func detectDepartment(text string) string {
	m := departmentPattern.FindString(text)
	return strings.TrimSpace(m)
}

func extractAgeLimit(text string) *model.AgeLimit {
	m := ageLimitPattern.FindStringSubmatch(text)
	if len(m) < 3 {
		return nil
	}
	minAge, err1 := strconv.Atoi(m[1])
	maxAge, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil {
		return nil
	}
	return &model.AgeLimit{Min: minAge, Max: maxAge}
}

func extractVacancies(text string) *int {
	m := vacancyPattern.FindStringSubmatch(text)
	if len(m) < 3 {
		return nil
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
	if err != nil {
		return nil
	}
	return &n
}

func extractFees(text string) *model.FeeBreakdown {
	m := govtFeePattern.FindStringSubmatch(text)
	categoryWise := make(map[string]float64)
	for category, re := range categoryFeePatterns {
		if cm := re.FindStringSubmatch(text); len(cm) >= 2 {
			if v, err := strconv.ParseFloat(strings.ReplaceAll(cm[len(cm)-1], ",", ""), 64); err == nil {
				categoryWise[category] = v
			}
		}
	}
	if len(m) < 3 && len(categoryWise) == 0 {
		return nil
	}

	var govtFee float64
	if len(m) >= 3 {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[2], ",", ""), 64); err == nil {
			govtFee = v
		}
	}
	return &model.FeeBreakdown{
		GovtFee:      govtFee,
		ServiceFee:   serviceFee,
		Total:        govtFee + serviceFee,
		CategoryWise: categoryWise,
	}
}

// confidence computes spec.md §4.8's weighted signal sum, clamped [0,1].
func confidence(f *model.Facts) float64 {
	score := 0.0
	if f.Title != "" {
		score += 0.15
	}
	score += 0.25 * f.SourceTrust
	if f.LastDate != "" {
		score += 0.15
	}
	if len(f.Eligibility) > 0 {
		score += 0.10
	}
	if f.Fees != nil {
		score += 0.10
	}
	if len(f.Links) > 0 {
		score += 0.15
	}
	if f.Vacancies != nil {
		score += 0.05
	}
	if len(f.Documents) > 0 {
		score += 0.05
	}
	if score > 1.0 {
		score = 1.0
	}
	if score < 0 {
		score = 0
	}
	return score
}
