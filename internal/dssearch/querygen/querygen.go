// Package querygen implements the Query Generator (spec.md §4.4): turning
// one user utterance into 2-4 ranked search-query variants (Hindi,
// English, official-site-only, and a cleaned fallback), grounded on
// original_source/backend/ai/search/querygen.py.
package querygen

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dssahayak/search/internal/dssearch/model"
)

var fillerWordsHi = map[string]struct{}{
	"bhai": {}, "भाई": {}, "yaar": {}, "यार": {}, "please": {}, "प्लीज": {},
	"batao": {}, "बताओ": {}, "bata": {}, "बता": {}, "do": {}, "दो": {},
	"kya": {}, "क्या": {}, "hai": {}, "है": {}, "hain": {}, "हैं": {},
	"mujhe": {}, "मुझे": {}, "humko": {}, "हमको": {}, "hamein": {}, "हमें": {},
	"chahiye": {}, "चाहिए": {}, "chahie": {}, "dikhao": {}, "दिखाओ": {},
	"na": {}, "ना": {}, "ji": {}, "जी": {}, "sir": {}, "सर": {}, "madam": {}, "मैडम": {},
}

var fillerWordsEn = map[string]struct{}{
	"please": {}, "kindly": {}, "can": {}, "you": {}, "tell": {}, "me": {}, "about": {},
	"what": {}, "is": {}, "are": {}, "the": {}, "a": {}, "an": {}, "show": {}, "give": {},
	"i": {}, "want": {}, "need": {}, "looking": {}, "for": {}, "find": {}, "help": {},
}

type templateSet struct {
	hi, en, gov string
}

var jobTemplates = templateSet{
	hi:  "%s भर्ती %s %s अंतिम तिथि आधिकारिक वेबसाइट",
	en:  "%s recruitment %s %s last date official notification",
	gov: `site:gov.in %s recruitment %s notification %s`,
}

var yojanaTemplates = templateSet{
	hi:  "%s योजना पात्रता दस्तावेज आवेदन लिंक आधिकारिक",
	en:  "%s scheme eligibility documents apply link official",
	gov: `site:gov.in "%s" apply eligibility documents`,
}

var resultTemplates = templateSet{
	hi:  "%s रिजल्ट %s लिंक आधिकारिक",
	en:  "%s result %s official link direct",
	gov: `site:gov.in "%s" result %s`,
}

var admitCardTemplates = templateSet{
	hi:  "%s एडमिट कार्ड %s डाउनलोड लिंक",
	en:  "%s admit card %s download link official",
	gov: `site:gov.in "%s" admit card download %s`,
}

var cutoffTemplates = templateSet{
	hi:  "%s कटऑफ %s श्रेणीवार",
	en:  "%s cutoff %s category wise expected",
	gov: `site:gov.in "%s" cutoff marks %s`,
}

var syllabusTemplates = templateSet{
	hi:  "%s सिलेबस %s परीक्षा पैटर्न",
	en:  "%s syllabus %s exam pattern topics",
	gov: `site:gov.in "%s" syllabus exam pattern`,
}

var examPatterns = compileAll(
	`(ssc\s*(cgl|chsl|mts|gd|stenographer|je))`,
	`(upsc\s*(cse|ias|ips|nda|cds|capf|epfo))`,
	`(rrb\s*(ntpc|alp|je|group\s*d))`,
	`(ibps\s*(po|clerk|so|rrb))`,
	`(neet|jee\s*(main|advanced)?|gate|cat|mat)`,
	`(ctet|stet|tet|net|set)`,
	`(bihar\s*board|bseb|cbse|icse)`,
	`(police\s*(constable|si)|army|navy|airforce)`,
)

var yearPattern = regexp.MustCompile(`(202[4-9]|203[0-5])`)

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

// stateMapping and yojanaMapping share wording with trust.categoryMapping's
// STATES list and policy's yojanaKeywords, kept local since each package
// resolves a different normalized form (canonical display name here, not
// a boolean match).
var stateMapping = map[string]string{
	"bihar": "Bihar", "बिहार": "Bihar",
	"up": "Uttar Pradesh", "uttar pradesh": "Uttar Pradesh", "उत्तर प्रदेश": "Uttar Pradesh",
	"mp": "Madhya Pradesh", "madhya pradesh": "Madhya Pradesh", "मध्य प्रदेश": "Madhya Pradesh",
	"rajasthan": "Rajasthan", "राजस्थान": "Rajasthan",
	"maharashtra": "Maharashtra", "महाराष्ट्र": "Maharashtra",
	"gujarat": "Gujarat", "गुजरात": "Gujarat",
	"delhi": "Delhi", "दिल्ली": "Delhi",
	"haryana": "Haryana", "हरियाणा": "Haryana",
	"punjab": "Punjab", "पंजाब": "Punjab",
	"jharkhand": "Jharkhand", "झारखंड": "Jharkhand",
	"chhattisgarh": "Chhattisgarh", "छत्तीसगढ़": "Chhattisgarh",
	"odisha": "Odisha", "ओडिशा": "Odisha",
	"west bengal": "West Bengal", "पश्चिम बंगाल": "West Bengal",
	"tamil nadu": "Tamil Nadu", "तमिलनाडु": "Tamil Nadu",
	"karnataka": "Karnataka", "कर्नाटक": "Karnataka",
	"kerala": "Kerala", "केरल": "Kerala",
	"telangana": "Telangana", "तेलंगाना": "Telangana",
	"andhra pradesh": "Andhra Pradesh", "आंध्र प्रदेश": "Andhra Pradesh",
	"assam": "Assam", "असम": "Assam",
}

var yojanaMapping = map[string]string{
	"pm kisan": "PM Kisan Samman Nidhi", "पीएम किसान": "PM Kisan Samman Nidhi", "pmkisan": "PM Kisan Samman Nidhi",
	"ayushman": "Ayushman Bharat", "आयुष्मान": "Ayushman Bharat",
	"ujjwala": "PM Ujjwala Yojana", "उज्ज्वला": "PM Ujjwala Yojana",
	"mudra": "PM MUDRA Yojana", "मुद्रा": "PM MUDRA Yojana",
	"awas": "PM Awas Yojana", "आवास": "PM Awas Yojana",
	"jan dhan": "Jan Dhan Yojana", "जन धन": "Jan Dhan Yojana",
	"sukanya": "Sukanya Samriddhi Yojana", "सुकन्या": "Sukanya Samriddhi Yojana",
	"kaushal vikas": "PM Kaushal Vikas Yojana", "कौशल विकास": "PM Kaushal Vikas Yojana",
	"fasal bima": "PM Fasal Bima Yojana", "फसल बीमा": "PM Fasal Bima Yojana",
}

// entities is the per-query extraction result feeding every template.
type entities struct {
	exam    string
	state   string
	year    string
	yojana  string
	keyword string
}

// Generator produces GeneratedQuery variants for one user query.
type Generator struct {
	currentYear int
}

// New builds a Generator. currentYear defaults to the real current year
// when zero; pass an explicit year in tests for determinism.
func New(currentYear int) *Generator {
	if currentYear == 0 {
		currentYear = time.Now().Year()
	}
	return &Generator{currentYear: currentYear}
}

// CleanQuery strips filler words from both languages, mirroring
// clean_query's tokenise/strip-punctuation/filter loop.
func (g *Generator) CleanQuery(query string) string {
	words := strings.Fields(strings.ToLower(query))
	var cleaned []string
	for _, w := range words {
		trimmed := strings.Trim(w, "?!.,")
		if _, isHi := fillerWordsHi[trimmed]; isHi {
			continue
		}
		if _, isEn := fillerWordsEn[trimmed]; isEn {
			continue
		}
		cleaned = append(cleaned, trimmed)
	}
	return strings.Join(cleaned, " ")
}

// ExtractEntities mirrors extract_entities: exam, state, year, yojana and
// the main keyword (first token of the cleaned query).
func (g *Generator) ExtractEntities(query string) entities {
	lower := strings.ToLower(query)
	var e entities

	for _, re := range examPatterns {
		if m := re.FindString(lower); m != "" {
			e.exam = strings.ToUpper(strings.Join(strings.Fields(m), " "))
			break
		}
	}

	for k, v := range stateMapping {
		if strings.Contains(lower, k) {
			e.state = v
			break
		}
	}

	if m := yearPattern.FindString(query); m != "" {
		e.year = m
	} else {
		e.year = strconv.Itoa(g.currentYear)
	}

	for k, v := range yojanaMapping {
		if strings.Contains(lower, k) {
			e.yojana = v
			break
		}
	}

	cleaned := g.CleanQuery(query)
	if fields := strings.Fields(cleaned); len(fields) > 0 {
		e.keyword = fields[0]
	} else if len(query) > 20 {
		e.keyword = query[:20]
	} else {
		e.keyword = query
	}

	return e
}

// DetectQueryType mirrors detect_query_type's ordered regex checks.
func DetectQueryType(query string) model.QueryType {
	lower := strings.ToLower(query)
	switch {
	case regexp.MustCompile(`(result|रिजल्ट|परिणाम|merit|answer\s*key)`).MatchString(lower):
		return model.TypeResult
	case regexp.MustCompile(`(admit\s*card|एडमिट\s*कार्ड|hall\s*ticket)`).MatchString(lower):
		return model.TypeAdmitCard
	case regexp.MustCompile(`(cutoff|cut\s*off|कटऑफ)`).MatchString(lower):
		return model.TypeCutoff
	case regexp.MustCompile(`(syllabus|सिलेबस|pattern|पैटर्न|topics)`).MatchString(lower):
		return model.TypeSyllabus
	case regexp.MustCompile(`(yojana|योजना|scheme|subsidy|pension)`).MatchString(lower):
		return model.TypeScheme
	case regexp.MustCompile(`(vacancy|भर्ती|recruitment|job|नौकरी|bharti)`).MatchString(lower):
		return model.TypeJob
	default:
		return model.TypeGeneral
	}
}

// Generate produces the ranked query variants for one user utterance. A
// zero queryType triggers auto-detection via DetectQueryType.
func (g *Generator) Generate(query string, queryType model.QueryType) []model.GeneratedQuery {
	e := g.ExtractEntities(query)
	if queryType == "" {
		queryType = DetectQueryType(query)
	}

	var out []model.GeneratedQuery
	switch queryType {
	case model.TypeJob:
		out = g.jobQueries(e)
	case model.TypeScheme:
		out = g.yojanaQueries(e)
	case model.TypeResult:
		out = g.templatedQueries(resultTemplates, firstNonEmpty(e.exam, e.keyword, "exam"), e.year, model.TypeResult)
	case model.TypeAdmitCard:
		out = g.templatedQueries(admitCardTemplates, firstNonEmpty(e.exam, e.keyword, "exam"), e.year, model.TypeAdmitCard)
	case model.TypeCutoff:
		out = g.templatedQueries(cutoffTemplates, firstNonEmpty(e.exam, e.keyword, "exam"), e.year, model.TypeCutoff)
	case model.TypeSyllabus:
		out = g.templatedQueries(syllabusTemplates, firstNonEmpty(e.exam, e.keyword, "exam"), e.year, model.TypeSyllabus)
	default:
		out = g.generalQueries(query, e)
	}

	cleaned := g.CleanQuery(query)
	if cleaned != "" && !containsText(out, cleaned) {
		out = append(out, model.GeneratedQuery{
			Text:      cleaned,
			Variant:   model.VariantMixed,
			QueryType: queryType,
			Priority:  4,
		})
	}
	return out
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func containsText(queries []model.GeneratedQuery, text string) bool {
	lower := strings.ToLower(text)
	for _, q := range queries {
		if strings.ToLower(q.Text) == lower {
			return true
		}
	}
	return false
}

func (g *Generator) jobQueries(e entities) []model.GeneratedQuery {
	keyword := firstNonEmpty(e.exam, e.keyword, "government")
	return []model.GeneratedQuery{
		{Text: strings.TrimSpace(fmt.Sprintf(jobTemplates.hi, keyword, e.state, e.year)), Variant: model.VariantHindi, QueryType: model.TypeJob, Priority: 1},
		{Text: strings.TrimSpace(fmt.Sprintf(jobTemplates.en, keyword, e.state, e.year)), Variant: model.VariantEnglish, QueryType: model.TypeJob, Priority: 2},
		{Text: strings.TrimSpace(fmt.Sprintf(jobTemplates.gov, keyword, e.state, e.year)), Variant: model.VariantOfficialSites, QueryType: model.TypeJob, Priority: 3},
	}
}

func (g *Generator) yojanaQueries(e entities) []model.GeneratedQuery {
	name := firstNonEmpty(e.yojana, e.keyword, "government scheme")
	return []model.GeneratedQuery{
		{Text: strings.TrimSpace(fmt.Sprintf(yojanaTemplates.hi, name)), Variant: model.VariantHindi, QueryType: model.TypeScheme, Priority: 1},
		{Text: strings.TrimSpace(fmt.Sprintf(yojanaTemplates.en, name)), Variant: model.VariantEnglish, QueryType: model.TypeScheme, Priority: 2},
		{Text: strings.TrimSpace(fmt.Sprintf(yojanaTemplates.gov, name)), Variant: model.VariantOfficialSites, QueryType: model.TypeScheme, Priority: 3},
	}
}

// templatedQueries renders a 3-variant set for the single-placeholder
// template families (result/admit-card/cutoff/syllabus), mirroring the
// Python loop over dict items in iteration order hi→en→gov.
func (g *Generator) templatedQueries(t templateSet, name, year string, qt model.QueryType) []model.GeneratedQuery {
	return []model.GeneratedQuery{
		{Text: strings.TrimSpace(renderTemplate(t.hi, name, year)), Variant: model.VariantHindi, QueryType: qt, Priority: 1},
		{Text: strings.TrimSpace(renderTemplate(t.en, name, year)), Variant: model.VariantEnglish, QueryType: qt, Priority: 2},
		{Text: strings.TrimSpace(renderTemplate(t.gov, name, year)), Variant: model.VariantOfficialSites, QueryType: qt, Priority: 3},
	}
}

func renderTemplate(tmpl, name, year string) string {
	n := strings.Count(tmpl, "%s")
	switch n {
	case 2:
		return fmt.Sprintf(tmpl, name, year)
	case 1:
		return fmt.Sprintf(tmpl, name)
	default:
		return tmpl
	}
}

func (g *Generator) generalQueries(original string, e entities) []model.GeneratedQuery {
	cleaned := g.CleanQuery(original)
	return []model.GeneratedQuery{
		{Text: cleaned, Variant: model.VariantMixed, QueryType: model.TypeGeneral, Priority: 1},
		{Text: cleaned + " official website", Variant: model.VariantEnglish, QueryType: model.TypeGeneral, Priority: 2},
		{Text: "site:gov.in " + cleaned, Variant: model.VariantOfficialSites, QueryType: model.TypeGeneral, Priority: 3},
	}
}
