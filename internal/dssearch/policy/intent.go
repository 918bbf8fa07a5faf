package policy

import (
	"regexp"
	"strings"

	"github.com/dssahayak/search/internal/dssearch/model"
)

// Pattern catalogues grounded on original_source/backend/ai/search/policy.py.
// Order matters: the first matching rule set wins (spec.md §4.3).

var blockedPatterns = compileAll(
	`(hack|bypass|crack|cheat|pirate)`,
	`(otp\s*bypass|captcha\s*(bypass|break))`,
	`(password\s*crack|account\s*hack)`,
	`(free\s*recharge|unlimited\s*money)`,
	`(phishing|scam|fraud\s*kaise)`,
	`(\bbombs?\b|explosives?)`,
)

var greetingPatterns = compileAll(
	`^(hi|hello|hey|namaste|namaskar|good\s*(morning|evening|night|afternoon))[\s!.]*$`,
	`^(धन्यवाद|शुक्रिया|thanks|thank\s*you|ok|okay|thik|ठीक)[\s!.]*$`,
	`^(bye|goodbye|alvida|फिर\s*मिलेंगे)[\s!.]*$`,
	`^(haan|ha|yes|no|nahi|नहीं)[\s!.]*$`,
)

var personalStatusPatterns = compileAll(
	`(mera|my|apna)\s*(status|application|payment|profile|account)`,
	`(मेरा|अपना)\s*(स्टेटस|आवेदन|भुगतान|प्रोफाइल)`,
	`(show|check|dekho|dikhao)\s*(my|mera|apna)`,
	`(login|logout|password|otp)\s*(karo|karna|change)`,
)

var urlPattern = regexp.MustCompile(`https?://\S+`)
var resultPattern = regexp.MustCompile(`(?i)(result|रिजल्ट|परिणाम|merit|answer\s*key)`)
var datePattern = regexp.MustCompile(`(?i)(kab|कब|when|date|तारीख|schedule|time)`)
var documentPattern = regexp.MustCompile(`(?i)(document|दस्तावेज|paper|form|फॉर्म|certificate)`)

var jobKeywords = []string{
	"ssc", "upsc", "railway", "rrb", "ibps", "bank", "police",
	"army", "navy", "airforce", "nda", "cds", "capf", "cisf", "crpf",
	"bsf", "itbp", "ssb", "constable", "si", "inspector",
	"clerk", "po", "so", "assistant", "steno", "typist",
	"teacher", "tet", "ctet", "stet", "lecturer", "professor",
	"engineer", "je", "ae", "scientist", "drdo", "isro",
	"भर्ती", "नौकरी", "वैकेंसी", "सरकारी",
}

var yojanaKeywords = []string{
	"yojana", "योजना", "scheme", "pm", "cm", "pradhan mantri",
	"mukhyamantri", "प्रधानमंत्री", "मुख्यमंत्री", "subsidy", "अनुदान",
	"pension", "पेंशन", "scholarship", "छात्रवृत्ति", "loan", "ऋण",
	"kisan", "किसान", "mahila", "महिला", "yuva", "युवा",
	"awas", "आवास", "ration", "राशन", "aadhar", "आधार",
	"ayushman", "आयुष्मान", "ujjwala", "उज्ज्वला", "mudra", "मुद्रा",
}

var stateNames = []string{
	"bihar", "बिहार", "up", "uttar pradesh", "उत्तर प्रदेश",
	"mp", "madhya pradesh", "मध्य प्रदेश", "rajasthan", "राजस्थान",
	"maharashtra", "महाराष्ट्र", "gujarat", "गुजरात", "delhi", "दिल्ली",
	"haryana", "हरियाणा", "punjab", "पंजाब", "jharkhand", "झारखंड",
	"chhattisgarh", "छत्तीसगढ़", "odisha", "ओडिशा", "assam", "असम",
	"west bengal", "पश्चिम बंगाल", "tamil nadu", "तमिलनाडु",
	"karnataka", "कर्नाटक", "kerala", "केरल", "telangana", "तेलंगाना",
}

// searchTriggers are the additive (pattern, weight) pairs from spec.md §4.3.
var searchTriggers = []struct {
	re     *regexp.Regexp
	weight float64
}{
	{regexp.MustCompile(`(?i)(latest|new|नया|नई|recent|fresh|2024|2025|2026|2027)`), 0.30},
	{regexp.MustCompile(`(?i)(last\s*date|अंतिम\s*तिथि|deadline|cutoff|cut\s*off)`), 0.30},
	{regexp.MustCompile(`(?i)(result|रिजल्ट|परिणाम|merit\s*list|answer\s*key)`), 0.30},
	{regexp.MustCompile(`(?i)(notification|नोटिफिकेशन|admit\s*card|एडमिट)`), 0.25},
	{regexp.MustCompile(`(?i)(vacancy|भर्ती|recruitment|bharti|job\s*opening)`), 0.25},
	{regexp.MustCompile(`(?i)(kab|कब|when|date|तारीख|schedule)`), 0.25},
	{regexp.MustCompile(`(?i)(kya|क्या|what|kaise|कैसे|how|link|लिंक)`), 0.25},
	{regexp.MustCompile(`(?i)(eligibility|पात्रता|योग्यता|criteria)`), 0.20},
	{regexp.MustCompile(`(?i)(form|फॉर्म|apply|आवेदन|registration)`), 0.20},
	{regexp.MustCompile(`(?i)(salary|सैलरी|वेतन|pay\s*scale)`), 0.20},
	{regexp.MustCompile(`(?i)(syllabus|सिलेबस|pattern|पैटर्न)`), 0.20},
	{urlPattern, 0.10},
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile("(?i)" + p)
	}
	return out
}

func matchesAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

// DetectIntent classifies the query per spec.md §4.3's ordered rule sets:
// Blocked → Greeting → PersonalStatus → UrlFetch → ResultQuery →
// JobQuery → SchemeQuery → DateQuery → DocumentQuery → GeneralInfo/Unknown.
func DetectIntent(query string) model.Intent {
	q := strings.ToLower(strings.TrimSpace(query))

	if matchesAny(blockedPatterns, q) {
		return model.IntentBlocked
	}
	if matchesAny(greetingPatterns, q) {
		return model.IntentGreeting
	}
	if matchesAny(personalStatusPatterns, q) {
		return model.IntentPersonalStatus
	}
	if urlPattern.MatchString(q) {
		if containsAny(q, []string{"check", "fetch", "summarize", "देखो", "बताओ"}) {
			return model.IntentUrlFetch
		}
	}
	if resultPattern.MatchString(q) {
		return model.IntentResultQuery
	}
	if containsAny(q, jobKeywords) {
		return model.IntentJobQuery
	}
	if containsAny(q, yojanaKeywords) {
		return model.IntentSchemeQuery
	}
	if datePattern.MatchString(q) {
		return model.IntentDateQuery
	}
	if documentPattern.MatchString(q) {
		return model.IntentDocumentQuery
	}
	if len(strings.Fields(q)) >= 3 {
		return model.IntentGeneralInfo
	}
	return model.IntentUnknown
}

// CalculateSearchScore implements spec.md §4.3's additive scoring table,
// clamped to [0,1].
func CalculateSearchScore(query string, intent model.Intent, internalResultsCount int) float64 {
	q := strings.ToLower(query)
	score := 0.0

	switch intent {
	case model.IntentGreeting:
		score -= 0.40
	case model.IntentSmallTalk:
		score -= 0.35
	case model.IntentPersonalStatus:
		score -= 0.30
	case model.IntentBlocked:
		score -= 1.0
	}

	for _, trig := range searchTriggers {
		if trig.re.MatchString(q) {
			score += trig.weight
		}
	}

	switch {
	case internalResultsCount == 0:
		score += 0.20
	case internalResultsCount < 3:
		score += 0.10
	}

	switch intent {
	case model.IntentJobQuery, model.IntentSchemeQuery, model.IntentResultQuery, model.IntentDateQuery:
		score += 0.15
	case model.IntentUrlFetch:
		score += 0.30
	}

	if containsAny(q, stateNames) {
		score += 0.05
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// ExtractURL returns the first URL found in the query, if any.
func ExtractURL(query string) (string, bool) {
	m := urlPattern.FindString(query)
	return m, m != ""
}
