package application

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/AzielCF/az-agent/conversation/domain"
)

type intentRule struct {
	intent   domain.Intent
	keywords []string
}

// intentRules are evaluated in priority order; the first rule with a hit wins.
var intentRules = []intentRule{
	{domain.IntentComplaint, []string{
		"complaint", "complain", "unhappy", "disappointed", "terrible", "awful", "angry", "worst",
		"refund", "unacceptable", "not satisfied", "rude",
		"תלונה", "להתלונן", "מאוכזב", "גרוע", "לא מרוצה", "החזר כספי",
		"شكوى", "سيء", "غاضب", "استرداد", "غير راض", "محبط",
	}},
	{domain.IntentAppointment, []string{
		"appointment", "schedule", "meeting", "book", "booking", "calendar", "reserve", "demo",
		"available time", "time slot", "availability",
		"פגישה", "לקבוע", "תור", "יומן", "להזמין פגישה",
		"موعد", "اجتماع", "حجز", "جدول",
	}},
	{domain.IntentPurchase, []string{
		"buy", "purchase", "price", "pricing", "cost", "order", "checkout", "subscribe",
		"subscription", "how much", "discount", "quote",
		"לקנות", "לרכוש", "מחיר", "עלות", "הזמנה", "כמה עולה",
		"شراء", "اشتري", "سعر", "تكلفة", "طلب", "بكم",
	}},
	{domain.IntentLead, []string{
		"contact me", "reach me", "call me", "call back", "get in touch", "my email", "my phone",
		"my number", "interested", "sign up", "newsletter",
		"צור קשר", "תחזרו אליי", "המייל שלי", "הטלפון שלי", "מעוניין", "מעוניינת",
		"تواصل", "اتصل بي", "بريدي", "رقمي", "مهتم",
	}},
	{domain.IntentSupport, []string{
		"help", "support", "problem", "issue", "error", "bug", "broken", "not working", "fix",
		"crash", "login", "password",
		"עזרה", "תמיכה", "בעיה", "תקלה", "לא עובד",
		"مساعدة", "دعم", "مشكلة", "خطأ", "لا يعمل",
	}},
	{domain.IntentInfo, []string{
		"what", "how", "why", "when", "where", "who", "which", "tell me", "information",
		"info", "details", "explain", "hours", "open",
		"מה", "איך", "למה", "מתי", "איפה", "מידע", "פרטים",
		"ما", "ماذا", "كيف", "لماذا", "متى", "أين", "معلومات",
	}},
}

var (
	emailPattern = regexp.MustCompile(`[^\s@]+@[^\s@]+\.[^\s@]+`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().-]{6,}\d`)
)

var englishSuffixes = []string{"s", "es", "ed", "ing", "ings", "ment", "ments"}

// ClassifyIntent maps free text to one of domain.Intents. It never fails:
// empty or unmatched text is IntentOther.
func ClassifyIntent(message string) domain.Intent {
	text := normalize(message)
	if text == "" {
		return domain.IntentOther
	}
	tokens := strings.Fields(text)

	for _, rule := range intentRules {
		if rule.intent == domain.IntentLead && (emailPattern.MatchString(message) || phonePattern.MatchString(message)) {
			return rule.intent
		}
		for _, kw := range rule.keywords {
			if matchKeyword(text, tokens, kw) {
				return rule.intent
			}
		}
		if rule.intent == domain.IntentInfo && strings.Contains(message, "?") {
			return rule.intent
		}
	}
	return domain.IntentOther
}

// normalize lowercases and reduces punctuation to single spaces.
func normalize(s string) string {
	mapped := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, s)
	return strings.Join(strings.Fields(mapped), " ")
}

func matchKeyword(text string, tokens []string, kw string) bool {
	if strings.Contains(kw, " ") {
		return strings.Contains(" "+text+" ", " "+kw+" ")
	}
	ascii := utf8.RuneCountInString(kw) == len(kw)
	for _, tok := range tokens {
		if tok == kw {
			return true
		}
		if !strings.HasPrefix(tok, kw) {
			// Hebrew and Arabic attach prepositions and articles as prefixes
			if !ascii && utf8.RuneCountInString(kw) >= 3 && strings.HasSuffix(tok, kw) {
				return true
			}
			continue
		}
		if ascii {
			rest := tok[len(kw):]
			for _, suf := range englishSuffixes {
				if rest == suf {
					return true
				}
			}
		} else if utf8.RuneCountInString(kw) >= 3 {
			return true
		}
	}
	return false
}
