package topic

// DefaultStopwords lists common English and German function words. Only words that
// can survive the default minimum length matter, but shorter ones are kept so the
// list stays correct when WithMinLength lowers the bound.
var DefaultStopwords = []string{
	// English
	"a", "about", "above", "after", "again", "against", "all", "also", "an", "and", "any",
	"are", "because", "been", "before", "being", "below", "between", "both", "but", "can",
	"could", "did", "does", "doing", "down", "during", "each", "even", "every", "from",
	"further", "have", "having", "here", "into", "just", "like", "more", "most", "much",
	"must", "only", "other", "over", "same", "should", "since", "some", "such", "than",
	"that", "their", "theirs", "them", "then", "there", "these", "they", "this", "those",
	"through", "under", "until", "very", "want", "were", "what", "when", "where", "which",
	"while", "will", "with", "would", "your", "yours", "yourself",
	// German
	"aber", "alle", "allem", "allen", "aller", "alles", "also", "andere", "anderen", "auch",
	"auf", "aus", "bei", "beim", "bin", "bis", "bist", "damit", "dann", "darum", "dass",
	"dein", "deine", "denn", "der", "des", "dich", "die", "dies", "diese", "diesem", "diesen",
	"dieser", "dieses", "doch", "dort", "durch", "eine", "einem", "einen", "einer", "eines",
	"euch", "euer", "für", "gegen", "habe", "haben", "hatte", "hier", "hinter", "ihre",
	"ihrem", "ihren", "ihrer", "jede", "jedem", "jeden", "jeder", "jetzt", "kann", "kein",
	"keine", "machen", "mein", "meine", "mich", "mir", "mit", "nach", "nicht", "noch", "nur",
	"oder", "ohne", "schon", "sehr", "sein", "seine", "sich", "sind", "solche", "sondern",
	"über", "uns", "unser", "unter", "viel", "vom", "von", "vor", "warum", "weil", "welche",
	"wenn", "werden", "wieder", "wird", "wollen", "würde", "zum", "zur", "zwischen",
}
