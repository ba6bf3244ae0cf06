package cel

// PredicateExamples are node classifier expressions accepted by the capture
// service. "heuristic_equivalent" matches the built-in heuristic classifier.
var PredicateExamples = map[string]string{
	"heuristic_equivalent": `text != "" && (class_name.contains("MessageText") || class_name.contains("ConversationRow") || (text_length > 10 && parent_class_name.contains("Bubble")))`,
	"message_text_only":    `text != "" && class_name.contains("MessageText")`,
	"long_bubbles":         `text_length > 20 && parent_class_name.contains("Bubble")`,
	"exclude_system_rows":  `text != "" && class_name.contains("ConversationRow") && !text.contains("•")`,
	"described_messages":   `content_description.startsWith("Message")`,
	"regex_match":          `text.matches("^[A-Za-z].*")`,
}
