package completion

import (
	"fmt"
	"strings"

	"hotel_enricher/internal/enrich"
)

const fieldsSystem = `You are a meticulous hotel data researcher with web search.
Answer with a single JSON object and nothing else.
Use exactly the keys you are asked for. Values are plain strings.
If a value cannot be verified from a reliable source, use "N/A".`

const faqSystem = `You are a hotel concierge with web search.
Answer with a JSON array of objects {"question": "...", "answer": "..."} and nothing else.
Only include answers you can verify for this specific hotel.`

// fieldsPrompt lists the requested fields with their descriptions, in the order given.
func fieldsPrompt(hotel string, fields []enrich.FieldDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hotel: %q\n\nFind the following attributes:\n", hotel)
	for _, f := range fields {
		fmt.Fprintf(&b, "- %s: %s\n", f.Name, f.Description)
	}
	b.WriteString("\nReturn a JSON object with exactly these keys.")
	return b.String()
}

func faqPrompt(hotel string, n int) string {
	return fmt.Sprintf("Hotel: %q\n\nWrite the %d questions guests most often ask about this hotel, with answers.", hotel, n)
}
