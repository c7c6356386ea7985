package ai

import "fmt"

// Categories offered to the model. Kept in sync with inbox domain categories.
const categoryList = "Very Important, Important, Non-Important, Promotions, Spam"

func classificationPrompt(snippet, guidance string) string {
	return fmt.Sprintf(`Based on the user's preferences below and the following email snippet, provide a summary of at least four sentences and classify it into one of these categories: %s.

User Preferences: "%s"

Snippet: "%s"

Return the response as a valid JSON object with exactly two keys: "summary" (string) and "category" (string).`, categoryList, guidance, snippet)
}

func replyPrompt(summary, styleGuidance, instruction string) string {
	return fmt.Sprintf(`Based on the user's reply style preferences, the original email snippet, and the user's instruction, generate a reply draft.

User Reply Style: "%s"
Original Email Snippet: "%s"
User Instruction: "%s"

Return a valid JSON object with a single key "draft".`, styleGuidance, summary, instruction)
}
