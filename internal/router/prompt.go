package router

import (
	"fmt"
	"strings"

	"github.com/manash/thumbchat/internal/conversation"
)

// Generation scaffold. The wrapper fixes the output target and the
// legibility rules the thumbnail must satisfy; the user's text (and any
// conversation context) is embedded in the delimited block.
const generateTemplate = `You are a thumbnail-design assistant.
TASK:
- Create a 1536x1024 px (16:9) YouTube thumbnail image.
- Base the concept on the request inside <USER_PROMPT>.
- Follow every guideline below.

GUIDELINES
1. Instant clarity (0.3-s test)
   - One obvious focal point; no clutter.
   - High contrast between subject and background; avoid busy patterns.
2. Show the payoff
   - The image should visually promise what happens in the first few seconds of the video.
   - Emotional faces or before/after comparisons beat generic stills.
3. Readable on a phone
   - Use a bold, sans-serif font of at least 120 pt in the full-size file.
   - Everything important must still be legible at 200 x 112 px.
4. Text safe zone
   - All text must stay at least 10%% of each image dimension away from every edge.

<USER_PROMPT>
%s
</USER_PROMPT>`

const styleInstruction = "Apply the visual style of the image the user just uploaded " +
	"(its colors, mood, and overall aesthetic) onto the current thumbnail, " +
	"while preserving the thumbnail's subject and composition."

// BuildGeneratePrompt wraps the user's text in the generation scaffold,
// prepending a continuity block when qualifying history exists.
func BuildGeneratePrompt(text string, recent []conversation.Turn) string {
	body := text
	if ctx := generateContext(recent, text); ctx != "" {
		body = ctx
	}
	return fmt.Sprintf(generateTemplate, body)
}

// BuildEditPrompt wraps an edit instruction, prepending a block that
// tells the service to keep everything previously established.
func BuildEditPrompt(text string, recent []conversation.Turn) string {
	if ctx := editContext(recent); ctx != "" {
		return ctx + "\n\n" + "New instruction (authoritative): " + text
	}
	return text
}

// BuildStylePrompt is BuildEditPrompt plus the style-transfer
// instruction for the uploaded reference image.
func BuildStylePrompt(text string, recent []conversation.Turn) string {
	return BuildEditPrompt(text, recent) + "\n\n" + styleInstruction
}

// generateContext summarizes up to the last 3 user/bot-with-image
// exchange pairs so a fresh generation keeps conversational continuity.
// Returns "" when no qualifying history exists.
func generateContext(recent []conversation.Turn, current string) string {
	pairs := exchangePairs(recent, 3)
	if len(pairs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("This request continues an earlier conversation. For continuity:\n")
	for _, p := range pairs {
		fmt.Fprintf(&b, "Previous request: %s\n", p)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "Current request (authoritative): %s", current)
	return b.String()
}

// editContext instructs the service to preserve previously established
// elements. Returns "" when no qualifying history exists.
func editContext(recent []conversation.Turn) string {
	pairs := exchangePairs(recent, 3)
	if len(pairs) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("The image being edited was built up over this conversation:\n")
	for _, p := range pairs {
		fmt.Fprintf(&b, "Previous request: %s\n", p)
	}
	b.WriteString("\nPreserve all previously established elements of the image ")
	b.WriteString("unless the new instruction explicitly changes them.")
	return b.String()
}

// exchangePairs extracts up to max user texts that were answered by a
// bot turn carrying an image, oldest first.
func exchangePairs(recent []conversation.Turn, max int) []string {
	var pairs []string
	for i := 0; i+1 < len(recent); i++ {
		u, b := recent[i], recent[i+1]
		if u.Role == conversation.RoleUser && b.Role == conversation.RoleBot && b.HasImage() && u.Text != "" {
			pairs = append(pairs, u.Text)
		}
	}
	if len(pairs) > max {
		pairs = pairs[len(pairs)-max:]
	}
	return pairs
}
