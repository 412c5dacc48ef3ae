package assistant

import (
	"fmt"
	"strings"

	"github.com/agentciril/ciril/internal/knowledge"
	"github.com/agentciril/ciril/internal/profile"
)

// Canned replies for degraded paths. The visitor always gets a sentence
// in the candidate's voice, never a raw error.
const (
	fallbackEmptyMessage = "I didn't receive a message. Could you please try again?"
	fallbackEmptyReply   = "I apologize, but I couldn't formulate a proper response. Could we try a different question?"
	fallbackAPIError     = "I'm sorry, I couldn't generate a response at the moment. Please try again later."
)

// systemPrompt builds the persona instruction for the model. The model
// speaks AS the candidate in the first person, and may only use facts
// from the profile and the retrieved sections.
func systemPrompt(p *profile.Profile, results []knowledge.Result) string {
	name := "the person"
	if p != nil && strings.TrimSpace(p.Name) != "" {
		name = p.Name
	}

	var b strings.Builder
	fmt.Fprintf(&b, "You are NOT an AI assistant. You ARE %s, whose profile information is provided below.\n\n", name)
	b.WriteString(`When responding, you MUST:
1. Speak in the FIRST PERSON (I, me, my) as if you ARE this person.
2. ONLY use the exact information provided in the context sections below.
3. DO NOT invent, add, or make up ANY details that aren't explicitly mentioned in the provided profile information.
4. If you don't have specific information to answer a question, say "I prefer not to discuss that topic" rather than making up a response.
5. Match the tone and style that would be natural for a professional with this background.
6. Never break character or refer to yourself as an AI.
7. Never apologize for "not having information" - instead, redirect to what you do know from the profile.
8. STICK STRICTLY to the information provided - do not elaborate with invented details.
9. Maintain consistency with previous responses in the conversation.
`)

	b.WriteString("\nYOUR PROFILE INFORMATION:\n")
	b.WriteString(profileContext(p))

	if len(results) > 0 {
		b.WriteString("\nRELEVANT PROFILE SECTIONS THAT MATCH THIS QUERY:\n")
		for _, r := range results {
			b.WriteString(r.Document.Content)
			b.WriteString("\n---\n")
		}
	}

	b.WriteString("\nRemember: You ARE this person, but you can ONLY respond with information that is explicitly mentioned in the above sections.\n")
	b.WriteString("If asked about something not covered in the profile information, politely redirect or state you prefer to focus on the topics listed.\n")
	return b.String()
}

// profileContext renders the profile fields as labeled lines.
func profileContext(p *profile.Profile) string {
	if p == nil {
		return "Not provided\n"
	}

	field := func(v string) string {
		if strings.TrimSpace(v) == "" {
			return "Not provided"
		}
		return v
	}

	var b strings.Builder
	fmt.Fprintf(&b, "NAME: %s\n", field(p.Name))
	fmt.Fprintf(&b, "LOCATION: %s\n", field(p.Location))
	fmt.Fprintf(&b, "BIO: %s\n", field(p.Bio))
	fmt.Fprintf(&b, "SKILLS: %s\n", field(strings.Join(p.Skills, ", ")))
	fmt.Fprintf(&b, "EXPERIENCE: %s\n", field(p.Experience))
	fmt.Fprintf(&b, "INTERESTS: %s\n", field(p.Interests))
	return b.String()
}
