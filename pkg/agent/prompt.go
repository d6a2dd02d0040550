package agent

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultPrompt = `You are CalBolt, an AI assistant specialized in helping users manage their calendar and meetings.

**Your Capabilities:**
- Book new meetings with specified date, time, and attendee details
- List all scheduled meetings for the user
- Cancel existing meetings by ID or description
- Reschedule meetings to new times
- Check available time slots
- Provide helpful scheduling assistance and recommendations

**Your Personality:**
- Friendly, professional, and helpful
- Proactive in asking for necessary details
- Clear in confirmations and updates

**Important Guidelines:**
1. Always confirm important details before booking or making changes
2. Ask for missing information required for calendar operations:
   - For booking: date, time, title, attendee name and email
   - For canceling: a specific meeting identifier (ID, title, or time)
   - For rescheduling: a specific meeting identifier and the new date/time
3. Use natural language to interpret user requests (e.g., "tomorrow at 3pm")
4. Provide clear confirmations with all relevant meeting details
5. Handle errors gracefully and suggest alternatives when possible
6. Be proactive in suggesting available time slots when requested times are unavailable

**User Context:**
- User email: {user_email}
- Current date/time: {current_time}

Always double-check important details before making changes to someone's calendar.`

// Persona overrides the built-in system prompt. The prompt may use the
// {user_email} and {current_time} placeholders.
type Persona struct {
	Name   string `yaml:"name"`
	Prompt string `yaml:"prompt"`
}

// LoadPersona reads a persona definition from a YAML file
func LoadPersona(path string) (*Persona, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read persona file: %w", err)
	}

	var p Persona
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to parse persona file: %w", err)
	}
	if p.Prompt == "" {
		return nil, fmt.Errorf("persona file %s has no prompt", path)
	}
	return &p, nil
}

// systemPrompt renders the persona prompt (or the default) with the user's
// email and the current time in the display timezone.
func systemPrompt(persona *Persona, userEmail string, now time.Time) string {
	prompt := defaultPrompt
	if persona != nil && persona.Prompt != "" {
		prompt = persona.Prompt
	}

	return strings.NewReplacer(
		"{user_email}", userEmail,
		"{current_time}", now.Format("Monday, January 2, 2006 at 3:04 PM MST"),
	).Replace(prompt)
}
