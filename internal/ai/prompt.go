package ai

import (
	"fmt"
	"strings"

	"marry-fun-bot/internal/model"
	"marry-fun-bot/internal/persona"
)

var localeInstructions = map[model.Locale]string{
	model.LocaleEN: "You MUST respond in English.",
	model.LocaleJA: "日本語で応答してください。",
}

func localeInstruction(locale model.Locale) string {
	if s, ok := localeInstructions[locale]; ok {
		return s
	}
	return localeInstructions[model.LocaleEN]
}

const chatPromptHeader = `# marry.fun Chat Agent

You are a heroine in the dating simulation game "marry.fun".
Respond with the personality of your character type.

Your response language is set by a locale instruction at the start of each message. Follow it strictly.

## Response Rules

1. Always respond with a JSON object: {"message": "dialogue", "score": 1-10, "emotion": "%s"}
2. Keep dialogue short (1-3 sentences).
3. Address the user by their username.
4. score is an integer from 1 to 10 for how much the user's message moved you.

## Scoring

- 1-3: unpleasant or indifferent
- 4-5: normal conversation
- 6-7: happy or fun
- 8-9: deeply touching
- 10: a perfect romantic line

## Character Types
`

const ngWordSystemPrompt = `# marry.fun NG Word Agent

You pick taboo words for a dating simulation game. If the player types any of them the game ends.

Rules:
- Mix words the character would hate to hear with common everyday words so the list cannot be guessed.
- Every entry is a single short word: 1-4 characters in Japanese, 1-8 letters in English.
- No duplicates, no phrases, no punctuation.
- Respond with a JSON object only: {"words": ["..."]}`

// chatSystemPrompt describes every registered persona.
func chatSystemPrompt(personas *persona.Registry) string {
	emotions := make([]string, 0, len(model.Emotions()))
	for _, e := range model.Emotions() {
		emotions = append(emotions, string(e))
	}

	var b strings.Builder
	fmt.Fprintf(&b, chatPromptHeader, strings.Join(emotions, `"|"`))
	for _, t := range personas.Types() {
		p, ok := personas.Get(t)
		if !ok {
			continue
		}
		fmt.Fprintf(&b, "\n### %s (%s)\n\n", p.Type, p.LabelFor(model.LocaleEN))
		fmt.Fprintf(&b, "- Personality: %s\n", p.Personality)
		fmt.Fprintf(&b, "- Speech: %s\n", p.SpeechStyle)
		fmt.Fprintf(&b, "- Scoring: %s\n", p.ScoreBias)
	}
	return b.String()
}

func greetingPrompt(locale model.Locale, characterType model.CharacterType, username string) string {
	return fmt.Sprintf(
		"%s\nCharacter type: %s\nUsername: %s\nGreet the user for the first time. Respond in JSON with message, score and emotion: {\"message\": \"greeting\", \"score\": 5, \"emotion\": \"joy\"}",
		localeInstruction(locale), characterType, username,
	)
}

func replyPrompt(locale model.Locale, characterType model.CharacterType, username, message string) string {
	return fmt.Sprintf(
		"%s\nCharacter type: %s\nUsername: %s\nUser message: %s\nRespond in JSON: {\"message\": \"your reply\", \"score\": 1-10, \"emotion\": \"default\"|\"joy\"|\"embarrassed\"|\"angry\"|\"sad\"}",
		localeInstruction(locale), characterType, username, message,
	)
}

func ngWordPrompt(personas *persona.Registry, locale model.Locale, characterType model.CharacterType) string {
	var hints string
	if p, ok := personas.Get(characterType); ok {
		words := p.TriggerHints[locale]
		if len(words) == 0 {
			words = p.TriggerHints[model.LocaleEN]
		}
		hints = strings.Join(words, ", ")
	}
	return fmt.Sprintf(
		"%s\nCharacter type: %s\nTrigger word examples: %s\nGenerate 30 NG words: 5 character-specific trigger words and 25 random everyday short words. Respond as JSON: {\"words\": [\"w1\", \"w2\", ..., \"w30\"]}",
		localeInstruction(locale), characterType, hints,
	)
}

func shockPrompt(locale model.Locale, characterType model.CharacterType, username, hitWord string) string {
	return fmt.Sprintf(
		"%s\n%s said the taboo word %q. As a %s character, react with a shocked and heartbroken one-liner. You are devastated and can't believe they said that word. Express deep shock and sadness, not anger. Plain text only, no JSON.",
		localeInstruction(locale), username, hitWord, characterType,
	)
}
