package model

import "fmt"

// CharacterType is the persona variant assigned to a session.
type CharacterType string

const (
	CharacterTsundere CharacterType = "tsundere"
	CharacterTennen   CharacterType = "tennen"
	CharacterCool     CharacterType = "cool"
	CharacterAmaenbou CharacterType = "amaenbou"
	CharacterGenki    CharacterType = "genki"
)

// CharacterTypes returns every persona in a fixed order.
func CharacterTypes() []CharacterType {
	return []CharacterType{
		CharacterTsundere,
		CharacterTennen,
		CharacterCool,
		CharacterAmaenbou,
		CharacterGenki,
	}
}

// Valid reports whether c is a known persona.
func (c CharacterType) Valid() bool {
	for _, t := range CharacterTypes() {
		if t == c {
			return true
		}
	}
	return false
}

// ParseCharacterType validates a stored persona value.
func ParseCharacterType(s string) (CharacterType, error) {
	c := CharacterType(s)
	if !c.Valid() {
		return "", fmt.Errorf("unknown character type %q", s)
	}
	return c, nil
}

// Emotion is the heroine's expression attached to a reply.
type Emotion string

const (
	EmotionDefault     Emotion = "default"
	EmotionJoy         Emotion = "joy"
	EmotionEmbarrassed Emotion = "embarrassed"
	EmotionAngry       Emotion = "angry"
	EmotionSad         Emotion = "sad"
)

// Emotions returns every emotion in a fixed order.
func Emotions() []Emotion {
	return []Emotion{EmotionDefault, EmotionJoy, EmotionEmbarrassed, EmotionAngry, EmotionSad}
}

// NormalizeEmotion maps unknown values to EmotionDefault.
func NormalizeEmotion(s string) Emotion {
	for _, e := range Emotions() {
		if string(e) == s {
			return e
		}
	}
	return EmotionDefault
}
