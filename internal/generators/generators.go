package generators

import (
	"fmt"
	"math/rand"
	"strings"

	"quran-quiz-service/internal/domain"
)

// Generator produces one rendered question from page content. A nil result
// means the content cannot support this archetype (e.g. not enough distractor
// material); the session runner skips the slot without counting it.
type Generator func(verses []domain.Verse, reciterID string, arity int, rng *rand.Rand) *domain.RenderedQuestion

// Registry maps archetype ids to their generation capability.
type Registry map[string]Generator

// DefaultCDN is the audio host used when none is configured.
const DefaultCDN = "https://cdn.islamic.network/quran/audio/128"

// Default returns the built-in archetype registry. Audio questions build their
// clip URL from audioCDN, the reciter id and the global verse number.
func Default(audioCDN string) Registry {
	if audioCDN == "" {
		audioCDN = DefaultCDN
	}
	return Registry{
		"next_verse":        nextVerse,
		"previous_verse":    previousVerse,
		"missing_word":      missingWord,
		"first_word":        firstWord,
		"audio_recognition": audioRecognition(audioCDN),
	}
}

func nextVerse(verses []domain.Verse, _ string, arity int, rng *rand.Rand) *domain.RenderedQuestion {
	if len(verses) < arity+1 || arity < 2 {
		return nil
	}
	i := rng.Intn(len(verses) - 1)
	correct := verses[i+1].Text
	distractors := distractorTexts(verses, correct, verses[i].Text, arity-1, rng)
	if distractors == nil {
		return nil
	}
	return assemble("next_verse", "ما هي الآية التالية لهذه الآية؟\n"+verses[i].Text, "", correct, distractors, rng)
}

func previousVerse(verses []domain.Verse, _ string, arity int, rng *rand.Rand) *domain.RenderedQuestion {
	if len(verses) < arity+1 || arity < 2 {
		return nil
	}
	i := 1 + rng.Intn(len(verses)-1)
	correct := verses[i-1].Text
	distractors := distractorTexts(verses, correct, verses[i].Text, arity-1, rng)
	if distractors == nil {
		return nil
	}
	return assemble("previous_verse", "ما هي الآية السابقة لهذه الآية؟\n"+verses[i].Text, "", correct, distractors, rng)
}

func missingWord(verses []domain.Verse, _ string, arity int, rng *rand.Rand) *domain.RenderedQuestion {
	if len(verses) == 0 || arity < 2 {
		return nil
	}
	// Try a few verses; a candidate needs enough words to blank one out and
	// enough vocabulary on the page for distractors.
	for attempt := 0; attempt < 5; attempt++ {
		v := verses[rng.Intn(len(verses))]
		words := strings.Fields(v.Text)
		if len(words) < 4 {
			continue
		}
		idx := rng.Intn(len(words))
		correct := words[idx]
		blanked := make([]string, len(words))
		copy(blanked, words)
		blanked[idx] = "؟"
		distractors := distractorWords(verses, correct, arity-1, rng)
		if distractors == nil {
			continue
		}
		prompt := "اختر الكلمة الناقصة:\n" + strings.Join(blanked, " ")
		return assemble("missing_word", prompt, "", correct, distractors, rng)
	}
	return nil
}

func firstWord(verses []domain.Verse, _ string, arity int, rng *rand.Rand) *domain.RenderedQuestion {
	if len(verses) < arity || arity < 2 {
		return nil
	}
	v := verses[rng.Intn(len(verses))]
	words := strings.Fields(v.Text)
	if len(words) == 0 {
		return nil
	}
	correct := v.Text
	distractors := distractorTexts(verses, correct, "", arity-1, rng)
	if distractors == nil {
		return nil
	}
	prompt := fmt.Sprintf("ما هي الآية التي تبدأ بكلمة «%s»؟", words[0])
	// Another verse on the page may start with the same word; that makes the
	// question ambiguous, so give up and let the runner skip.
	for _, d := range distractors {
		dw := strings.Fields(d)
		if len(dw) > 0 && dw[0] == words[0] {
			return nil
		}
	}
	return assemble("first_word", prompt, "", correct, distractors, rng)
}

func audioRecognition(audioCDN string) Generator {
	return func(verses []domain.Verse, reciterID string, arity int, rng *rand.Rand) *domain.RenderedQuestion {
		if len(verses) < arity || arity < 2 || reciterID == "" {
			return nil
		}
		v := verses[rng.Intn(len(verses))]
		distractors := distractorTexts(verses, v.Text, "", arity-1, rng)
		if distractors == nil {
			return nil
		}
		audioURL := fmt.Sprintf("%s/%s/%d.mp3", audioCDN, reciterID, v.Number)
		q := assemble("audio_recognition", "استمع إلى التلاوة ثم اختر الآية الصحيحة:", audioURL, v.Text, distractors, rng)
		return q
	}
}

// assemble shuffles the correct answer in among the distractors and assigns
// positional option ids.
func assemble(archetypeID, prompt, audioURL, correct string, distractors []string, rng *rand.Rand) *domain.RenderedQuestion {
	texts := append([]string{correct}, distractors...)
	rng.Shuffle(len(texts), func(i, j int) { texts[i], texts[j] = texts[j], texts[i] })

	options := make([]domain.Option, len(texts))
	correctID := ""
	for i, text := range texts {
		id := fmt.Sprintf("o%d", i+1)
		options[i] = domain.Option{ID: id, Text: text}
		if text == correct {
			correctID = id
		}
	}
	return &domain.RenderedQuestion{
		ArchetypeID:     archetypeID,
		Prompt:          prompt,
		AudioURL:        audioURL,
		Options:         options,
		CorrectOptionID: correctID,
		CorrectText:     correct,
	}
}

// distractorTexts picks n distinct verse texts different from correct (and
// from exclude, when the prompt already shows that verse). Returns nil when
// the page cannot supply enough.
func distractorTexts(verses []domain.Verse, correct, exclude string, n int, rng *rand.Rand) []string {
	candidates := make([]string, 0, len(verses))
	seen := map[string]struct{}{correct: {}, exclude: {}}
	for _, v := range verses {
		if _, ok := seen[v.Text]; ok {
			continue
		}
		seen[v.Text] = struct{}{}
		candidates = append(candidates, v.Text)
	}
	if len(candidates) < n {
		return nil
	}
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	return candidates[:n]
}

// distractorWords picks n distinct words from the page different from correct.
func distractorWords(verses []domain.Verse, correct string, n int, rng *rand.Rand) []string {
	seen := map[string]struct{}{correct: {}}
	candidates := make([]string, 0, 64)
	for _, v := range verses {
		for _, w := range strings.Fields(v.Text) {
			if len([]rune(w)) < 3 {
				continue
			}
			if _, ok := seen[w]; ok {
				continue
			}
			seen[w] = struct{}{}
			candidates = append(candidates, w)
		}
	}
	if len(candidates) < n {
		return nil
	}
	rng.Shuffle(len(candidates), func(i, j int) { candidates[i], candidates[j] = candidates[j], candidates[i] })
	return candidates[:n]
}
