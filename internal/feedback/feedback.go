// Package feedback turns a validation verdict into the tutor's next message
// and the flow directives the engine acts on.
package feedback

import (
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/abhisek/proofloop/internal/conversation"
	"github.com/abhisek/proofloop/internal/textutil"
	"github.com/abhisek/proofloop/internal/validation"
)

// Request is the input to Generate.
type Request struct {
	Result validation.Result

	// State is the conversation state before this verdict was applied.
	State conversation.State

	Concept string

	// TeachingContext is the recent teaching, used to reteach on retry.
	TeachingContext []string
}

// Response is what the tutor says next and what the engine should do.
type Response struct {
	Content       string
	ShouldAdvance bool
	ShouldReteach bool
	Metadata      conversation.Metadata
}

// Generate builds the response for req.Result.Classification.
func Generate(req Request) Response {
	concept := req.Concept
	if concept == "" {
		concept = req.State.CurrentCheckpointConcept
	}
	if concept == "" {
		concept = "this idea"
	}

	var resp Response
	switch req.Result.Classification {
	case conversation.ClassificationPass:
		resp = Response{
			Content:       celebrate(req, concept),
			ShouldAdvance: true,
			Metadata:      conversation.Metadata{IsCelebration: true},
		}
	case conversation.ClassificationRetry:
		resp = Response{
			Content:       reteach(req, concept),
			ShouldReteach: true,
			Metadata:      conversation.Metadata{ShouldReteach: true},
		}
	default:
		resp = Response{Content: clarify(req, concept)}
	}

	resp.Content = SoftenTone(resp.Content)
	resp.Metadata.IsValidationFeedback = true
	resp.Metadata.IsTeachingExchange = conversation.Bool(false)
	resp.Metadata.Concept = concept
	resp.Metadata.Classification = req.Result.Classification
	if !resp.Metadata.Classification.Valid() {
		resp.Metadata.Classification = conversation.ClassificationPartial
	}
	return resp
}

func celebrate(req Request, concept string) string {
	proven := len(req.State.ConceptsProvenThisSession)
	if !slices.Contains(req.State.ConceptsProvenThisSession, concept) {
		proven++
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Excellent! You explained %s clearly in your own words.", concept)
	if len(req.Result.KeyConcepts) >= 2 {
		fmt.Fprintf(&b, " You connected %s, which shows real understanding.", list(req.Result.KeyConcepts, 3))
	}
	if proven == 1 {
		b.WriteString(" That's your first concept proven this session.")
	} else {
		fmt.Fprintf(&b, " That's %d concepts you've proven this session.", proven)
	}
	b.WriteString(" Let's keep going!")
	return b.String()
}

func clarify(req Request, concept string) string {
	var b strings.Builder
	if len(req.Result.KeyConcepts) > 0 {
		fmt.Fprintf(&b, "You're on the right track: you captured %s.", list(req.Result.KeyConcepts, 3))
	} else {
		fmt.Fprintf(&b, "You're on the right track with %s.", concept)
	}
	if g := strings.TrimSpace(req.Result.Guidance); g != "" {
		b.WriteString(" ")
		b.WriteString(g)
	}
	fmt.Fprintf(&b, " Can you add that missing piece and tell me once more how %s works?", concept)
	return b.String()
}

// reframes rotate with each attempt so a struggling student hears the idea
// a different way each time.
var reframes = []struct {
	opener string
	lead   string
}{
	{"Let's try again from a different angle.", "Picture it step by step:"},
	{"Let's retry with an everyday comparison in mind.", "Think of it this way:"},
	{"Let's slow down and rebuild it together.", "Start with just this one piece:"},
}

func reteach(req Request, concept string) string {
	frame := reframes[req.State.CheckpointAttempts%len(reframes)]

	var b strings.Builder
	b.WriteString(frame.opener)
	if g := strings.TrimSpace(req.Result.Guidance); g != "" {
		b.WriteString(" ")
		b.WriteString(g)
	}
	if recap := recap(req.TeachingContext, concept, req.State.CheckpointAttempts); recap != "" {
		fmt.Fprintf(&b, "\n\n%s %s", frame.lead, recap)
	}
	fmt.Fprintf(&b, "\n\nWhen you're ready, explain %s in your own words.", concept)
	return b.String()
}

var sentencePattern = regexp.MustCompile(`[^.!?]+[.!?]*`)

// recap picks the teaching message that mentions the concept most and
// excerpts two of its sentences. The window moves with each attempt so the
// student hears a different part of the lesson.
func recap(teaching []string, concept string, attempt int) string {
	if len(teaching) == 0 {
		return ""
	}
	terms := textutil.Words(concept)
	best, bestScore := "", -1
	for _, t := range teaching {
		score := 0
		norm := textutil.Normalize(t)
		for _, term := range terms {
			score += strings.Count(norm, term)
		}
		if score > bestScore {
			best, bestScore = t, score
		}
	}

	var sentences []string
	for _, s := range sentencePattern.FindAllString(textutil.Sanitize(best), -1) {
		if s = strings.TrimSpace(s); s != "" {
			sentences = append(sentences, s)
		}
	}
	if len(sentences) == 0 {
		return ""
	}
	start := attempt % len(sentences)
	end := min(start+2, len(sentences))
	return textutil.Excerpt(strings.Join(sentences[start:end], " "), 300)
}

func list(terms []string, limit int) string {
	if len(terms) > limit {
		terms = terms[:limit]
	}
	switch len(terms) {
	case 0:
		return ""
	case 1:
		return terms[0]
	case 2:
		return terms[0] + " and " + terms[1]
	default:
		return strings.Join(terms[:len(terms)-1], ", ") + ", and " + terms[len(terms)-1]
	}
}
