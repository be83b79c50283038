package flow

import (
	"fmt"
	"strings"
)

const feedbackSystem = `You are Concept Compass, a patient tutor. A student has explained an
academic concept in their own words. Judge how well they understand it.
Reply with two or three short paragraphs: what they got right, what is
missing or wrong, and one question that would deepen their understanding.
End with a final line of the form "Score: N" where N is 0 to 100.`

const tutorSystem = `You are Concept Compass, a friendly tutor having a spoken conversation
with a student who is explaining %q to you. Keep every reply under four
sentences so it sounds natural when read aloud. Ask one follow-up question
at a time, correct misconceptions gently and do not use lists or markdown.`

func feedbackPrompt(in FeedbackInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Concept: %s\n", in.Concept)
	if in.GradeLevel != "" {
		fmt.Fprintf(&b, "Grade level: %s\n", in.GradeLevel)
	}
	fmt.Fprintf(&b, "Student explanation:\n%s\n", in.Explanation)

	return b.String()
}

func tutorPrompt(concept string) string {
	return fmt.Sprintf(tutorSystem, concept)
}
