package dialogue

import (
	"fmt"
	"strings"
)

// Prompt templates. Each embeds the required language by name; the wording
// mirrors the instructions every backend is scored against.

const discussionTemplate = `Context of the previous discussion:
%s

Please continue the dialogue, considering the following requirements:
1. The response must be in %s
2. The response must be related to previous messages
3. Provide a constructive suggestion or idea
4. Response length - no more than 2-3 sentences`

const aspectTemplate = `%s

Please propose a solution for the following aspect: %s

Requirements for the response:
1. The response must be in %s
2. Provide a specific solution
3. Explain how it will help
4. Response length - 2-3 sentences`

const synthesisTemplate = `Analyze the proposed solutions and suggest how they can be combined:
%s

Requirements for the response:
1. The response must be in %s
2. Propose a concrete plan for combining the solutions
3. Indicate the advantages of such a combination
4. Response length - 3-4 sentences`

// discussionPrompt embeds the accumulated context of all prior entries.
func discussionPrompt(context, language string) string {
	return fmt.Sprintf(discussionTemplate, context, language)
}

// aspectPrompt embeds the shared task plus one backend's assigned aspect.
func aspectPrompt(task, aspect, language string) string {
	return fmt.Sprintf(aspectTemplate, task, aspect, language)
}

// synthesisPrompt embeds every aspect response verbatim, labeled by aspect.
func synthesisPrompt(results []aspectResult, language string) string {
	var solutions strings.Builder
	for i, r := range results {
		if i > 0 {
			solutions.WriteString("\n")
		}
		fmt.Fprintf(&solutions, "Solution for %s: %s", r.Aspect, r.Text)
	}
	return fmt.Sprintf(synthesisTemplate, solutions.String(), language)
}
