package stage

import (
	"fmt"
	"strings"
)

// #region prompts
// Prompt assembly is deliberately plain string building: templating is a
// collaborator concern, not part of this pipeline.

func divergencePrompt(request, memoryContext, evidence string) string {
	var b strings.Builder
	b.WriteString("You are a divergent idea generator. Produce bold, distinct concepts for the request below.\n\n")
	if memoryContext != "" {
		b.WriteString(memoryContext)
		b.WriteString("\n")
	}
	if evidence != "" {
		b.WriteString(evidence)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "REQUEST: %s\n\n", request)
	b.WriteString("List each concept with a short name and a few key components.\n")
	return b.String()
}

func refinementPrompt(request, divergenceOutput string) string {
	var b strings.Builder
	b.WriteString("You are a pragmatic refiner. Take the raw concepts below and sharpen each into a concrete, workable form. Keep every concept, do not drop or merge any.\n\n")
	fmt.Fprintf(&b, "REQUEST: %s\n\n", request)
	fmt.Fprintf(&b, "RAW CONCEPTS:\n%s\n", divergenceOutput)
	return b.String()
}

func evaluationPrompt(refinementOutput string) string {
	var b strings.Builder
	b.WriteString("You are an independent judge. Evaluate every concept below on four criteria, each scored 0-10: originality, feasibility, impact, substance.\n\n")
	b.WriteString("Respond with ONLY a JSON object, no commentary, in this exact shape:\n")
	b.WriteString(`{"evaluations":[{"idea_name":"...","originality_score":0,"feasibility_score":0,"impact_score":0,"substance_score":0,"reasoning":"...","key_points":["..."]}]}`)
	b.WriteString("\n\nScores must be JSON numbers, not strings.\n\n")
	fmt.Fprintf(&b, "CONCEPTS:\n%s\n", refinementOutput)
	return b.String()
}
// #endregion prompts
