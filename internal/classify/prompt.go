package classify

import "fmt"

const systemPrompt = `You are a research paper filter assistant. Always respond with valid JSON only.`

const projectDescription = `The H.E.R.O. System is a biomedical monitoring device that combines EEG and
eye tracking to monitor neurodegenerative diseases like Parkinson's and
Alzheimer's. We're researching wearable health monitoring, biosignal processing,
and early detection methods for neurological conditions.`

const inclusionCriteria = `Include papers that:
- Focus on neurodegenerative disease monitoring (Parkinson's, Alzheimer's, dementia)
- Involve EEG, eye tracking, or biomedical sensors
- Discuss wearable monitoring devices or systems
- Cover machine learning/AI for health monitoring
- Relate to early detection or diagnosis of neurological conditions`

const exclusionCriteria = `Exclude papers that:
- Are purely pharmacological interventions or drug trials
- Focus only on animal studies (no human relevance)
- Are review papers, surveys, or meta-analyses
- Don't involve monitoring, detection, or sensing technology
- Are about unrelated diseases (cancer, diabetes, etc.)`

const promptTemplate = `You are a research assistant helping with a literature review for a medical device for monitoring.

Project Context:
%s

Inclusion Criteria:
%s

Exclusion Criteria:
%s

Paper to Evaluate:
Title: %s
Abstract: %s

Task:
Based on the title and abstract, decide if this paper should be kept for manual review or rejected.

Respond ONLY with a JSON object in this exact format:
{
    "decision": "keep" or "reject",
    "confidence": "high" or "medium" or "low"
}

Be strict - when in doubt about relevance reject. We want high-quality relevant papers only.`

// noAbstract renders in place of a missing abstract; the field is never
// omitted from the prompt.
const noAbstract = "No abstract available"

// BuildPrompt renders the deterministic evaluation prompt for one paper.
func BuildPrompt(title, abstract string) string {
	if abstract == "" {
		abstract = noAbstract
	}
	return fmt.Sprintf(promptTemplate, projectDescription, inclusionCriteria, exclusionCriteria, title, abstract)
}
