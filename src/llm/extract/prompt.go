package extract

import (
	"tracking_ivr/src/model"

	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
)

func getSystemTemplate() string {
	return `You extract structured data from Spanish phone transcripts for a towing quotation.
Callers speak numbers as words ("diecinueve punto cuatro", "menos noventa y nueve").

-Goal-
Return ONLY the field requested for the current stage, as one JSON object, nothing else.

-Formats-
origin / destination: {{"latitude": <number>, "longitude": <number>}}
vehicle: {{"brand": "<brand>", "model": "<model>", "year": <four digit year>}}

STRICT RULES:
1. Latitude must be within -90..90 and longitude within -180..180.
2. Never guess. If the transcript does not contain the requested data return {{}}.
3. Do not wrap the JSON in markdown.`
}

func getUserTemplate() string {
	return `{context}
<current_stage>{stage}</current_stage>
<stage_instructions>{instructions}</stage_instructions>
<transcript>{transcript}</transcript>`
}

var stageInstructions = map[model.Stage]string{
	model.StageOrigin:      "Extract the pickup coordinates.",
	model.StageDestination: "Extract the drop-off coordinates.",
	model.StageVehicle:     "Extract the vehicle brand, model and year.",
}

func createExtractionTemplate() prompt.ChatTemplate {
	return prompt.FromMessages(schema.FString,
		schema.SystemMessage(getSystemTemplate()),
		schema.UserMessage(getUserTemplate()),
	)
}

func templateVariables(stage model.Stage, transcript, conversationContext string) map[string]any {
	return map[string]any{
		"context":      conversationContext,
		"stage":        string(stage),
		"instructions": stageInstructions[stage],
		"transcript":   transcript,
	}
}
